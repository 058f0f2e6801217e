// Package conversation models the private-chat dialog as a finite state
// machine. Only the state tag is persisted; a resumed dialog is rebuilt
// around the stored tag.
package conversation

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// Dialog state tags. The tags are stored verbatim in the conversation
// store, so they must stay stable across releases.
const (
	StateSelectLevel = "select_level"
	StateShowHelp    = "show_help"
	StateManageForm  = "manage_form"
	StateAskQuestion = "ask_question"
)

// Dialog events.
const (
	EventHelp   = "help"
	EventManage = "manage"
	EventAsk    = "ask"
	EventBack   = "back"
	EventStop   = "stop"
)

var allStates = []string{StateSelectLevel, StateShowHelp, StateManageForm, StateAskQuestion}

// ValidState reports whether tag names a dialog state.
func ValidState(tag string) bool {
	for _, s := range allStates {
		if s == tag {
			return true
		}
	}
	return false
}

// Dialog is one user's dialog position.
type Dialog struct {
	machine *fsm.FSM
}

// New starts a dialog at level selection.
func New() *Dialog {
	return Resume(StateSelectLevel)
}

// Resume rebuilds a dialog around a stored state tag. Unknown tags fall
// back to level selection so stale stored states never strand a user.
func Resume(state string) *Dialog {
	d := &Dialog{machine: fsm.NewFSM(
		StateSelectLevel,
		fsm.Events{
			{Name: EventHelp, Src: []string{StateSelectLevel}, Dst: StateShowHelp},
			{Name: EventManage, Src: []string{StateSelectLevel, StateShowHelp}, Dst: StateManageForm},
			{Name: EventAsk, Src: []string{StateManageForm}, Dst: StateAskQuestion},
			{Name: EventBack, Src: []string{StateShowHelp, StateManageForm}, Dst: StateSelectLevel},
			{Name: EventBack, Src: []string{StateAskQuestion}, Dst: StateManageForm},
			{Name: EventStop, Src: allStates, Dst: StateSelectLevel},
		},
		fsm.Callbacks{},
	)}
	if ValidState(state) {
		d.machine.SetState(state)
	}
	return d
}

// State returns the current state tag.
func (d *Dialog) State() string {
	return d.machine.Current()
}

// Can reports whether event is allowed from the current state.
func (d *Dialog) Can(event string) bool {
	return d.machine.Can(event)
}

// Fire applies an event, moving the dialog to its next state. Events that
// land on the current state are not an error.
func (d *Dialog) Fire(ctx context.Context, event string) error {
	err := d.machine.Event(ctx, event)
	var same fsm.NoTransitionError
	if errors.As(err, &same) {
		return nil
	}
	return err
}

// Back returns the state a back action from the current state lands on.
func (d *Dialog) Back() string {
	if d.State() == StateAskQuestion {
		return StateManageForm
	}
	return StateSelectLevel
}
