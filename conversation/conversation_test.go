package conversation

import (
	"context"
	"testing"
)

func TestDialogWalk(t *testing.T) {
	ctx := context.Background()
	d := New()
	if d.State() != StateSelectLevel {
		t.Fatalf("initial state = %s", d.State())
	}
	if err := d.Fire(ctx, EventManage); err != nil {
		t.Fatalf("manage: %v", err)
	}
	if err := d.Fire(ctx, EventAsk); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if d.State() != StateAskQuestion {
		t.Fatalf("state = %s, want ask_question", d.State())
	}
	if err := d.Fire(ctx, EventBack); err != nil {
		t.Fatalf("back: %v", err)
	}
	if d.State() != StateManageForm {
		t.Fatalf("back landed on %s", d.State())
	}
	if err := d.Fire(ctx, EventBack); err != nil {
		t.Fatalf("back: %v", err)
	}
	if d.State() != StateSelectLevel {
		t.Fatalf("back landed on %s", d.State())
	}
}

func TestDialogRejectsSkippedLevels(t *testing.T) {
	d := New()
	if d.Can(EventAsk) {
		t.Fatal("ask must not be reachable from level selection")
	}
	if err := d.Fire(context.Background(), EventAsk); err == nil {
		t.Fatal("expected transition error")
	}
}

func TestResume(t *testing.T) {
	d := Resume(StateAskQuestion)
	if d.State() != StateAskQuestion {
		t.Fatalf("resumed state = %s", d.State())
	}
	if d.Back() != StateManageForm {
		t.Fatalf("back target = %s", d.Back())
	}

	d = Resume("obsolete_tag")
	if d.State() != StateSelectLevel {
		t.Fatalf("unknown tag resumed to %s", d.State())
	}
}

func TestStopFromAnywhere(t *testing.T) {
	ctx := context.Background()
	for _, state := range []string{StateShowHelp, StateManageForm, StateAskQuestion} {
		d := Resume(state)
		if err := d.Fire(ctx, EventStop); err != nil {
			t.Fatalf("stop from %s: %v", state, err)
		}
		if d.State() != StateSelectLevel {
			t.Fatalf("stop from %s landed on %s", state, d.State())
		}
	}
}
