package handlers

import (
	"fmt"
	"strings"

	"github.com/polydating/datingbot/conversation"
	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/form"
	"github.com/polydating/datingbot/telegram/keyboard"
)

const helpText = `This bot collects dating forms for the channel.

Fill the form question by question, then submit it for review. Admins
either publish it or return it with a note. Useful commands:

/start - open the dialog
/help - this text
/stop - close the dialog (answers are kept)`

var backButton = data.Button{Text: "« Back", Unique: cbBack}

// render rewrites the dialog slots for the current state.
func (s *session) render() error {
	switch s.dlg.State() {
	case conversation.StateShowHelp:
		return s.chat.PrintMessages(s.app.m, data.Outgoing{
			Text:     helpText,
			Keyboard: keyboard.Rows(keyboard.Row(backButton)),
		})
	case conversation.StateManageForm:
		return s.chat.PrintMessages(s.app.m, s.manageFormView())
	case conversation.StateAskQuestion:
		prompt, answer := s.questionView()
		return s.chat.PrintMessages(s.app.m, prompt, answer)
	default:
		return s.chat.PrintMessages(s.app.m, data.Outgoing{
			Text: "Main menu. Pick a section.",
			Keyboard: keyboard.Rows(
				keyboard.Row(data.Button{Text: "Help", Unique: cbLevelHelp}),
				keyboard.Row(data.Button{Text: "My form", Unique: cbLevelForm}),
			),
		})
	}
}

// manageFormView renders the status summary with status-dependent actions.
func (s *session) manageFormView() data.Outgoing {
	status := s.user.Form.Status(s.app.schema)

	var rows [][]data.Button
	switch status {
	case form.StatusBlocking:
		rows = append(rows, keyboard.Row(data.Button{Text: "Fill form", Unique: cbFormFill}))
	case form.StatusIdle:
		rows = append(rows,
			keyboard.Row(data.Button{Text: "Fill form", Unique: cbFormFill}),
			keyboard.Row(data.Button{Text: "Submit for review", Unique: cbFormSubmit}),
		)
	case form.StatusPending:
		rows = append(rows,
			keyboard.Row(data.Button{Text: "Withdraw from review", Unique: cbFormWithdraw}),
		)
	case form.StatusReturned:
		rows = append(rows,
			keyboard.Row(data.Button{Text: "Fill form", Unique: cbFormFill}),
			keyboard.Row(data.Button{Text: "Submit again", Unique: cbFormSubmit}),
		)
	case form.StatusPublished:
		rows = append(rows,
			keyboard.Row(data.Button{Text: "Remove from channel", Unique: cbFormDelete}),
		)
	}
	if s.user.Form.AnswerCount() > 0 {
		rows = append(rows, keyboard.Row(data.Button{Text: "Show my form", Unique: cbFormShow}))
	}
	rows = append(rows, keyboard.Row(backButton))

	return data.Outgoing{
		Text:     s.user.Form.RenderStatus(s.app.schema),
		Keyboard: keyboard.Rows(rows...),
	}
}

// questionView renders the two question slots: the prompt and the current
// answer with navigation.
func (s *session) questionView() (data.Outgoing, data.Outgoing) {
	q := s.user.CurrentQuestion(s.app.schema)

	var b strings.Builder
	fmt.Fprintf(&b, "Question %d of %d", s.user.Question+1, s.app.schema.Len())
	if q.Required {
		b.WriteString(" (required)")
	}
	b.WriteString("\n\n")
	b.WriteString(q.Prompt)
	if q.Note != "" {
		b.WriteString("\n\n")
		b.WriteString(q.Note)
	}
	prompt := data.Outgoing{Text: b.String()}

	answerText := "No answer yet."
	hasAnswer := false
	if a, ok := s.user.Form.Answer(q.Tag); ok {
		hasAnswer = true
		answerText = "Current answer: " + a.Display()
	}

	rows := keyboard.Rows(keyboard.Row(
		data.Button{Text: "«", Unique: cbQuestionPrev},
		data.Button{Text: "»", Unique: cbQuestionNext},
	))
	if hasAnswer {
		row := keyboard.Row(data.Button{Text: "Delete answer", Unique: cbAnswerDelete})
		if q.Type == form.TypePhoto || q.Type == form.TypeAudio {
			row = append(row, data.Button{Text: "Show", Unique: cbAnswerShow})
		}
		rows = append(rows, row)
	}
	rows = append(rows, keyboard.Row(backButton))

	return prompt, data.Outgoing{Text: answerText, Keyboard: rows}
}
