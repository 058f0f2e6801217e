package form

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Status is a form lifecycle state.
type Status string

const (
	// StatusBlocking means required answers are missing.
	StatusBlocking Status = "blocking"
	// StatusIdle means the form is complete and may be submitted.
	StatusIdle Status = "idle"
	// StatusPending means the form awaits admin review.
	StatusPending Status = "pending"
	// StatusReturned means admins rejected the form with a note.
	StatusReturned Status = "returned"
	// StatusPublished means the form was posted to the channel.
	StatusPublished Status = "published"
)

// Label returns the user-facing status wording.
func (s Status) Label() string {
	switch s {
	case StatusIdle:
		return "ready to submit"
	case StatusPending:
		return "under admin review"
	case StatusReturned:
		return "review failed"
	case StatusPublished:
		return "published"
	default:
		return "cannot be submitted"
	}
}

// Form aggregates a user's answers, lifecycle status and moderator note.
// The stored status is advisory: Status derives the effective value from
// answer completeness, while moderation transitions set it explicitly.
type Form struct {
	answers AnswerSet
	status  Status
	note    string
}

// Answer returns the answer for tag if present.
func (f *Form) Answer(tag string) (*Answer, bool) {
	return f.answers.Get(tag)
}

// Answers returns the underlying answer collection.
func (f *Form) Answers() AnswerSet {
	return f.answers
}

// AnswerCount returns the number of stored answers.
func (f *Form) AnswerCount() int {
	return len(f.answers)
}

// SetAnswer validates and records one answer.
func (f *Form) SetAnswer(schema *Schema, tag string, in Input) error {
	return f.answers.Set(schema, tag, in)
}

// DeleteAnswer removes the answer for tag, reporting whether one existed.
func (f *Form) DeleteAnswer(tag string) bool {
	return f.answers.Delete(tag)
}

// MissingRequired counts required questions without an answer.
func (f *Form) MissingRequired(schema *Schema) int {
	missing := 0
	for _, q := range schema.Questions() {
		if q.Required && !f.answers.Has(q.Tag) {
			missing++
		}
	}
	return missing
}

// Status derives the effective status. A form with missing required answers
// always reads blocking. A complete form whose stored status is blocking is
// promoted to idle; the promotion sticks. Statuses set by moderation
// transitions are preserved as stored.
func (f *Form) Status(schema *Schema) Status {
	if f.status == "" {
		f.status = StatusBlocking
	}
	if f.MissingRequired(schema) > 0 {
		f.status = StatusBlocking
		return StatusBlocking
	}
	if f.status == StatusBlocking {
		f.status = StatusIdle
	}
	return f.status
}

// Note returns the moderator note, shown to the user while returned.
func (f *Form) Note() string {
	return f.note
}

// Submit moves a complete form into admin review.
func (f *Form) Submit(schema *Schema) error {
	switch st := f.Status(schema); st {
	case StatusIdle, StatusReturned:
		f.status = StatusPending
		return nil
	default:
		return fmt.Errorf("form is %s, cannot submit", st)
	}
}

// Reject returns a pending form to its owner with a mandatory note.
func (f *Form) Reject(note string) error {
	if f.status != StatusPending {
		return fmt.Errorf("form is %s, cannot reject", f.status)
	}
	if note == "" {
		return fmt.Errorf("reject requires a note")
	}
	f.status = StatusReturned
	f.note = note
	return nil
}

// Publish marks a pending form as posted to the channel.
func (f *Form) Publish() error {
	if f.status != StatusPending {
		return fmt.Errorf("form is %s, cannot publish", f.status)
	}
	f.status = StatusPublished
	return nil
}

// Withdraw takes the form out of review or publication. The next Status
// read promotes it back to idle when still complete.
func (f *Form) Withdraw() {
	f.status = StatusBlocking
	f.note = ""
}

type formYAML struct {
	Answers AnswerSet `yaml:"answers"`
	Status  Status    `yaml:"status"`
	Note    string    `yaml:"note,omitempty"`
}

// MarshalYAML serializes the form including its stored status.
func (f Form) MarshalYAML() (interface{}, error) {
	status := f.status
	if status == "" {
		status = StatusBlocking
	}
	return formYAML{Answers: f.answers, Status: status, Note: f.note}, nil
}

// UnmarshalYAML restores a form from its stored document.
func (f *Form) UnmarshalYAML(node *yaml.Node) error {
	var raw formYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	f.answers = raw.Answers
	f.status = raw.Status
	f.note = raw.Note
	return nil
}
