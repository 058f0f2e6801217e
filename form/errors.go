package form

import (
	"errors"
	"fmt"
)

// ErrUnknownQuestion reports an answer or lookup referencing a tag absent
// from the schema. This is a programming or configuration fault, not a user
// input problem.
var ErrUnknownQuestion = errors.New("unknown question tag")

// ErrNoAnswer reports a missing answer for a known tag.
var ErrNoAnswer = errors.New("no answer")

// ValidationError reports user input that fails question type checks.
// It is recovered at the dialog boundary and shown to the user.
type ValidationError struct {
	Tag    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for %q: %s", e.Tag, e.Reason)
}

// SchemaError reports an invalid question schema definition.
type SchemaError struct {
	Tag    string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Tag == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: question %q: %s", e.Tag, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
