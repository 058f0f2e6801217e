package handlers

import "fmt"

// CommandError marks a malformed admin command invocation. It renders as
// reply text with the expected usage.
type CommandError struct {
	Usage  string
	Reason string
}

func (e *CommandError) Error() string {
	if e.Reason == "" {
		return "usage: " + e.Usage
	}
	return fmt.Sprintf("%s\nusage: %s", e.Reason, e.Usage)
}
