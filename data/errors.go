package data

import "errors"

var (
	// ErrMissingData marks a lookup for an entity that was never stored.
	ErrMissingData = errors.New("no stored data")
	// ErrOwnerSet is returned when a second owner claim arrives.
	ErrOwnerSet = errors.New("owner already set")
	// ErrWrongToken is returned when a deep-link token does not match.
	ErrWrongToken = errors.New("deep-link token mismatch")
)
