// Package types defines the core data structures for the Rolodex contact agent.
// These types represent contacts, the dialog tasks that build them, and the
// structured intents produced from free-text chat messages.
package types

import "errors"

var (
	// ErrUnknownField indicates a field update referenced a key outside the
	// closed set of updatable contact fields.
	ErrUnknownField = errors.New("unknown contact field")

	// ErrInvalidClassification indicates a classification value that is not
	// one of founder, investor, enabler or professional.
	ErrInvalidClassification = errors.New("invalid contact classification")

	// ErrInvalidContact indicates a contact failed struct validation.
	ErrInvalidContact = errors.New("invalid contact")
)
