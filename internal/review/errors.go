package review

import "errors"

var (
	// ErrNotFound is returned when the pending response does not exist.
	ErrNotFound = errors.New("pending response not found")

	// ErrConflict is returned when the row has already left an actionable
	// state, including when a concurrent decision wins the race.
	ErrConflict = errors.New("pending response already decided")

	// ErrEmptyResponse is returned when a modify/reject call carries a blank
	// replacement text.
	ErrEmptyResponse = errors.New("response text cannot be empty")

	// ErrEmptyReason is returned when a reject or escalate call carries no
	// reason.
	ErrEmptyReason = errors.New("reason cannot be empty")
)
