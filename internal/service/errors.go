package service

import "errors"

var (
	// ErrInputRejected marks a message refused by input validation
	ErrInputRejected = errors.New("input rejected")

	// ErrProviderUnavailable marks a failed or timed-out embedding call.
	// The turn continues without an intent.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrInternal marks an unexpected fault inside a turn
	ErrInternal = errors.New("internal error")
)

// InputError carries the user-facing reason a message was rejected
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

func (e *InputError) Unwrap() error {
	return ErrInputRejected
}
