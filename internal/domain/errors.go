package domain

import "errors"

var (
	// ErrValidation marks bad input shape or values; no state is mutated.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing record for the requesting tenant.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an optimistic-concurrency violation on update.
	ErrConflict = errors.New("conflict")
	// ErrIllegalTransition marks a state-machine event the current status
	// cannot accept. Callers decide whether it is a no-op or a failure.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrRetryExhausted marks a retry request past the retry ceiling.
	ErrRetryExhausted = errors.New("retry ceiling reached")
)
