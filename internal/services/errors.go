package services

import "errors"

var (
	// ErrNotFound means a referenced entity id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials covers a failed login or an unusable token.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DeniedError is an access-policy rejection. Reason is surfaced verbatim to
// the caller in the 403 body.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

func Denied(reason string) error { return &DeniedError{Reason: reason} }

// ValidationError rejects malformed input before anything is persisted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(msg string) error { return &ValidationError{Msg: msg} }

// ConflictError rejects an operation that would break an invariant, e.g. a
// second open time log for the same task and user.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(msg string) error { return &ConflictError{Msg: msg} }
