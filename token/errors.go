package token

import (
	"errors"
	"fmt"
)

// ErrMalformed indicates that a token string cannot be decoded.
var ErrMalformed = errors.New("token is malformed")

// MalformedTokenError describes why a token string could not be decoded.
// It matches ErrMalformed under errors.Is.
type MalformedTokenError struct {
	// Reason describes what was wrong with the token.
	Reason string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *MalformedTokenError) Error() string {
	msg := "malformed token"
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *MalformedTokenError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target is ErrMalformed.
func (e *MalformedTokenError) Is(target error) bool {
	return target == ErrMalformed
}

// newMalformedError creates a MalformedTokenError.
func newMalformedError(reason string, cause error) *MalformedTokenError {
	return &MalformedTokenError{
		Reason: reason,
		Cause:  cause,
	}
}
