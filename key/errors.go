package key

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for credential lifecycle operations.
var (
	// ErrIssuance indicates that a token issuance call failed.
	ErrIssuance = errors.New("token issuance failed")

	// ErrKeyClosed indicates that the key has been closed.
	ErrKeyClosed = errors.New("key closed")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid key configuration")
)

// IssuanceError describes a failed call to the token issuance endpoint:
// a transport failure, a non-2xx status, or a response missing the
// required fields.
type IssuanceError struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *IssuanceError) Error() string {
	msg := e.buildMessage()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// buildMessage constructs the error message based on available fields.
func (e *IssuanceError) buildMessage() string {
	switch {
	case e.StatusCode != 0 && e.URL != "":
		return fmt.Sprintf("token issuance at %s failed with status %d %s: %s",
			e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	case e.URL != "":
		return fmt.Sprintf("token issuance at %s failed: %s", e.URL, e.Message)
	default:
		return fmt.Sprintf("token issuance failed: %s", e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *IssuanceError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *IssuanceError) Is(target error) bool {
	if target == ErrIssuance {
		return true
	}
	_, ok := target.(*IssuanceError)
	return ok
}

// NewIssuanceError creates a new IssuanceError.
func NewIssuanceError(url, message string) *IssuanceError {
	return &IssuanceError{
		URL:     url,
		Message: message,
	}
}

// NewIssuanceErrorWithCause creates a new IssuanceError with a cause.
func NewIssuanceErrorWithCause(url, message string, cause error) *IssuanceError {
	return &IssuanceError{
		URL:     url,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("key config error at %s: %s", e.Field, e.Message)
	} else {
		msg = fmt.Sprintf("key config error: %s", e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrInvalidConfig {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}
