package ailang

import (
	"errors"
	"fmt"
)

// Sentinel errors for client operations.
var (
	// ErrClientClosed indicates that the client has been closed.
	ErrClientClosed = errors.New("ailang client closed")

	// ErrModelRequired indicates that neither the request nor the client
	// names a model.
	ErrModelRequired = errors.New("model is required")

	// ErrNoMessages indicates a chat request without messages.
	ErrNoMessages = errors.New("chat requires at least one message")
)

// APIError describes a non-2xx response from the AI-Lang API. The body is
// kept verbatim (truncated to a sane size) because the service reports
// failures as free-form JSON error objects.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ai-lang API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("ai-lang API error (status %d): %s", e.StatusCode, e.Body)
}
