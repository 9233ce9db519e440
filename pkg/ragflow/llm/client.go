package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client performs chat completions against one provider.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Sentinel errors for generator configuration.
var (
	// ErrUnsupportedProvider is returned when no client exists for a provider name.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingAPIKey is returned when neither the request nor the factory has a key.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrEmptyResponse is returned when a provider answers with no choices.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// Error wraps a provider failure with the operation that produced it.
type Error struct {
	Op        string
	Err       error
	Retryable bool
}

// NewError creates an Error.
func NewError(op string, err error, retryable bool) *Error {
	return &Error{Op: op, Err: err, Retryable: retryable}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is an llm Error marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// isRetryableStatus checks if an HTTP status indicates a transient error.
func isRetryableStatus(status int) bool {
	return status == 429 || status == 500 || status == 502 || status == 503 || status == 504
}

// isRetryableMessage checks if an error message indicates a transient error.
func isRetryableMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "overloaded")
}
