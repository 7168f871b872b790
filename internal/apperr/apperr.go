// Package apperr holds the error type shared by services for failures the
// caller caused, such as a blank required form field.
package apperr

import "errors"

// ClientError is a validation failure whose message is safe to show to the
// user verbatim.
type ClientError struct {
	message string
}

// Error implements error.
func (e *ClientError) Error() string {
	return "client error: " + e.message
}

// Message returns the user-facing text.
func (e *ClientError) Message() string {
	return e.message
}

// NewClientError returns a ClientError with the given user-facing message.
func NewClientError(message string) *ClientError {
	return &ClientError{message: message}
}

// ClientMessage returns the user-facing message if err is or wraps a
// ClientError.
func ClientMessage(err error) (string, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.message, true
	}
	return "", false
}
