package types

import "net/http"

// Error is an HTTP error returned by route handlers. If nothing was written to
// the connection yet, it's sent to the client as a plain-text response with
// StatusCode.
type Error struct {
	StatusCode int
	Message    string
}

// Error returns the error message string.
func (e Error) Error() string {
	return e.Message
}

// NewError creates a new Error with the specified status code and message.
func NewError(statusCode int, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewNotFoundError returns a 404 Not Found error.
func NewNotFoundError(message string) *Error {
	return NewError(http.StatusNotFound, message)
}
