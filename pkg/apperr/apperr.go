// Package apperr standardizes errors crossing the HTTP boundary.
package apperr

import "fmt"

// Generic Action Messages
const (
	MsgQueueFailed   = "failed to queue"
	MsgGetFailed     = "failed to get"
	MsgDeleteFailed  = "failed to delete"
	MsgProcessFailed = "failed to process"
	MsgUnavailable   = "service unavailable"
)

// AppError carries an application code, a user-facing message, the HTTP
// status to respond with, and the underlying cause.
type AppError struct {
	Code       int
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError.
func New(code int, msg string, httpStatus int, cause error) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: httpStatus, Cause: cause}
}

// Wrap attaches code and status to an existing error.
func Wrap(err error, code int, msg string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: msg, HTTPStatus: httpStatus, Cause: err}
}

// MapError wraps an error with a standardized "<service> <msg>" message.
func MapError(serviceName string, err error, code int, msg string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf("%s %s", serviceName, msg), httpStatus)
}
