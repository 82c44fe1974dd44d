package game

import "errors"

// Error codes carried to clients alongside the message. They double as HTTP
// statuses at the transport boundary.
const (
	CodeBadRequest   = 400
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeInvalidState = 409
	CodeInternal     = 500
)

// Error is the structured failure returned by every session operation.
type Error struct {
	Message string
	Code    int
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func badRequest(message string) *Error {
	return &Error{Message: message, Code: CodeBadRequest}
}

func forbidden(message string) *Error {
	return &Error{Message: message, Code: CodeForbidden}
}

func notFound(message string) *Error {
	return &Error{Message: message, Code: CodeNotFound}
}

func invalidState(message string) *Error {
	return &Error{Message: message, Code: CodeInvalidState}
}

func internal(cause error) *Error {
	return &Error{Message: "internal server error", Code: CodeInternal, cause: cause}
}

// AsError extracts the structured error, defaulting unknown failures to an
// internal error so callers always have a message and a code.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return internal(err)
}
