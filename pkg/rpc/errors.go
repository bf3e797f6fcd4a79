package rpc

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers. Services raise these; the front end maps
// them to HTTP statuses at the session boundary.
const (
	CodeNotAuthorized   = "not_authorized"
	CodeBadRequest      = "bad_request"
	CodeInvalidArgument = "invalid_argument"
	CodeNotImplemented  = "not_implemented"
	CodeBadMethod       = "bad_method"
	CodeServerError     = "server_error"
)

// Error is a taxonomy error carried from a service to the front end.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// NotAuthorized rejects a call with invalid or missing credentials.
func NotAuthorized() *Error {
	return &Error{Code: CodeNotAuthorized, Message: "not authorized"}
}

// BadRequest rejects a malformed request document.
func BadRequest(format string, args ...any) *Error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument rejects a well-formed request with unacceptable values.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotImplemented rejects a method no service is bound to.
func NotImplemented(method string) *Error {
	return &Error{Code: CodeNotImplemented, Message: fmt.Sprintf("method %q not implemented", method)}
}

// ServerError wraps a downstream failure.
func ServerError(err error) *Error {
	return &Error{Code: CodeServerError, Message: err.Error()}
}

// AsError normalizes any error into a taxonomy error. Non-taxonomy errors
// collapse to server_error.
func AsError(err error) *Error {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr
	}
	return ServerError(err)
}

// HTTPStatus maps a taxonomy code to its HTTP status.
func HTTPStatus(code string) int {
	switch code {
	case CodeNotAuthorized:
		return http.StatusUnauthorized
	case CodeBadRequest, CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotImplemented:
		return http.StatusNotImplemented
	case CodeBadMethod:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}
