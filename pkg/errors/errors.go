package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized    = NewError("UNAUTHORIZED", "Unauthorized", http.StatusUnauthorized)
	ErrNotFound        = NewError("NOT_FOUND", "Not found", http.StatusNotFound)
	ErrInvalidJSON     = NewError("INVALID_JSON", "Invalid JSON body", http.StatusBadRequest)
	ErrMissingFields   = NewError("MISSING_FIELDS", "Missing required fields: to, message", http.StatusBadRequest)
	ErrLocationCoords  = NewError("LOCATION_COORDINATES", "Location requires latitude and longitude", http.StatusBadRequest)
	ErrUnsupportedType = NewError("UNSUPPORTED_TYPE", "Unsupported message type", http.StatusBadRequest)
	ErrSendFailed      = NewError("SEND_FAILED", "Failed to send message", http.StatusInternalServerError)
	ErrRateLimited     = NewError("RATE_LIMITED", "Rate limit exceeded", http.StatusTooManyRequests)
	ErrInternal        = NewError("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError)
)

// Error is an application error that knows its HTTP status and public message.
type Error struct {
	Code    string
	Message string
	Status  int
	Details string
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code so wrapped copies compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetails(details string) *Error {
	err := *e
	err.Details = details
	return &err
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// ToErrorResponse renders {"error": ...} plus "details" when present.
func ToErrorResponse(err error) map[string]interface{} {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	response := map[string]interface{}{
		"error": appErr.Message,
	}

	if appErr.Details != "" {
		response["details"] = appErr.Details
	}

	return response
}
