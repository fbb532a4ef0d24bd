// Package apperror defines the error taxonomy shared by the web client and the dev API.
//
// Every error a user can see falls into one of a few buckets:
//
//	ErrValidation   → caught before any network call, shown next to the form
//	ErrUnauthorized → the backend rejected our bearer token; the session is wiped
//	ErrNoToken      → a protected call was attempted without a token
//	ErrRejected     → the backend refused the request (4xx/5xx other than 401)
//	ErrUnavailable  → the backend could not be reached at all
//
// ErrNotFound, ErrForbidden and ErrConflict are used by the dev API's storage layer
// and mapped to HTTP statuses there.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoToken      = errors.New("no access token")
	ErrRejected     = errors.New("request rejected")
	ErrUnavailable  = errors.New("server unavailable")
)

// AppError carries a sentinel (for errors.Is) plus what the UI needs to show.
type AppError struct {
	Err     error    // sentinel from the list above
	Message string   // human-readable message
	Field   string   // optional: form field the error belongs to
	Status  int      // optional: HTTP status returned by the backend
	Details []string // optional: individual violations (password rules, 422 detail list)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
		Status:  http.StatusNotFound,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// WeakPassword reports every violated password rule at once.
func WeakPassword(field string, violations []string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "Password must contain:",
		Field:   field,
		Details: violations,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// SessionExpired is returned after the backend answered 401 to an authenticated call.
func SessionExpired() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "Session expired. Please login again.",
		Status:  http.StatusUnauthorized,
	}
}

// NoToken is returned when a protected call is attempted without a stored token.
func NoToken() *AppError {
	return &AppError{
		Err:     ErrNoToken,
		Message: "Please login again.",
	}
}

// Rejected wraps a non-success backend response. An empty message falls back
// to a generic one so the UI always has something to show.
func Rejected(status int, message string, details ...string) *AppError {
	if message == "" {
		message = "Request failed"
	}
	return &AppError{
		Err:     ErrRejected,
		Message: message,
		Status:  status,
		Details: details,
	}
}

// Unavailable wraps a transport failure (connection refused, DNS, timeout).
func Unavailable(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %v", ErrUnavailable, cause),
		Message: "Unable to connect to server",
	}
}

// Unauthorized is the dev API's answer to a missing or invalid bearer token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// Message returns the user-facing message of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
