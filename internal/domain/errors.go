package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying API failures. The API client wraps these
// so commands and views can branch on the category without inspecting
// HTTP details.
//
//	return &FetchError{Op: "list servers", StatusCode: 404, Err: domain.ErrNotFound}
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the API throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates a state or uniqueness conflict, such as
	// adding a website that is already monitored.
	ErrConflict = errors.New("conflict")

	// ErrMalformedPayload indicates a response body that could not be
	// decoded into the expected shape.
	ErrMalformedPayload = errors.New("malformed response payload")

	// ErrNoSession indicates that no authenticated session is available.
	ErrNoSession = errors.New("not logged in")
)

// AuthError is returned when a login attempt is rejected. Message is safe
// to show inline next to the login form.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message == "" && e.Err != nil {
		return "login failed: " + e.Err.Error()
	}
	if e.Message == "" {
		return "login failed"
	}
	return "login failed: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError describes a failed API call: a transport failure, a non-2xx
// status, an unsuccessful envelope, or an undecodable payload.
type FetchError struct {
	// Op names the operation, e.g. "list servers".
	Op string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Message is the server-provided message, if any.
	Message string

	Err error
}

func (e *FetchError) Error() string {
	msg := "failed to " + e.Op
	switch {
	case e.StatusCode != 0 && e.Message != "":
		msg += fmt.Sprintf(" (HTTP %d): %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	case e.Message != "":
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError reports client-side input that was rejected before any
// network call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
