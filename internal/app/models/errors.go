package models

import (
	"errors"
	"fmt"
)

// Domain specific errors for authentication and session handling.
var (
	ErrNotFound          = errors.New("requested item not found")
	ErrConflict          = errors.New("item already exists or conflict")
	ErrUnauthenticated   = errors.New("authentication required or invalid credentials")
	ErrForbidden         = errors.New("action forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrValidation        = errors.New("validation failed")
	ErrNotAuthenticated  = errors.New("no authenticated session")
	ErrSessionSuperseded = errors.New("session changed while the request was in flight")
	ErrMalformedSession  = errors.New("persisted session is malformed")
)

// AuthenticationError reports rejected credentials or an expired/invalid token.
type AuthenticationError struct {
	Status  int
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

func (e *AuthenticationError) Unwrap() error { return ErrUnauthenticated }

// RegistrationError reports a registration rejected by the backend or by
// local validation, e.g. an email that is already registered.
type RegistrationError struct {
	Status  int
	Message string
	Fields  []FieldError
}

// FieldError points at a single invalid input field.
type FieldError struct {
	Field string
	Error string
}

func (e *RegistrationError) Error() string {
	if e.Message == "" {
		return "registration failed"
	}
	return e.Message
}

func (e *RegistrationError) Unwrap() error { return ErrValidation }

// NetworkError is a transient transport failure: the backend was not reached
// or did not answer.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is any other non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case 400, 422:
		return ErrBadRequest
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	}
	return nil
}

// IsAuthenticationError reports whether err carries an AuthenticationError.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsNetworkError reports whether err carries a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
