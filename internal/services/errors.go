package services

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError is returned when login or refresh failed at the dashboard
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TransportError is returned when the dashboard could not be reached or
// answered with a non-2xx status. Status is the HTTP status text.
type TransportError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Status
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BackendError is returned when the dashboard answered 2xx with success=false
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a transport failure caused by a
// rejected bearer token.
func IsUnauthorized(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode == http.StatusUnauthorized || te.StatusCode == http.StatusForbidden
}
