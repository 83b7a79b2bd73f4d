package entity

import "errors"

var (
	ErrMissingCredentials    = errors.New("email and password are required")
	ErrInvalidCode           = errors.New("code must be exactly 6 digits")
	ErrNoPendingSecondFactor = errors.New("no pending second factor")
)

var (
	ErrUnexpectedResponse = errors.New("unexpected login response: no token and no pending user id")
	ErrServiceUnavailable = errors.New("auth service unavailable")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrNotImplemented     = errors.New("not implemented")
)

// APIError carries the message the backend put in its {error} body so the
// presentation layer can show it verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }
