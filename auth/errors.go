package auth

import "errors"

// Access guard outcomes.
var (
	ErrMissingCredential = errors.New("authentication key missing")
	ErrInvalidCredential = errors.New("authentication key invalid")
	ErrForbidden         = errors.New("access forbidden")
)

// Authenticator outcomes.
var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so callers cannot tell which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("email already registered")
	ErrNotFound           = errors.New("session not found")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
)
