package auth

import "errors"

// Sentinel errors for the auth service; transport adapters map them to status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")

	// ErrRotationDenied is the single failure signal for Rotate. Every sub-failure
	// (absent session, revoked session, invalid or expired refresh token, missing
	// principal, store or identity transport failure) collapses into it so callers
	// cannot infer session existence from rotation outcomes.
	ErrRotationDenied = errors.New("session rotation denied")
)
