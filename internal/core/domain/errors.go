package domain

import "errors"

var (
	// ErrInvalidCredentials covers both a wrong password and an unknown
	// account. The two cases are never distinguished in any externally
	// observable way.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")

	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("access forbidden")
	ErrUnknownCapability = errors.New("unknown capability")

	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")

	ErrThreadNotFound = errors.New("thread not found")
	ErrNotParticipant = errors.New("sender is not a thread participant")

	ErrLeadNotFound      = errors.New("lead not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrValidation = errors.New("validation failed")
)
