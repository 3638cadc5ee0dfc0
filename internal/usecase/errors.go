package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// Business-rule rejections surfaced verbatim to the user.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSlotsFull         = errors.New("roster slots full")

	// ErrInvariantViolation marks states that must never be silently
	// corrected; the triggering transaction aborts and the error surfaces
	// as a 500-equivalent.
	ErrInvariantViolation = errors.New("invariant violation")
)
