// Package common defines shared constants and sentinel errors used across
// LegacyLink layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrPersistence marks a storage failure that happened inside a sweep unit.
	ErrPersistence = errors.New("persistence error")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// ErrInvalidState is returned when a record is not in the state an
	// operation requires (e.g. verifying an already declined trustee).
	ErrInvalidState = errors.New("invalid state")

	// ErrNotificationDelivery wraps notifier failures.
	ErrNotificationDelivery = errors.New("notification delivery failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
