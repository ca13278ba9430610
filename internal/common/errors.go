// Package common defines shared constants and sentinel errors used across the
// Serviya client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Transport-level errors.
	ErrUnavailable = errors.New("server unavailable")
	ErrTimeout     = errors.New("request timed out")

	// Auth errors.
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")
	ErrForbidden      = errors.New("forbidden")

	// Server-side errors.
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrServer      = errors.New("server error")

	// Local errors.
	ErrValidation = errors.New("validation failed")
	ErrInternal   = errors.New("internal error")
)
