package api

import (
	"fmt"
	"time"

	"github.com/serviya/serviya-go/internal/common"
)

// Error is a structured server-returned error: status code, canonical
// message, and the raw error payload for caller-specific handling.
// It unwraps to one of the common sentinel errors, so callers branch with
// errors.Is instead of switching on concrete types.
type Error struct {
	Status    int
	Message   string
	Payload   Body
	RateLimit *RateLimit // non-nil only for 429 responses

	kind error
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.kind
}

// RateLimit carries the structured 429 metadata the backend returns.
type RateLimit struct {
	// RetryAfter comes from the "tiempo_espera" field (seconds).
	RetryAfter time.Duration
	// Type is the "tipo" field (which limiter fired).
	Type string
	// BlockedUntil is the raw "bloqueado_hasta" timestamp.
	BlockedUntil string
	// Blocked mirrors the "bloqueado" flag.
	Blocked bool
}

// ValidationError reports a local file that failed upload pre-flight checks.
// It is raised before any network I/O and names the offending form field.
type ValidationError struct {
	Field  string
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid file for field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidation
}

// TransientError is a timeout or connectivity failure, surfaced only after
// automatic retries are exhausted. Attempts is the number of sends tried.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
