package domain

import "fmt"

// Error types for consistent error handling across the engine.

// ErrNotFound indicates a resource was not found. Callers must not assume
// a default value was substituted.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input). Rejected at the
// boundary, never silently defaulted.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrExternalService indicates a failure in the document store or another
// external dependency. Store errors propagate unchanged through the
// orchestration layer.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrResolutionDepth indicates the opening-balance resolver walked past its
// lookback cap without finding a recorded floor.
type ErrResolutionDepth struct {
	MonthPeriod string
	Depth       int
}

func (e *ErrResolutionDepth) Error() string {
	return fmt.Sprintf("opening balance for %s unresolvable: no recorded period within %d months", e.MonthPeriod, e.Depth)
}

// ErrPartialWrite indicates a multi-step write failed after the first step
// had already been applied. Step names which write failed so the caller can
// decide whether to retry or reconcile.
type ErrPartialWrite struct {
	Operation string
	Step      string
	Err       error
}

func (e *ErrPartialWrite) Error() string {
	return fmt.Sprintf("partial write in %s: step '%s' failed: %v", e.Operation, e.Step, e.Err)
}

func (e *ErrPartialWrite) Unwrap() error {
	return e.Err
}

// ErrUnauthorized indicates an invalid or missing bearer token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
