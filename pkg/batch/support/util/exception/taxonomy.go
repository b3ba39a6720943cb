package exception

import (
	"errors"
	"strings"
)

// Error class names registered with the error registry. Configuration errors
// are fatal to the execution, validation errors are confined to single records
// and counted toward the error threshold, and infrastructure errors fail the
// execution while leaving it restartable.
const (
	ConfigurationException   = "ConfigurationException"
	ValidationException      = "ValidationException"
	InfrastructureException  = "InfrastructureException"
	CycleDetectedException   = "CycleDetectedException"
	RequestConflictException = "RequestConflictException"
)

// Sentinels for the error classes. They sit inside the unwrap chain of every
// BatchError created by the class constructors below, so errors.Is works
// across component boundaries.
var (
	ErrConfiguration   = errors.New(ConfigurationException)
	ErrValidation      = errors.New(ValidationException)
	ErrInfrastructure  = errors.New(InfrastructureException)
	ErrCycleDetected   = errors.New(CycleDetectedException)
	ErrRequestConflict = errors.New(RequestConflictException)
)

func init() {
	RegisterErrorType(ConfigurationException, ErrConfiguration)
	RegisterErrorType(ValidationException, ErrValidation)
	RegisterErrorType(InfrastructureException, ErrInfrastructure)
	RegisterErrorType(CycleDetectedException, ErrCycleDetected)
	RegisterErrorType(RequestConflictException, ErrRequestConflict)
}

// joinSentinel wraps originalErr together with the class sentinel so the
// sentinel survives in the unwrap chain.
func joinSentinel(sentinel error, originalErr error) error {
	if originalErr == nil {
		return sentinel
	}
	return errors.Join(sentinel, originalErr)
}

// NewConfigurationError creates a fatal configuration error.
// Configuration errors are never retried automatically and never skipped.
func NewConfigurationError(module, message string, originalErr error) *BatchError {
	return NewBatchError(module, message, joinSentinel(ErrConfiguration, originalErr), false, false)
}

// NewValidationError creates a per-record validation error.
// The record is routed to the failed list and the execution continues.
func NewValidationError(module, message string, originalErr error) *BatchError {
	return NewBatchError(module, message, joinSentinel(ErrValidation, originalErr), true, false)
}

// NewInfrastructureError creates an infrastructure error. The execution fails
// but remains restartable once the underlying resource recovers.
func NewInfrastructureError(module, message string, originalErr error) *BatchError {
	return NewBatchError(module, message, joinSentinel(ErrInfrastructure, originalErr), false, true)
}

// NewRequestConflictError reports that an idempotency key was reused with a
// different request fingerprint. The cached result must not be served.
func NewRequestConflictError(module, message string) *BatchError {
	return NewBatchError(module, message, ErrRequestConflict, false, false)
}

// CycleError reports a dependency cycle among transaction types. It carries
// the member codes so an operator can locate the offending configuration.
type CycleError struct {
	// Members holds the transaction type codes participating in the cycle,
	// in traversal order starting from the smallest code.
	Members []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "dependency cycle detected: " + strings.Join(e.Members, " -> ")
}

// Is marks CycleError as both a cycle error and a configuration error.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected || target == ErrConfiguration
}

// NewCycleError creates a configuration error naming the cycle members.
func NewCycleError(module string, members []string) *BatchError {
	cause := &CycleError{Members: members}
	return NewBatchError(module, cause.Error(), cause, false, false)
}

// CycleMembers extracts the cycle member codes from an error chain.
// Returns nil when the chain contains no CycleError.
func CycleMembers(err error) []string {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Members
	}
	return nil
}

// IsConfigurationError reports whether an error is fatal to the execution by
// configuration (including detected cycles).
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsValidationError reports whether an error is a per-record validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInfrastructureError reports whether an error is a restartable infrastructure failure.
func IsInfrastructureError(err error) bool {
	return errors.Is(err, ErrInfrastructure)
}

// IsCycleDetected reports whether an error chain contains a dependency cycle.
func IsCycleDetected(err error) bool {
	return errors.Is(err, ErrCycleDetected)
}

// IsRequestConflict reports whether an error is an idempotency fingerprint conflict.
func IsRequestConflict(err error) bool {
	return errors.Is(err, ErrRequestConflict)
}
