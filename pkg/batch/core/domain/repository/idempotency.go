package repository

import (
	"context"
	"errors"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// ErrIdempotencyRecordNotFound is the error returned when no record exists for a key.
var ErrIdempotencyRecordNotFound = errors.New("idempotency record not found")

// ErrIdempotencyKeyExists is the error returned when creating a record for a
// key that already has one.
var ErrIdempotencyKeyExists = errors.New("idempotency key already exists")

func init() {
	// Register the error types in the registry at startup.
	exception.RegisterErrorType("ErrIdempotencyRecordNotFound", ErrIdempotencyRecordNotFound)
	exception.RegisterErrorType("ErrIdempotencyKeyExists", ErrIdempotencyKeyExists)
}

// Idempotency defines the storage for idempotency records. Updates follow a
// compare-and-set discipline: an update names the status it expects, and a
// concurrent writer having moved the record first surfaces as an optimistic
// locking failure rather than a lost update.
type Idempotency interface {
	// CreateIdempotencyRecord persists a new record. Returns
	// ErrIdempotencyKeyExists when the key is already present.
	CreateIdempotencyRecord(ctx context.Context, record *model.IdempotencyRecord) error

	// FindIdempotencyRecordByKey finds the record for a key.
	// Returns ErrIdempotencyRecordNotFound when absent.
	FindIdempotencyRecordByKey(ctx context.Context, key string) (*model.IdempotencyRecord, error)

	// UpdateIdempotencyRecord writes the record if its stored status still
	// equals expectedStatus. A stale expectation surfaces as an
	// OptimisticLockingFailureException.
	UpdateIdempotencyRecord(ctx context.Context, record *model.IdempotencyRecord, expectedStatus model.IdempotencyStatus) error

	// DeleteIdempotencyRecord removes the record for a key. Deleting an
	// absent key is a no-op.
	DeleteIdempotencyRecord(ctx context.Context, key string) error
}

// IsOptimisticConflict reports whether an error from UpdateIdempotencyRecord
// means a concurrent writer moved the record first.
func IsOptimisticConflict(err error) bool {
	return exception.IsOptimisticLockingFailure(err)
}
