package inmemory

import (
	"context"
	"fmt"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// cloneIdempotencyRecord copies an IdempotencyRecord including its result bytes.
func cloneIdempotencyRecord(rec *model.IdempotencyRecord) *model.IdempotencyRecord {
	cloned := *rec
	if rec.Result != nil {
		cloned.Result = make([]byte, len(rec.Result))
		copy(cloned.Result, rec.Result)
	}
	if rec.ProcessedAt != nil {
		processedAt := *rec.ProcessedAt
		cloned.ProcessedAt = &processedAt
	}
	if rec.ExpiresAt != nil {
		expiresAt := *rec.ExpiresAt
		cloned.ExpiresAt = &expiresAt
	}
	return &cloned
}

// CreateIdempotencyRecord persists a new record.
// It returns ErrIdempotencyKeyExists when the key is already present, which is
// how a concurrent first observation of the same key loses the claim race.
func (r *InMemoryBatchRepository) CreateIdempotencyRecord(ctx context.Context, record *model.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.idempotency[record.Key]; exists {
		return repository.ErrIdempotencyKeyExists
	}
	stored := cloneIdempotencyRecord(record)
	stored.Version = 1
	r.idempotency[record.Key] = stored
	record.Version = stored.Version
	return nil
}

// FindIdempotencyRecordByKey finds the record for a key.
// It returns ErrIdempotencyRecordNotFound when absent.
func (r *InMemoryBatchRepository) FindIdempotencyRecordByKey(ctx context.Context, key string) (*model.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.idempotency[key]
	if !ok {
		return nil, repository.ErrIdempotencyRecordNotFound
	}
	return cloneIdempotencyRecord(rec), nil
}

// UpdateIdempotencyRecord writes the record if its stored status still equals
// expectedStatus. A stale expectation means a concurrent writer moved the
// record first and surfaces as an OptimisticLockingFailureException.
func (r *InMemoryBatchRepository) UpdateIdempotencyRecord(ctx context.Context, record *model.IdempotencyRecord, expectedStatus model.IdempotencyStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.idempotency[record.Key]
	if !ok {
		return repository.ErrIdempotencyRecordNotFound
	}
	if current.Status != expectedStatus {
		return exception.NewOptimisticLockingFailureException(moduleName,
			fmt.Sprintf("idempotency record %s is %s while %s was expected", record.Key, current.Status, expectedStatus), nil)
	}
	stored := cloneIdempotencyRecord(record)
	stored.Version = current.Version + 1
	r.idempotency[record.Key] = stored
	record.Version = stored.Version
	return nil
}

// DeleteIdempotencyRecord removes the record for a key.
// Deleting an absent key is a no-op.
func (r *InMemoryBatchRepository) DeleteIdempotencyRecord(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.idempotency, key)
	return nil
}
