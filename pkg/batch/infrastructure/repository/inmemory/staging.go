package inmemory

import (
	"context"
	"sort"
	"time"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
)

// cloneStagingRecord copies a StagingRecord including its payload map.
func cloneStagingRecord(sr *model.StagingRecord) *model.StagingRecord {
	cloned := *sr
	cloned.Payload = sr.Payload.Copy()
	if sr.ProcessedAt != nil {
		processedAt := *sr.ProcessedAt
		cloned.ProcessedAt = &processedAt
	}
	return &cloned
}

// InsertStagingRecord persists the record and assigns its sequence number from
// the per-execution counter. The counter is advanced under the repository lock,
// so concurrent inserts for the same execution never observe a duplicate.
func (r *InMemoryBatchRepository) InsertStagingRecord(ctx context.Context, record *model.StagingRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequences[record.ExecutionID]++
	record.Sequence = r.sequences[record.ExecutionID]
	r.stagingRecords[record.ID] = cloneStagingRecord(record)
	return record.Sequence, nil
}

// MarkDependencyMet flips the dependency-satisfied flag on all records of the
// given transaction type within the execution.
func (r *InMemoryBatchRepository) MarkDependencyMet(ctx context.Context, executionID, transactionType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sr := range r.stagingRecords {
		if sr.ExecutionID == executionID && sr.TransactionType == transactionType {
			sr.DependencyMet = true
		}
	}
	return nil
}

// FetchReadyStagingRecords returns the unprocessed, dependency-satisfied records
// of a transaction type ordered by sequence ascending. The result is stable:
// repeating the call without intervening writes returns the same sequence.
func (r *InMemoryBatchRepository) FetchReadyStagingRecords(ctx context.Context, executionID, transactionType string) ([]*model.StagingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ready []*model.StagingRecord
	for _, sr := range r.stagingRecords {
		if sr.ExecutionID == executionID && sr.TransactionType == transactionType && sr.DependencyMet && !sr.Processed {
			ready = append(ready, cloneStagingRecord(sr))
		}
	}

	sort.Slice(ready, func(i, j int) bool {
		return ready[i].Sequence < ready[j].Sequence
	})

	return ready, nil
}

// MarkStagingProcessed flips the processed flag and stamps the processing time.
// It returns ErrStagingRecordNotFound if the record does not exist.
func (r *InMemoryBatchRepository) MarkStagingProcessed(ctx context.Context, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sr, ok := r.stagingRecords[recordID]
	if !ok {
		return repository.ErrStagingRecordNotFound
	}
	now := time.Now()
	sr.Processed = true
	sr.ProcessedAt = &now
	return nil
}

// MarkStagingError records a per-record failure message. The record also counts
// as processed so it is not fetched again by a later FetchReadyStagingRecords.
// It returns ErrStagingRecordNotFound if the record does not exist.
func (r *InMemoryBatchRepository) MarkStagingError(ctx context.Context, recordID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sr, ok := r.stagingRecords[recordID]
	if !ok {
		return repository.ErrStagingRecordNotFound
	}
	now := time.Now()
	sr.Processed = true
	sr.HasError = true
	sr.ErrorMessage = message
	sr.ProcessedAt = &now
	return nil
}

// CountStagingRecords returns the number of records held for an execution.
func (r *InMemoryBatchRepository) CountStagingRecords(ctx context.Context, executionID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, sr := range r.stagingRecords {
		if sr.ExecutionID == executionID {
			count++
		}
	}
	return count, nil
}

// ListStagingRecords returns every record of an execution ordered by sequence
// ascending, including processed and failed records.
func (r *InMemoryBatchRepository) ListStagingRecords(ctx context.Context, executionID string) ([]*model.StagingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*model.StagingRecord
	for _, sr := range r.stagingRecords {
		if sr.ExecutionID == executionID {
			records = append(records, cloneStagingRecord(sr))
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Sequence < records[j].Sequence
	})

	return records, nil
}

// PurgeStagingRecords removes all records of an execution and returns the
// number removed. Purging an execution without records is a no-op returning
// zero, so the call is idempotent.
func (r *InMemoryBatchRepository) PurgeStagingRecords(ctx context.Context, executionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, sr := range r.stagingRecords {
		if sr.ExecutionID == executionID {
			delete(r.stagingRecords, id)
			removed++
		}
	}
	delete(r.sequences, executionID)
	return removed, nil
}
