package repository

import (
	"context"
	"errors"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// ErrStagingRecordNotFound is the error returned when a staging record is not found.
var ErrStagingRecordNotFound = errors.New("staging record not found")

func init() {
	// Register the error type in the registry at startup.
	exception.RegisterErrorType("ErrStagingRecordNotFound", ErrStagingRecordNotFound)
}

// Staging defines the durable holding area for records awaiting sequenced
// processing. Sequence numbers are monotonic and unique per execution; they
// are assigned from a single per-execution counter so concurrent inserts can
// never produce duplicates.
type Staging interface {
	// InsertStagingRecord persists the record, assigns its sequence number,
	// and returns it. The record's Sequence field is set on return.
	InsertStagingRecord(ctx context.Context, record *model.StagingRecord) (int64, error)

	// MarkDependencyMet flips the dependency-satisfied flag on all records of
	// the given transaction type within the execution.
	MarkDependencyMet(ctx context.Context, executionID, transactionType string) error

	// FetchReadyStagingRecords returns the unprocessed, dependency-satisfied
	// records of a transaction type ordered by sequence ascending. Repeating
	// the call without intervening writes returns the same sequence.
	FetchReadyStagingRecords(ctx context.Context, executionID, transactionType string) ([]*model.StagingRecord, error)

	// MarkStagingProcessed flips the processed flag and stamps the processing time.
	MarkStagingProcessed(ctx context.Context, recordID string) error

	// MarkStagingError records a per-record failure message.
	MarkStagingError(ctx context.Context, recordID, message string) error

	// CountStagingRecords returns the number of records held for an execution.
	CountStagingRecords(ctx context.Context, executionID string) (int64, error)

	// ListStagingRecords returns every record of an execution ordered by
	// sequence ascending, regardless of processing state. Used to archive
	// retained records after a failed run.
	ListStagingRecords(ctx context.Context, executionID string) ([]*model.StagingRecord, error)

	// PurgeStagingRecords removes all records of a terminal execution and
	// returns the number removed. Purging an already-purged execution is a
	// no-op returning zero.
	PurgeStagingRecords(ctx context.Context, executionID string) (int64, error)
}
