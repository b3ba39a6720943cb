package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// Helper to create a JobExecution pinned to a given status.
func newTestExecution(status model.ExecutionStatus) *model.JobExecution {
	je := model.NewJobExecution("testJob", "2025-08-25", model.ProcessingModeSimple, model.NewExecutionParameters())
	je.Status = status
	return je
}

func TestJobExecution_TransitionTo(t *testing.T) {
	// Valid transitions
	je := newTestExecution(model.ExecutionStatusStarted)
	assert.NoError(t, je.TransitionTo(model.ExecutionStatusRunning))
	assert.Equal(t, model.ExecutionStatusRunning, je.Status)

	// STARTED -> FAILED (setup failed before any work was dispatched)
	je = newTestExecution(model.ExecutionStatusStarted)
	assert.NoError(t, je.TransitionTo(model.ExecutionStatusFailed))
	assert.Equal(t, model.ExecutionStatusFailed, je.Status)

	// STARTED -> STOPPED (cancelled before any work was dispatched)
	je = newTestExecution(model.ExecutionStatusStarted)
	assert.NoError(t, je.TransitionTo(model.ExecutionStatusStopped))
	assert.Equal(t, model.ExecutionStatusStopped, je.Status)

	je = newTestExecution(model.ExecutionStatusRunning)
	assert.NoError(t, je.TransitionTo(model.ExecutionStatusCompleted))
	assert.Equal(t, model.ExecutionStatusCompleted, je.Status)

	je = newTestExecution(model.ExecutionStatusRunning)
	assert.NoError(t, je.TransitionTo(model.ExecutionStatusFailed))
	assert.Equal(t, model.ExecutionStatusFailed, je.Status)

	je = newTestExecution(model.ExecutionStatusRunning)
	assert.NoError(t, je.TransitionTo(model.ExecutionStatusStopped))
	assert.Equal(t, model.ExecutionStatusStopped, je.Status)

	// --- Invalid Transitions ---

	// STARTED -> COMPLETED (must pass through RUNNING)
	je = newTestExecution(model.ExecutionStatusStarted)
	err := je.TransitionTo(model.ExecutionStatusCompleted)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid state transition")

	// Terminal states never transition again.
	for _, terminal := range []model.ExecutionStatus{
		model.ExecutionStatusCompleted,
		model.ExecutionStatusFailed,
		model.ExecutionStatusStopped,
	} {
		je = newTestExecution(terminal)
		err = je.TransitionTo(model.ExecutionStatusRunning)
		assert.Error(t, err, "expected %s -> RUNNING to be rejected", terminal)
		assert.Contains(t, err.Error(), "Invalid state transition")
		assert.Equal(t, terminal, je.Status)
	}

	// FAILED -> FAILED (self-transition is invalid)
	je = newTestExecution(model.ExecutionStatusFailed)
	err = je.TransitionTo(model.ExecutionStatusFailed)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid state transition")
}

func TestExecutionStatus_IsFinished(t *testing.T) {
	tests := map[model.ExecutionStatus]bool{
		model.ExecutionStatusStarted:   false,
		model.ExecutionStatusRunning:   false,
		model.ExecutionStatusCompleted: true,
		model.ExecutionStatusFailed:    true,
		model.ExecutionStatusStopped:   true,
		model.ExecutionStatusUnknown:   false,
	}
	for status, expected := range tests {
		assert.Equal(t, expected, status.IsFinished(), "IsFinished(%s)", status)
	}
}

func TestExecutionStatus_IsRestartable(t *testing.T) {
	tests := map[model.ExecutionStatus]bool{
		model.ExecutionStatusStarted:   false,
		model.ExecutionStatusRunning:   false,
		model.ExecutionStatusCompleted: false,
		model.ExecutionStatusFailed:    true,
		model.ExecutionStatusStopped:   true,
	}
	for status, expected := range tests {
		assert.Equal(t, expected, status.IsRestartable(), "IsRestartable(%s)", status)
	}
}

func TestJobExecution_MarkStatusHelpers(t *testing.T) {
	je := newTestExecution(model.ExecutionStatusStarted)
	initialLastUpdated := je.LastUpdated

	// MarkAsRunning
	time.Sleep(1 * time.Millisecond) // Ensure time advances
	je.MarkAsRunning()
	assert.Equal(t, model.ExecutionStatusRunning, je.Status)
	assert.True(t, je.LastUpdated.After(initialLastUpdated))
	initialLastUpdated = je.LastUpdated

	// MarkAsCompleted
	time.Sleep(1 * time.Millisecond)
	je.MarkAsCompleted()
	assert.Equal(t, model.ExecutionStatusCompleted, je.Status)
	assert.NotNil(t, je.EndTime)
	assert.True(t, je.LastUpdated.After(initialLastUpdated))

	// MarkAsFailed
	je = newTestExecution(model.ExecutionStatusRunning)
	time.Sleep(1 * time.Millisecond)
	testErr := errors.New("test failure")
	je.MarkAsFailed(testErr)
	assert.Equal(t, model.ExecutionStatusFailed, je.Status)
	assert.NotNil(t, je.EndTime)
	assert.Len(t, je.Failures, 1)
	assert.Equal(t, model.FailureInfrastructure, je.FailureClass)

	// MarkAsStopped
	je = newTestExecution(model.ExecutionStatusRunning)
	je.MarkAsStopped()
	assert.Equal(t, model.ExecutionStatusStopped, je.Status)
	assert.NotNil(t, je.EndTime)
}

func TestJobExecution_MarkAsFailed_ClassifiesConfigurationErrors(t *testing.T) {
	je := newTestExecution(model.ExecutionStatusStarted)
	je.MarkAsFailed(exception.NewConfigurationError("jobdef", "duplicate position 3", nil))
	assert.Equal(t, model.ExecutionStatusFailed, je.Status)
	assert.Equal(t, model.FailureConfiguration, je.FailureClass)
}

func TestJobExecution_MarkAsThresholdExceeded(t *testing.T) {
	je := newTestExecution(model.ExecutionStatusRunning)
	je.MarkAsThresholdExceeded(3, 10, 10.0)

	assert.Equal(t, model.ExecutionStatusFailed, je.Status)
	assert.Equal(t, model.FailureThresholdExceeded, je.FailureClass)
	require.Len(t, je.Failures, 1)
	assert.Contains(t, je.Failures[0], "exceeds threshold")
}

func TestJobExecution_AddFailureException_Deduplication(t *testing.T) {
	je := newTestExecution(model.ExecutionStatusRunning)
	err1 := errors.New("database connection failed")
	err2 := errors.New("database connection failed")
	err3 := errors.New("another error")

	je.AddFailureException(err1)
	assert.Len(t, je.Failures, 1)

	je.AddFailureException(err2) // Duplicate
	assert.Len(t, je.Failures, 1)

	je.AddFailureException(err3) // New error
	assert.Len(t, je.Failures, 2)
	assert.Equal(t, "database connection failed", je.Failures[0])
	assert.Equal(t, "another error", je.Failures[1])
}

func TestJobExecution_AccumulateCounts(t *testing.T) {
	je := newTestExecution(model.ExecutionStatusRunning)

	settle := model.NewPartitionResult(model.TransactionType{Code: "SETTLE"})
	settle.Succeeded = append(settle.Succeeded,
		model.OutputRecord{TransactionType: "SETTLE", Sequence: 1},
		model.OutputRecord{TransactionType: "SETTLE", Sequence: 2})
	settle.Failed = append(settle.Failed,
		model.FailedRecord{TransactionType: "SETTLE", Sequence: 3, Reason: "required field empty"})

	fee := model.NewPartitionResult(model.TransactionType{Code: "FEE"})
	fee.Succeeded = append(fee.Succeeded, model.OutputRecord{TransactionType: "FEE", Sequence: 4})

	je.AccumulateCounts(settle)
	je.AccumulateCounts(fee)
	je.AccumulateCounts(nil) // Ignored

	assert.Equal(t, 4, je.TotalCount)
	assert.Equal(t, 3, je.ProcessedCount)
	assert.Equal(t, 1, je.ErrorCount)
}

func TestJobExecution_IncrementRestartCount(t *testing.T) {
	je := newTestExecution(model.ExecutionStatusStarted)
	assert.Equal(t, 0, je.RestartCount)

	je.IncrementRestartCount()
	je.IncrementRestartCount()
	assert.Equal(t, 2, je.RestartCount)
}

func TestExecutionParameters_Accessors(t *testing.T) {
	params := model.NewExecutionParameters()
	params.Put("businessDate", "2025-08-25")
	params.Put("chunkSize", 25)
	params.Put("ratio", 0.5)
	params.Put("dryRun", true)

	str, ok := params.GetString("businessDate")
	assert.True(t, ok)
	assert.Equal(t, "2025-08-25", str)

	i, ok := params.GetInt("chunkSize")
	assert.True(t, ok)
	assert.Equal(t, 25, i)

	b, ok := params.GetBool("dryRun")
	assert.True(t, ok)
	assert.True(t, b)

	// Absent and mistyped keys
	_, ok = params.GetString("missing")
	assert.False(t, ok)
	_, ok = params.GetInt("businessDate")
	assert.False(t, ok)
	assert.Nil(t, params.Get("missing"))

	// Numbers decoded from JSON arrive as float64 and still read as int.
	params.Put("fromJSON", float64(42))
	i, ok = params.GetInt("fromJSON")
	assert.True(t, ok)
	assert.Equal(t, 42, i)
}

// TestExecutionParameters_HashIsOrderIndependent verifies that the fingerprint
// depends only on parameter content, not on insertion order, so identical
// requests always produce identical idempotency fingerprints.
func TestExecutionParameters_HashIsOrderIndependent(t *testing.T) {
	a := model.NewExecutionParameters()
	a.Put("businessDate", "2025-08-25")
	a.Put("jobName", "daily-settlement")

	b := model.NewExecutionParameters()
	b.Put("jobName", "daily-settlement")
	b.Put("businessDate", "2025-08-25")

	hashA, err := a.Hash()
	require.NoError(t, err)
	hashB, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
	assert.True(t, a.Equal(b))

	// Any change to content changes the fingerprint.
	b.Put("businessDate", "2025-08-26")
	hashC, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashC)
	assert.False(t, a.Equal(b))
}

func TestExecutionParameters_ScanEmptyValues(t *testing.T) {
	var params model.ExecutionParameters
	require.NoError(t, params.Scan(nil))
	assert.NotNil(t, params.Params)
	assert.Empty(t, params.Params)

	require.NoError(t, params.Scan(`{"businessDate":"2025-08-25"}`))
	str, ok := params.GetString("businessDate")
	assert.True(t, ok)
	assert.Equal(t, "2025-08-25", str)
}

func TestIdempotencyRecord_TransitionTo(t *testing.T) {
	rec := model.NewIdempotencyRecord("daily-settlement:2025-08-25", "fp-1")
	assert.Equal(t, model.IdempotencyStatusPending, rec.Status)

	// PENDING -> IN_PROGRESS -> COMPLETED
	require.NoError(t, rec.TransitionTo(model.IdempotencyStatusInProgress))
	require.NoError(t, rec.TransitionTo(model.IdempotencyStatusCompleted))
	assert.True(t, rec.Status.IsTerminal())

	// COMPLETED is final.
	err := rec.TransitionTo(model.IdempotencyStatusInProgress)
	assert.Error(t, err)
	assert.Equal(t, model.IdempotencyStatusCompleted, rec.Status)

	// FAILED may re-enter IN_PROGRESS for a retry.
	rec = model.NewIdempotencyRecord("daily-settlement:2025-08-26", "fp-2")
	require.NoError(t, rec.TransitionTo(model.IdempotencyStatusInProgress))
	require.NoError(t, rec.TransitionTo(model.IdempotencyStatusFailed))
	require.NoError(t, rec.TransitionTo(model.IdempotencyStatusInProgress))
	assert.Equal(t, model.IdempotencyStatusInProgress, rec.Status)

	// PENDING may not jump straight to COMPLETED.
	rec = model.NewIdempotencyRecord("daily-settlement:2025-08-27", "fp-3")
	err = rec.TransitionTo(model.IdempotencyStatusCompleted)
	assert.Error(t, err)
	assert.Equal(t, model.IdempotencyStatusPending, rec.Status)
}

func TestIdempotencyRecord_IsExpired(t *testing.T) {
	now := time.Now()
	rec := model.NewIdempotencyRecord("key", "fp")

	// No expiry set.
	assert.False(t, rec.IsExpired(now))

	past := now.Add(-time.Hour)
	rec.ExpiresAt = &past
	assert.True(t, rec.IsExpired(now))

	future := now.Add(time.Hour)
	rec.ExpiresAt = &future
	assert.False(t, rec.IsExpired(now))
}

func TestCompareTransactionTypes(t *testing.T) {
	settle := model.TransactionType{Code: "SETTLE", ProcessingOrder: 1}
	fee := model.TransactionType{Code: "FEE", ProcessingOrder: 2}
	adjust := model.TransactionType{Code: "ADJUST", ProcessingOrder: 2}

	assert.Negative(t, model.CompareTransactionTypes(settle, fee))
	assert.Positive(t, model.CompareTransactionTypes(fee, settle))

	// Same order hint falls back to code order.
	assert.Negative(t, model.CompareTransactionTypes(adjust, fee))
	assert.Zero(t, model.CompareTransactionTypes(fee, fee))

	types := []model.TransactionType{fee, settle, adjust}
	model.SortTransactionTypes(types)
	assert.Equal(t, []string{"SETTLE", "ADJUST", "FEE"}, []string{types[0].Code, types[1].Code, types[2].Code})
}

func TestClassifyFailure(t *testing.T) {
	assert.Equal(t, model.FailureNone, model.ClassifyFailure(nil))
	assert.Equal(t, model.FailureConfiguration,
		model.ClassifyFailure(exception.NewConfigurationError("jobdef", "bad mapping", nil)))
	assert.Equal(t, model.FailureInfrastructure,
		model.ClassifyFailure(exception.NewInfrastructureError("repository", "connection lost", nil)))
	// Unclassified errors default to infrastructure so the execution stays restartable.
	assert.Equal(t, model.FailureInfrastructure, model.ClassifyFailure(errors.New("boom")))
}

func TestParseProcessingMode(t *testing.T) {
	mode, err := model.ParseProcessingMode("simple")
	require.NoError(t, err)
	assert.Equal(t, model.ProcessingModeSimple, mode)

	mode, err = model.ParseProcessingMode("  COMPLEX  ")
	require.NoError(t, err)
	assert.Equal(t, model.ProcessingModeComplex, mode)

	_, err = model.ParseProcessingMode("TURBO")
	assert.Error(t, err)
}

func TestPayload_Copy(t *testing.T) {
	original := model.Payload{"account_number": "10012345", "amount": "1250.00"}
	copied := original.Copy()
	copied["amount"] = "0.00"

	assert.Equal(t, "1250.00", original["amount"])
	assert.Equal(t, "0.00", copied["amount"])
}

func TestPartitionResult_RecordCount(t *testing.T) {
	result := model.NewPartitionResult(model.TransactionType{Code: "SETTLE"})
	assert.Zero(t, result.RecordCount())

	result.Succeeded = append(result.Succeeded, model.OutputRecord{Sequence: 1})
	result.Failed = append(result.Failed, model.FailedRecord{Sequence: 2})
	assert.Equal(t, 2, result.RecordCount())
}
