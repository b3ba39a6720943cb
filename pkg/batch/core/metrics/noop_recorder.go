package metrics

import (
	"context"
	"time"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

// RecordExecutionStart does nothing.
func (r *NoOpMetricRecorder) RecordExecutionStart(ctx context.Context, execution *model.JobExecution) {
}

// RecordExecutionEnd does nothing.
func (r *NoOpMetricRecorder) RecordExecutionEnd(ctx context.Context, execution *model.JobExecution) {}

// RecordPartitionStart does nothing.
func (r *NoOpMetricRecorder) RecordPartitionStart(ctx context.Context, transactionType string, wave int) {
}

// RecordPartitionEnd does nothing.
func (r *NoOpMetricRecorder) RecordPartitionEnd(ctx context.Context, transactionType string, result *model.PartitionResult) {
}

// RecordStaged does nothing.
func (r *NoOpMetricRecorder) RecordStaged(ctx context.Context, transactionType string, count int) {}

// RecordProcessed does nothing.
func (r *NoOpMetricRecorder) RecordProcessed(ctx context.Context, transactionType string) {}

// RecordFailed does nothing.
func (r *NoOpMetricRecorder) RecordFailed(ctx context.Context, transactionType string, reason string) {
}

// RecordChunkCommit does nothing.
func (r *NoOpMetricRecorder) RecordChunkCommit(ctx context.Context, transactionType string, count int) {
}

// RecordDuration does nothing.
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

// StartExecutionSpan returns the context unchanged.
func (t *NoOpTracer) StartExecutionSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func()) {
	return ctx, func() {}
}

// StartPartitionSpan returns the context unchanged.
func (t *NoOpTracer) StartPartitionSpan(ctx context.Context, execution *model.JobExecution, transactionType string) (context.Context, func()) {
	return ctx, func() {}
}

// RecordError does nothing.
func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

// RecordEvent does nothing.
func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
