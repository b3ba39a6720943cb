package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"

	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	metrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// MetricEvent represents a metric event to be recorded asynchronously.
type MetricEvent struct {
	Type            string
	Execution       *model.JobExecution
	TransactionType string
	Wave            int
	Result          *model.PartitionResult
	Count           int
	Reason          string
	Name            string
	Duration        time.Duration
	Tags            map[string]string
}

// Metric event type constants
const (
	MetricEventTypeExecutionStart = "execution_start"
	MetricEventTypeExecutionEnd   = "execution_end"
	MetricEventTypePartitionStart = "partition_start"
	MetricEventTypePartitionEnd   = "partition_end"
	MetricEventTypeStaged         = "staged"
	MetricEventTypeProcessed      = "processed"
	MetricEventTypeFailed         = "failed"
	MetricEventTypeChunkCommit    = "chunk_commit"
	MetricEventTypeRecordDuration = "record_duration"
)

// AsyncMetricRecorder asynchronously records metrics by pushing events to a channel
// and processing them in a separate goroutine.
type AsyncMetricRecorder struct {
	eventQueue   chan MetricEvent
	stopCh       chan struct{}
	wg           sync.WaitGroup
	syncRecorder metrics.MetricRecorder // The concrete instance that performs actual metric recording
}

// NewAsyncMetricRecorder creates a new asynchronous metric recorder.
// bufferSize: The buffer size for the event queue. If 0 or less, a default value is used.
// syncRec: The synchronous recorder that performs the actual metric recording.
func NewAsyncMetricRecorder(bufferSize int, syncRec metrics.MetricRecorder) *AsyncMetricRecorder {
	if bufferSize <= 0 {
		bufferSize = 100 // Default buffer size
	}
	r := &AsyncMetricRecorder{
		eventQueue:   make(chan MetricEvent, bufferSize),
		stopCh:       make(chan struct{}),
		syncRecorder: syncRec,
	}
	r.wg.Add(1)
	go r.run() // Start the worker goroutine
	logger.Debugf("AsyncMetricRecorder: Worker goroutine started (buffer size: %d).", bufferSize)
	return r
}

// run is the worker goroutine that reads events from the event queue and processes them with the synchronous recorder.
func (r *AsyncMetricRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.eventQueue:
			r.processEvent(event)
		case <-r.stopCh:
			// Upon receiving a stop signal, process all remaining events in the queue before exiting.
			remainingEvents := len(r.eventQueue)
			for i := 0; i < remainingEvents; i++ {
				event := <-r.eventQueue
				r.processEvent(event)
			}
			logger.Debugf("AsyncMetricRecorder: Worker goroutine stopped. Processed %d remaining events.", remainingEvents)
			return
		}
	}
}

// processEvent processes the received metric event.
func (r *AsyncMetricRecorder) processEvent(event MetricEvent) {
	// A new background context is used here because the event payload does not carry the original context.
	ctx := context.Background()
	switch event.Type {
	case MetricEventTypeExecutionStart:
		r.syncRecorder.RecordExecutionStart(ctx, event.Execution)
	case MetricEventTypeExecutionEnd:
		r.syncRecorder.RecordExecutionEnd(ctx, event.Execution)
	case MetricEventTypePartitionStart:
		r.syncRecorder.RecordPartitionStart(ctx, event.TransactionType, event.Wave)
	case MetricEventTypePartitionEnd:
		r.syncRecorder.RecordPartitionEnd(ctx, event.TransactionType, event.Result)
	case MetricEventTypeStaged:
		r.syncRecorder.RecordStaged(ctx, event.TransactionType, event.Count)
	case MetricEventTypeProcessed:
		r.syncRecorder.RecordProcessed(ctx, event.TransactionType)
	case MetricEventTypeFailed:
		r.syncRecorder.RecordFailed(ctx, event.TransactionType, event.Reason)
	case MetricEventTypeChunkCommit:
		r.syncRecorder.RecordChunkCommit(ctx, event.TransactionType, event.Count)
	case MetricEventTypeRecordDuration:
		r.syncRecorder.RecordDuration(ctx, event.Name, event.Duration, event.Tags)
	default:
		logger.Warnf("AsyncMetricRecorder: Unknown metric event type: %s", event.Type)
	}
}

// Close gracefully stops the recorder and processes all remaining events in the queue.
func (r *AsyncMetricRecorder) Close() {
	logger.Debugf("AsyncMetricRecorder: Sending shutdown signal...")
	close(r.stopCh) // Send stop signal
	r.wg.Wait()     // Wait for the worker goroutine to finish
	logger.Debugf("AsyncMetricRecorder: Shutdown complete.")
}

// sendEvent sends an event to the queue, logging a warning if the queue is full.
func (r *AsyncMetricRecorder) sendEvent(event MetricEvent, id string) {
	select {
	case r.eventQueue <- event:
		// Event added to queue
	default:
		logger.Warnf("AsyncMetricRecorder: Event queue is full (type: %s, ID: %s). Event discarded.", event.Type, id)
	}
}

// RecordExecutionStart asynchronously records the start event of a JobExecution.
func (r *AsyncMetricRecorder) RecordExecutionStart(ctx context.Context, execution *model.JobExecution) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeExecutionStart, Execution: execution}, execution.ID)
}

// RecordExecutionEnd asynchronously records the end event of a JobExecution.
func (r *AsyncMetricRecorder) RecordExecutionEnd(ctx context.Context, execution *model.JobExecution) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeExecutionEnd, Execution: execution}, execution.ID)
}

// RecordPartitionStart asynchronously records the dispatch of one partition.
func (r *AsyncMetricRecorder) RecordPartitionStart(ctx context.Context, transactionType string, wave int) {
	r.sendEvent(MetricEvent{Type: MetricEventTypePartitionStart, TransactionType: transactionType, Wave: wave}, transactionType)
}

// RecordPartitionEnd asynchronously records the completion of one partition.
func (r *AsyncMetricRecorder) RecordPartitionEnd(ctx context.Context, transactionType string, result *model.PartitionResult) {
	r.sendEvent(MetricEvent{Type: MetricEventTypePartitionEnd, TransactionType: transactionType, Result: result}, transactionType)
}

// RecordStaged asynchronously records staged source rows.
func (r *AsyncMetricRecorder) RecordStaged(ctx context.Context, transactionType string, count int) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeStaged, TransactionType: transactionType, Count: count}, transactionType)
}

// RecordProcessed asynchronously records one successfully transformed record.
func (r *AsyncMetricRecorder) RecordProcessed(ctx context.Context, transactionType string) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeProcessed, TransactionType: transactionType}, transactionType)
}

// RecordFailed asynchronously records one rejected record.
func (r *AsyncMetricRecorder) RecordFailed(ctx context.Context, transactionType string, reason string) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeFailed, TransactionType: transactionType, Reason: reason}, transactionType)
}

// RecordChunkCommit asynchronously records the completion of one chunk.
func (r *AsyncMetricRecorder) RecordChunkCommit(ctx context.Context, transactionType string, count int) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeChunkCommit, TransactionType: transactionType, Count: count}, transactionType)
}

// RecordDuration asynchronously records the execution time event of a named operation.
func (r *AsyncMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeRecordDuration, Name: name, Duration: duration, Tags: tags}, name)
}

// Ensures AsyncMetricRecorder implements the metrics.MetricRecorder interface at compile time.
var _ metrics.MetricRecorder = (*AsyncMetricRecorder)(nil)

// NewAsyncMetricRecorderWrapper wraps a synchronous recorder in the
// asynchronous queue and ties its drain to the application lifecycle.
func NewAsyncMetricRecorderWrapper(lc fx.Lifecycle, cfg *config.Config, syncRecorder metrics.MetricRecorder) metrics.MetricRecorder {
	// If metrics_async_buffer_size is not set or is 0 or less, the default of 100 applies.
	bufferSize := cfg.Fabric.Batch.MetricsAsyncBufferSize
	asyncRecorder := NewAsyncMetricRecorder(bufferSize, syncRecorder)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			asyncRecorder.Close()
			return nil
		},
	})
	logger.Debugf("MetricRecorder decorated with asynchronous wrapper.")
	return asyncRecorder
}
