package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	metrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Execution Metrics
	executionDurationSeconds *prometheus.HistogramVec
	executionStatusCounter   *prometheus.CounterVec

	// Partition Metrics
	partitionStartedCounter   *prometheus.CounterVec
	partitionCompletedCounter *prometheus.CounterVec

	// Record Metrics
	stagedRecordsCounter    *prometheus.CounterVec
	processedRecordsCounter *prometheus.CounterVec
	failedRecordsCounter    *prometheus.CounterVec
	chunkCommitCounter      *prometheus.CounterVec

	// Generic Metrics
	operationDurationSeconds *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		executionDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batch_execution_duration_seconds",
			Help:    "Duration of batch executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status"}),
		executionStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_execution_status_total",
			Help: "Total number of batch executions by status.",
		}, []string{"job_name", "status"}),
		partitionStartedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_partition_started_total",
			Help: "Total partitions dispatched by transaction type and wave.",
		}, []string{"transaction_type", "wave"}),
		partitionCompletedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_partition_completed_total",
			Help: "Total partitions finished by transaction type.",
		}, []string{"transaction_type"}),
		stagedRecordsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_staged_records_total",
			Help: "Total source records staged by transaction type.",
		}, []string{"transaction_type"}),
		processedRecordsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_processed_records_total",
			Help: "Total records transformed successfully by transaction type.",
		}, []string{"transaction_type"}),
		failedRecordsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_failed_records_total",
			Help: "Total records rejected by transaction type and reason.",
		}, []string{"transaction_type", "reason"}),
		chunkCommitCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_chunk_commit_total",
			Help: "Total chunk commits by transaction type.",
		}, []string{"transaction_type"}),
		operationDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batch_operation_duration_seconds",
			Help:    "Duration of named engine operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"name"}),
	}

	// Register all metrics with the registry.
	registry.MustRegister(r.executionDurationSeconds)
	registry.MustRegister(r.executionStatusCounter)
	registry.MustRegister(r.partitionStartedCounter)
	registry.MustRegister(r.partitionCompletedCounter)
	registry.MustRegister(r.stagedRecordsCounter)
	registry.MustRegister(r.processedRecordsCounter)
	registry.MustRegister(r.failedRecordsCounter)
	registry.MustRegister(r.chunkCommitCounter)
	registry.MustRegister(r.operationDurationSeconds)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordExecutionStart records the start of a JobExecution.
func (r *PrometheusRecorder) RecordExecutionStart(ctx context.Context, execution *model.JobExecution) {
	r.executionStatusCounter.WithLabelValues(execution.JobName, string(execution.Status)).Inc()
	logger.Debugf("Metrics: Execution of job '%s' started.", execution.JobName)
}

// RecordExecutionEnd records the end of a JobExecution.
func (r *PrometheusRecorder) RecordExecutionEnd(ctx context.Context, execution *model.JobExecution) {
	if execution.EndTime == nil {
		return
	}
	duration := execution.EndTime.Sub(execution.StartTime).Seconds()

	r.executionStatusCounter.WithLabelValues(execution.JobName, string(execution.Status)).Inc()
	r.executionDurationSeconds.WithLabelValues(
		execution.JobName,
		string(execution.Status),
	).Observe(duration)

	logger.Debugf("Metrics: Execution of job '%s' ended. Duration: %.3fs", execution.JobName, duration)
}

// RecordPartitionStart records the dispatch of one partition.
func (r *PrometheusRecorder) RecordPartitionStart(ctx context.Context, transactionType string, wave int) {
	r.partitionStartedCounter.WithLabelValues(transactionType, strconv.Itoa(wave)).Inc()
}

// RecordPartitionEnd records the completion of one partition.
// Per-record outcomes are counted by RecordProcessed and RecordFailed as the
// partition runs, so only the completion itself is counted here.
func (r *PrometheusRecorder) RecordPartitionEnd(ctx context.Context, transactionType string, result *model.PartitionResult) {
	r.partitionCompletedCounter.WithLabelValues(transactionType).Inc()
}

// RecordStaged records staged source rows.
func (r *PrometheusRecorder) RecordStaged(ctx context.Context, transactionType string, count int) {
	r.stagedRecordsCounter.WithLabelValues(transactionType).Add(float64(count))
}

// RecordProcessed records one successfully transformed record.
func (r *PrometheusRecorder) RecordProcessed(ctx context.Context, transactionType string) {
	r.processedRecordsCounter.WithLabelValues(transactionType).Inc()
}

// RecordFailed records one rejected record.
func (r *PrometheusRecorder) RecordFailed(ctx context.Context, transactionType string, reason string) {
	r.failedRecordsCounter.WithLabelValues(transactionType, reason).Inc()
}

// RecordChunkCommit records the completion of one chunk.
func (r *PrometheusRecorder) RecordChunkCommit(ctx context.Context, transactionType string, count int) {
	r.chunkCommitCounter.WithLabelValues(transactionType).Inc()
}

// RecordDuration records the execution time of a named operation.
// Tags are not mapped to labels; Prometheus label sets must be fixed up front.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.operationDurationSeconds.WithLabelValues(name).Observe(duration.Seconds())
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
