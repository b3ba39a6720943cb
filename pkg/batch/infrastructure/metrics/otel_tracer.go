package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	metrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
)

// OpenTelemetryTracer is an implementation of metrics.Tracer that opens real
// OTel spans through the globally registered TracerProvider.
type OpenTelemetryTracer struct {
	tracer trace.Tracer
}

// NewOpenTelemetryTracer creates a new instance of OpenTelemetryTracer.
func NewOpenTelemetryTracer() metrics.Tracer {
	return &OpenTelemetryTracer{tracer: otel.Tracer(instrumentationName)}
}

// StartExecutionSpan starts a span covering one JobExecution. The returned
// end function reads the execution's final status, so it must be called after
// the execution settled.
func (t *OpenTelemetryTracer) StartExecutionSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("batch.execution %s", execution.JobName),
		trace.WithAttributes(
			attribute.String("batch.job_name", execution.JobName),
			attribute.String("batch.execution_id", execution.ID),
			attribute.String("batch.business_date", execution.BusinessDate),
			attribute.String("batch.mode", string(execution.Mode)),
			attribute.Int("batch.restart_count", execution.RestartCount),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func() {
		span.SetAttributes(
			attribute.String("batch.status", string(execution.Status)),
			attribute.Int("batch.total_count", execution.TotalCount),
			attribute.Int("batch.error_count", execution.ErrorCount),
		)
		if execution.Status == model.ExecutionStatusCompleted {
			span.SetStatus(codes.Ok, "")
		} else {
			span.SetStatus(codes.Error, string(execution.FailureClass))
		}
		span.End()
	}
}

// StartPartitionSpan starts a span covering the processing of one partition.
func (t *OpenTelemetryTracer) StartPartitionSpan(ctx context.Context, execution *model.JobExecution, transactionType string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("batch.partition %s", transactionType),
		trace.WithAttributes(
			attribute.String("batch.execution_id", execution.ID),
			attribute.String("batch.transaction_type", transactionType),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func() {
		span.End()
	}
}

// RecordError records an error on the span carried by the context.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent records an event on the span carried by the context.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

// toAttributes converts loosely typed event attributes to OTel key-values.
func toAttributes(attributes map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for key, value := range attributes {
		switch v := value.(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case int:
			attrs = append(attrs, attribute.Int(key, v))
		case int64:
			attrs = append(attrs, attribute.Int64(key, v))
		case float64:
			attrs = append(attrs, attribute.Float64(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		default:
			attrs = append(attrs, attribute.String(key, fmt.Sprintf("%v", v)))
		}
	}
	return attrs
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
