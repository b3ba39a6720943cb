package tracing

import (
	"context"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
)

// TracingPartitionListener records partition lifecycle events on the
// execution span. The per-partition child spans are opened by the partition
// processor; these events give the execution span a wave timeline with the
// outcome counts the child spans do not carry.
type TracingPartitionListener struct {
	tracer metrics.Tracer
}

func NewTracingPartitionListener(tracer metrics.Tracer) port.PartitionListener {
	return &TracingPartitionListener{tracer: tracer}
}

func (l *TracingPartitionListener) BeforePartition(ctx context.Context, execution *model.JobExecution, txType model.TransactionType) {
	l.tracer.RecordEvent(ctx, "partition_start", map[string]interface{}{
		"transaction_type": txType.Code,
		"processing_order": txType.ProcessingOrder,
	})
}

func (l *TracingPartitionListener) AfterPartition(ctx context.Context, execution *model.JobExecution, result *model.PartitionResult) {
	if result == nil {
		return
	}
	l.tracer.RecordEvent(ctx, "partition_end", map[string]interface{}{
		"transaction_type": result.Type.Code,
		"succeeded":        len(result.Succeeded),
		"failed":           len(result.Failed),
	})
}

var _ port.PartitionListener = (*TracingPartitionListener)(nil)
