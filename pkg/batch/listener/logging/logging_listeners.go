package logging

import (
	"context"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// --- Execution Listener ---

type LoggingExecutionListener struct{}

func NewLoggingExecutionListener() port.ExecutionListener {
	return &LoggingExecutionListener{}
}

func (l *LoggingExecutionListener) BeforeExecution(ctx context.Context, execution *model.JobExecution) {
	logger.Infof("ExecutionListener: BeforeExecution - JobName: %s, ID: %s, BusinessDate: %s, Mode: %s, Params: %+v",
		execution.JobName, execution.ID, execution.BusinessDate, execution.Mode, execution.Parameters.Params)
}

func (l *LoggingExecutionListener) AfterExecution(ctx context.Context, execution *model.JobExecution) {
	logger.Infof("ExecutionListener: AfterExecution - JobName: %s, Status: %s, FailureClass: %s, Processed: %d/%d, Errors: %d",
		execution.JobName, execution.Status, execution.FailureClass, execution.ProcessedCount, execution.TotalCount, execution.ErrorCount)
}

var _ port.ExecutionListener = (*LoggingExecutionListener)(nil)

// --- Partition Listener ---

type LoggingPartitionListener struct{}

func NewLoggingPartitionListener() port.PartitionListener {
	return &LoggingPartitionListener{}
}

func (l *LoggingPartitionListener) BeforePartition(ctx context.Context, execution *model.JobExecution, txType model.TransactionType) {
	logger.Debugf("PartitionListener: BeforePartition - Type: %s, Order: %d, ExecutionID: %s",
		txType.Code, txType.ProcessingOrder, execution.ID)
}

func (l *LoggingPartitionListener) AfterPartition(ctx context.Context, execution *model.JobExecution, result *model.PartitionResult) {
	if result == nil {
		return
	}
	logger.Debugf("PartitionListener: AfterPartition - Type: %s, Succeeded: %d, Failed: %d",
		result.Type.Code, len(result.Succeeded), len(result.Failed))
}

var _ port.PartitionListener = (*LoggingPartitionListener)(nil)
