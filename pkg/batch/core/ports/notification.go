package ports

import (
	"context"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// Notifier is an abstract interface for notifying external systems about execution results.
type Notifier interface {
	// NotifyExecutionCompletion notifies about execution completion (success/failure/stop).
	NotifyExecutionCompletion(ctx context.Context, execution *model.JobExecution)
}
