package listener

import (
	"context"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// CompletionSignaler is an ExecutionListener that closes a channel
// when an execution finishes, signaling its completion to external components.
type CompletionSignaler struct {
	// Done is the channel that will be closed upon execution completion.
	Done chan struct{}
}

// NewCompletionSignaler creates a new instance of CompletionSignaler.
//
// Parameters:
//
//	done: The channel to be closed when the execution finishes.
//
// Returns:
//
//	A pointer to a new `CompletionSignaler` instance.
func NewCompletionSignaler(done chan struct{}) *CompletionSignaler {
	return &CompletionSignaler{
		Done: done,
	}
}

// BeforeExecution is part of the ExecutionListener interface but does nothing in this implementation.
//
// Parameters:
//
//	ctx: The context for the operation.
//	execution: The `JobExecution` instance before the execution starts.
func (l *CompletionSignaler) BeforeExecution(ctx context.Context, execution *model.JobExecution) {
	// No-op
}

// AfterExecution closes the Done channel when the execution finishes.
// It ensures the channel is not already closed before attempting to close it.
//
// Parameters:
//
//	ctx: The context for the operation.
//	execution: The `JobExecution` instance after the execution finishes.
func (l *CompletionSignaler) AfterExecution(ctx context.Context, execution *model.JobExecution) {
	logger.Infof("CompletionSignaler: Execution '%s' (ID: %s) finished. Closing Done channel.", execution.JobName, execution.ID)
	// Check if the channel is already closed or receivable before closing.
	select {
	case <-l.Done:
		// Channel is already closed or a value has been sent (should not happen for struct{} channel).
		// Do nothing, as it's already signaled.
	default:
		// Channel is not closed, so close it.
		close(l.Done)
	}
}

// Verify that CompletionSignaler implements the port.ExecutionListener interface.
var _ port.ExecutionListener = (*CompletionSignaler)(nil)
