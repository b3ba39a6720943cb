package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/listener/notification"
)

type capturingNotifier struct {
	executions []*model.JobExecution
}

func (n *capturingNotifier) NotifyExecutionCompletion(ctx context.Context, execution *model.JobExecution) {
	n.executions = append(n.executions, execution)
}

func TestNotificationListener_ForwardsCompletionToNotifier(t *testing.T) {
	notifier := &capturingNotifier{}
	l := notification.NewNotificationListenerImpl(notifier)
	execution := model.NewJobExecution("notify-test", "2025-06-01", model.ProcessingModeSimple, model.NewExecutionParameters())
	execution.MarkAsRunning()
	execution.MarkAsCompleted()

	l.OnExecutionCompletion(context.Background(), execution)

	if assert.Len(t, notifier.executions, 1) {
		assert.Same(t, execution, notifier.executions[0])
	}
}

func TestDummyNotifier_HandlesEveryTerminalStatus(t *testing.T) {
	notifier := notification.NewDummyNotifier()

	completed := model.NewJobExecution("notify-test", "2025-06-01", model.ProcessingModeSimple, model.NewExecutionParameters())
	completed.MarkAsRunning()
	completed.MarkAsCompleted()

	failed := model.NewJobExecution("notify-test", "2025-06-01", model.ProcessingModeSimple, model.NewExecutionParameters())
	failed.MarkAsRunning()
	failed.MarkAsFailed(assert.AnError)

	// Notification is log based; completion and failure must both be accepted
	// without touching the execution.
	assert.NotPanics(t, func() {
		notifier.NotifyExecutionCompletion(context.Background(), completed)
		notifier.NotifyExecutionCompletion(context.Background(), failed)
	})
	assert.Equal(t, model.ExecutionStatusCompleted, completed.Status)
	assert.Equal(t, model.ExecutionStatusFailed, failed.Status)
}
