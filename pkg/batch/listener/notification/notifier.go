package notification

import (
	"context"
	"fmt"
	"time"

	coreport "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port" // NotificationListener
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"        // JobExecution, ExecutionStatus
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/ports"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// DummyNotifier is a dummy implementation that only logs notifications.
type DummyNotifier struct{}

// NewDummyNotifier creates a new instance of DummyNotifier.
func NewDummyNotifier() ports.Notifier {
	logger.Infof("Notification: Initializing Dummy Notifier.")
	return &DummyNotifier{}
}

// NotifyExecutionCompletion notifies of execution completion.
func (n *DummyNotifier) NotifyExecutionCompletion(ctx context.Context, execution *model.JobExecution) {
	duration := time.Duration(0)
	if execution.EndTime != nil {
		duration = execution.EndTime.Sub(execution.StartTime)
	}

	message := fmt.Sprintf(
		"Execution Notification: Job '%s' (ID: %s) finished with Status: %s, FailureClass: %s. Duration: %s, Processed: %d/%d, Failures: %d",
		execution.JobName,
		execution.ID,
		execution.Status,
		execution.FailureClass,
		duration,
		execution.ProcessedCount,
		execution.TotalCount,
		len(execution.Failures),
	)

	if execution.Status == model.ExecutionStatusCompleted {
		logger.Infof(message)
	} else {
		logger.Warnf(message)
	}
}

var _ ports.Notifier = (*DummyNotifier)(nil)

// NotificationListenerImpl is an implementation of coreport.NotificationListener that sends notifications using a Notifier.
type NotificationListenerImpl struct {
	notifier ports.Notifier
}

// NewNotificationListenerImpl creates a new instance of NotificationListenerImpl.
func NewNotificationListenerImpl(notifier ports.Notifier) coreport.NotificationListener {
	return &NotificationListenerImpl{notifier: notifier}
}

// OnExecutionCompletion sends a notification when an execution completes.
func (l *NotificationListenerImpl) OnExecutionCompletion(ctx context.Context, execution *model.JobExecution) {
	l.notifier.NotifyExecutionCompletion(ctx, execution)
}

var _ coreport.NotificationListener = (*NotificationListenerImpl)(nil)
