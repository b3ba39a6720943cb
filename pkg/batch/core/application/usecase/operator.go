package usecase

import (
	"context"
	"fmt"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	exception "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// DefaultExecutionOperator is the default implementation of the
// ExecutionOperator interface. Stop signals a running execution through the
// coordinator's cancel registry; Restart resubmits a terminal execution
// through the coordinator so the idempotency cooldown applies.
type DefaultExecutionOperator struct {
	repo     repository.BatchRepository
	explorer ExecutionExplorer
	launcher *DefaultExecutionCoordinator // Concrete implementation of usecase.ExecutionLauncher
}

// Verify that DefaultExecutionOperator implements the ExecutionOperator interface.
var _ ExecutionOperator = (*DefaultExecutionOperator)(nil)

// NewDefaultExecutionOperator creates a new instance of DefaultExecutionOperator.
func NewDefaultExecutionOperator(repo repository.BatchRepository, explorer ExecutionExplorer) *DefaultExecutionOperator {
	return &DefaultExecutionOperator{
		repo:     repo,
		explorer: explorer,
		// launcher is set later via SetLauncher to avoid a circular dependency.
	}
}

// SetLauncher sets the reference to the coordinator, done after construction
// to avoid a circular dependency.
func (o *DefaultExecutionOperator) SetLauncher(launcher *DefaultExecutionCoordinator) {
	o.launcher = launcher
}

// Stop requests cancellation of a running execution. The run loop observes
// the cancellation between records, finishes the record in flight, and
// settles the execution as STOPPED.
func (o *DefaultExecutionOperator) Stop(ctx context.Context, executionID string) error {
	logger.Infof("ExecutionOperator: Stop requested. Execution ID: %s", executionID)

	if o.launcher == nil {
		return exception.NewBatchErrorf("operator", "launcher is not set, cannot perform Stop")
	}

	execution, err := o.repo.FindJobExecutionByID(ctx, executionID)
	if err != nil {
		return exception.NewBatchError("operator",
			fmt.Sprintf("failed to load JobExecution (ID: %s)", executionID), err, false, false)
	}

	if execution.Status.IsFinished() {
		logger.Warnf("JobExecution (ID: %s) cannot be stopped, it is already in a finished state (%s).", executionID, execution.Status)
		return exception.NewBatchErrorf("operator",
			"JobExecution (ID: %s) is already in a finished state (%s)", executionID, execution.Status)
	}

	cancelFunc, ok := o.launcher.GetCancelFunc(executionID)
	if !ok {
		logger.Warnf("No CancelFunc registered for JobExecution (ID: %s). The execution may have just finished.", executionID)
		return exception.NewBatchErrorf("operator",
			"no cancel function registered for JobExecution (ID: %s)", executionID)
	}
	cancelFunc()

	logger.Infof("Sent stop signal for JobExecution (ID: %s).", executionID)
	return nil
}

// Restart submits a fresh execution continuing a FAILED or STOPPED one. The
// previous execution's idempotency key and parameters are reused, so the
// guard enforces the retry cooldown and the fingerprint check.
func (o *DefaultExecutionOperator) Restart(ctx context.Context, executionID string) (*LaunchResult, error) {
	logger.Infof("ExecutionOperator: Restart requested. Execution ID: %s", executionID)

	if o.launcher == nil {
		return nil, exception.NewBatchErrorf("operator", "launcher is not set, cannot perform Restart")
	}

	prev, err := o.repo.FindJobExecutionByID(ctx, executionID)
	if err != nil {
		return nil, exception.NewBatchError("operator",
			fmt.Sprintf("failed to load JobExecution (ID: %s)", executionID), err, false, false)
	}

	if prev.Status != model.ExecutionStatusFailed && prev.Status != model.ExecutionStatusStopped {
		return nil, exception.NewBatchErrorf("operator",
			"JobExecution (ID: %s) is not restartable (current status: %s)", executionID, prev.Status)
	}
	logger.Infof("JobExecution (ID: %s) is restartable (%s).", executionID, prev.Status)

	result, err := o.launcher.Relaunch(ctx, prev)
	if err != nil {
		return nil, exception.NewBatchError("operator",
			fmt.Sprintf("failed to restart JobExecution (ID: %s)", executionID), err, false, false)
	}

	switch result.Outcome {
	case model.OutcomeProceed:
		logger.Infof("Restart of job '%s' started. Previous execution: %s, new execution: %s (restart count: %d).",
			prev.JobName, executionID, result.Execution.ID, result.Execution.RestartCount)
	case model.OutcomeConflict:
		logger.Warnf("Restart of JobExecution (ID: %s) rejected: the retry cooldown has not elapsed or another submission holds the key.", executionID)
	case model.OutcomeReturnCached:
		logger.Infof("Restart of JobExecution (ID: %s) unnecessary: the key already completed; returning cached result.", executionID)
	}
	return result, nil
}
