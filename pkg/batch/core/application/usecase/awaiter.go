package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	exception "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// defaultAwaitInterval is the repository polling interval used when the
// caller does not supply one.
const defaultAwaitInterval = 500 * time.Millisecond

// ExecutionAwaiter blocks until an asynchronously launched execution reaches
// a terminal status, by polling the shared repository. Launch returns as soon
// as the execution is claimed; callers that need the outcome (the CLI, tests,
// schedulers) wait through this type.
type ExecutionAwaiter struct {
	repo            repository.BatchRepository
	pollingInterval time.Duration
}

// NewExecutionAwaiter creates a new ExecutionAwaiter. A pollingInterval of
// zero or less falls back to the default.
func NewExecutionAwaiter(repo repository.BatchRepository, pollingInterval time.Duration) *ExecutionAwaiter {
	if pollingInterval <= 0 {
		pollingInterval = defaultAwaitInterval
	}
	return &ExecutionAwaiter{
		repo:            repo,
		pollingInterval: pollingInterval,
	}
}

// AwaitCompletion waits for the execution to reach a terminal status and
// returns its final state. Transient repository errors and optimistic lock
// collisions are tolerated; the next poll retrieves the latest state.
func (a *ExecutionAwaiter) AwaitCompletion(ctx context.Context, executionID string) (*model.JobExecution, error) {
	logger.Debugf("ExecutionAwaiter: Waiting for completion of execution '%s'. Polling interval: %v", executionID, a.pollingInterval)

	ticker := time.NewTicker(a.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Warnf("ExecutionAwaiter: Waiting for execution '%s' interrupted by context: %v", executionID, ctx.Err())
			return nil, exception.NewBatchError("awaiter",
				fmt.Sprintf("execution wait interrupted: %v", ctx.Err()), ctx.Err(), false, true)

		case <-ticker.C:
			latest, err := a.repo.FindJobExecutionByID(ctx, executionID)
			if err != nil {
				if errors.Is(err, repository.ErrJobExecutionNotFound) {
					return nil, exception.NewBatchErrorf("awaiter", "execution not found: %s", executionID)
				}
				if exception.IsOptimisticLockingFailure(err) {
					// The coordinator is mid-update; the next poll sees the settled row.
					continue
				}
				logger.Errorf("ExecutionAwaiter: An error occurred while retrieving execution '%s': %v", executionID, err)
				continue
			}

			if latest.Status.IsFinished() {
				logger.Infof("ExecutionAwaiter: Execution '%s' reached a terminal state (%s).", executionID, latest.Status)
				return latest, nil
			}
			logger.Debugf("ExecutionAwaiter: Execution '%s' is still running (%s).", executionID, latest.Status)
		}
	}
}
