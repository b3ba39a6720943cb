package usecase

import (
	"context"
	"fmt"

	jobdef "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config/jobdef"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	exception "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// DefaultExecutionExplorer is the default implementation of the
// ExecutionExplorer interface. It queries execution metadata through the
// batch repository and the job definition registry.
type DefaultExecutionExplorer struct {
	repo        repository.BatchRepository
	definitions *jobdef.Registry
}

// Verify that DefaultExecutionExplorer implements the ExecutionExplorer interface.
var _ ExecutionExplorer = (*DefaultExecutionExplorer)(nil)

// NewDefaultExecutionExplorer creates a new instance of DefaultExecutionExplorer.
func NewDefaultExecutionExplorer(repo repository.BatchRepository, definitions *jobdef.Registry) *DefaultExecutionExplorer {
	return &DefaultExecutionExplorer{
		repo:        repo,
		definitions: definitions,
	}
}

// GetExecution retrieves a JobExecution by its ID.
func (e *DefaultExecutionExplorer) GetExecution(ctx context.Context, executionID string) (*model.JobExecution, error) {
	logger.Infof("ExecutionExplorer: GetExecution called. Execution ID: %s", executionID)
	execution, err := e.repo.FindJobExecutionByID(ctx, executionID)
	if err != nil {
		return nil, exception.NewBatchError("explorer",
			fmt.Sprintf("failed to retrieve JobExecution (ID: %s)", executionID), err, false, false)
	}
	logger.Debugf("Retrieved JobExecution (ID: %s).", executionID)
	return execution, nil
}

// GetExecutions retrieves all JobExecutions of a job, most recent first.
func (e *DefaultExecutionExplorer) GetExecutions(ctx context.Context, jobName string) ([]*model.JobExecution, error) {
	logger.Infof("ExecutionExplorer: GetExecutions called. Job name: %s", jobName)
	executions, err := e.repo.FindJobExecutionsByJobName(ctx, jobName)
	if err != nil {
		return nil, exception.NewBatchError("explorer",
			fmt.Sprintf("failed to retrieve JobExecutions of job '%s'", jobName), err, false, false)
	}
	logger.Debugf("Retrieved %d JobExecutions of job '%s'.", len(executions), jobName)
	return executions, nil
}

// GetLastExecution retrieves the most recently created JobExecution of a job.
func (e *DefaultExecutionExplorer) GetLastExecution(ctx context.Context, jobName string) (*model.JobExecution, error) {
	logger.Infof("ExecutionExplorer: GetLastExecution called. Job name: %s", jobName)
	execution, err := e.repo.FindLatestJobExecution(ctx, jobName)
	if err != nil {
		return nil, exception.NewBatchError("explorer",
			fmt.Sprintf("failed to retrieve the latest JobExecution of job '%s'", jobName), err, false, false)
	}
	logger.Debugf("Retrieved latest JobExecution (ID: %s) of job '%s'.", execution.ID, jobName)
	return execution, nil
}

// GetJobNames retrieves the names of all registered job definitions.
func (e *DefaultExecutionExplorer) GetJobNames(ctx context.Context) ([]string, error) {
	logger.Infof("ExecutionExplorer: GetJobNames called.")
	names := e.definitions.Names()
	logger.Debugf("Retrieved %d job names.", len(names))
	return names, nil
}
