package inmemory

import (
	"context"
	"fmt"
	"sort"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
)

// cloneJobExecution copies a JobExecution so the stored object and the caller's
// object never share mutable backing state. The CancelFunc is process-local and
// is not carried into the stored copy.
func cloneJobExecution(je *model.JobExecution) *model.JobExecution {
	cloned := *je
	cloned.CancelFunc = nil
	if je.Failures != nil {
		cloned.Failures = make(model.FailureList, len(je.Failures))
		copy(cloned.Failures, je.Failures)
	}
	if je.Parameters.Params != nil {
		params := make(map[string]interface{}, len(je.Parameters.Params))
		for k, v := range je.Parameters.Params {
			params[k] = v
		}
		cloned.Parameters = model.ExecutionParameters{Params: params}
	}
	return &cloned
}

// SaveJobExecution persists a new JobExecution.
// It returns an error if a JobExecution with the same ID already exists.
func (r *InMemoryBatchRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobExecutions[jobExecution.ID]; exists {
		return fmt.Errorf("JobExecution with ID %s already exists", jobExecution.ID)
	}
	r.jobExecutions[jobExecution.ID] = cloneJobExecution(jobExecution)
	return nil
}

// UpdateJobExecution updates an existing JobExecution.
// It returns an error if the JobExecution with the given ID is not found.
func (r *InMemoryBatchRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobExecutions[jobExecution.ID]; !exists {
		return fmt.Errorf("JobExecution with ID %s not found for update", jobExecution.ID)
	}
	r.jobExecutions[jobExecution.ID] = cloneJobExecution(jobExecution)
	return nil
}

// FindJobExecutionByID finds a JobExecution by its ID.
// It returns ErrJobExecutionNotFound if the JobExecution is not found.
func (r *InMemoryBatchRepository) FindJobExecutionByID(ctx context.Context, executionID string) (*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobExecution, ok := r.jobExecutions[executionID]
	if !ok {
		return nil, repository.ErrJobExecutionNotFound
	}
	return cloneJobExecution(jobExecution), nil
}

// FindJobExecutionsByJobName finds all JobExecutions for a job, most recent first.
func (r *InMemoryBatchRepository) FindJobExecutionsByJobName(ctx context.Context, jobName string) ([]*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var executions []*model.JobExecution
	for _, je := range r.jobExecutions {
		if je.JobName == jobName {
			executions = append(executions, cloneJobExecution(je))
		}
	}

	// Sort by CreateTime in descending order (latest first)
	sort.Slice(executions, func(i, j int) bool {
		return executions[j].CreateTime.Before(executions[i].CreateTime)
	})

	return executions, nil
}

// FindLatestJobExecution finds the most recently created JobExecution for a job.
// It returns ErrJobExecutionNotFound when the job has no executions.
func (r *InMemoryBatchRepository) FindLatestJobExecution(ctx context.Context, jobName string) (*model.JobExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *model.JobExecution
	for _, je := range r.jobExecutions {
		if je.JobName != jobName {
			continue
		}
		if latest == nil || je.CreateTime.After(latest.CreateTime) {
			latest = je
		}
	}

	if latest == nil {
		return nil, repository.ErrJobExecutionNotFound
	}
	return cloneJobExecution(latest), nil
}
