package partition

import (
	"context"
	"sync"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// PartitionTask pairs a transaction type with its field mappings for dispatch.
type PartitionTask struct {
	Type     model.TransactionType
	Mappings []model.FieldMapping
}

// TaskOutcome is the terminal per-partition report the pool hands back. Result
// may be partial when Err is non-nil.
type TaskOutcome struct {
	Type   model.TransactionType
	Result *model.PartitionResult
	Err    error
}

// WorkerPool dispatches partition tasks to the processor with bounded
// parallelism. The bound is the per-job parallel thread count, so different
// jobs can run with different parallelism without contending on a global pool.
type WorkerPool struct {
	processor port.PartitionProcessor
	size      int
}

// NewWorkerPool creates a pool sized by the job's parallel thread count. The
// coordinator constructs one pool per run because the size comes from the
// job's effective settings, not from the platform configuration.
func NewWorkerPool(size int, processor port.PartitionProcessor) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{processor: processor, size: size}
}

// RunWave executes the tasks of one wave and blocks until every task has
// reported a terminal outcome, making the wave boundary a strict barrier.
// Parallel-ineligible types run sequentially on the calling goroutine; the
// rest are fanned out through the bounded pool. Outcomes are returned in task
// order regardless of completion order.
func (p *WorkerPool) RunWave(ctx context.Context, execution *model.JobExecution, tasks []PartitionTask) []TaskOutcome {
	outcomes := make([]TaskOutcome, len(tasks))

	var serial, parallel []int
	for i, task := range tasks {
		if task.Type.ParallelEligible {
			parallel = append(parallel, i)
		} else {
			serial = append(serial, i)
		}
	}
	logger.Debugf("Wave dispatch for execution %s: %d parallel, %d serial tasks (pool size %d).",
		execution.ID, len(parallel), len(serial), p.size)

	for _, i := range serial {
		outcomes[i] = p.run(ctx, execution, tasks[i])
	}

	sem := make(chan struct{}, p.size)
	var wg sync.WaitGroup
	for _, i := range parallel {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = p.run(ctx, execution, tasks[i])
		}(i)
	}
	wg.Wait()

	return outcomes
}

func (p *WorkerPool) run(ctx context.Context, execution *model.JobExecution, task PartitionTask) TaskOutcome {
	logger.Debugf("Dispatching partition '%s' for execution %s.", task.Type.Code, execution.ID)
	result, err := p.processor.ProcessPartition(ctx, execution, task.Type, task.Mappings)
	if err != nil {
		logger.Errorf("Partition '%s' failed: %v", task.Type.Code, err)
	}
	return TaskOutcome{Type: task.Type, Result: result, Err: err}
}
