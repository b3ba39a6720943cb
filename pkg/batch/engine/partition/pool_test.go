package partition_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/partition"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// stubPartitionProcessor counts concurrent invocations and records arrival
// order. An optional rendezvous gate lets a test demand that all tasks of a
// wave are in flight at the same time before any may finish.
type stubPartitionProcessor struct {
	mu        sync.Mutex
	active    int
	maxActive int
	order     []string
	gate      *sync.WaitGroup
	failCodes map[string]bool
}

func (s *stubPartitionProcessor) ProcessPartition(ctx context.Context, execution *model.JobExecution, txType model.TransactionType, mappings []model.FieldMapping) (*model.PartitionResult, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.order = append(s.order, txType.Code)
	s.mu.Unlock()

	if s.gate != nil {
		s.gate.Done()
		s.gate.Wait()
	}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	if s.failCodes[txType.Code] {
		return nil, exception.NewInfrastructureError("stub", "partition failed", nil)
	}
	result := model.NewPartitionResult(txType)
	result.Succeeded = append(result.Succeeded, model.OutputRecord{TransactionType: txType.Code, Sequence: 1, Segments: []string{txType.Code}})
	return result, nil
}

func poolTasks(parallel bool, codes ...string) []partition.PartitionTask {
	tasks := make([]partition.PartitionTask, len(codes))
	for i, code := range codes {
		tasks[i] = partition.PartitionTask{
			Type: model.TransactionType{Code: code, ProcessingOrder: i + 1, ParallelEligible: parallel},
		}
	}
	return tasks
}

func newPool(threads int, processor *stubPartitionProcessor) *partition.WorkerPool {
	return partition.NewWorkerPool(threads, processor)
}

func TestRunWave_ReturnsOutcomesInTaskOrder(t *testing.T) {
	stub := &stubPartitionProcessor{}
	pool := newPool(4, stub)
	execution := model.NewJobExecution("wave-test", "2025-06-01", model.ProcessingModeComplex, model.NewExecutionParameters())

	outcomes := pool.RunWave(context.Background(), execution, poolTasks(true, "C", "A", "B"))

	if assert.Len(t, outcomes, 3) {
		assert.Equal(t, "C", outcomes[0].Type.Code)
		assert.Equal(t, "A", outcomes[1].Type.Code)
		assert.Equal(t, "B", outcomes[2].Type.Code)
	}
	for _, outcome := range outcomes {
		assert.NoError(t, outcome.Err)
		assert.NotNil(t, outcome.Result, "the wave barrier only lifts once every task has reported")
	}
}

func TestRunWave_BoundsConcurrencyToPoolSize(t *testing.T) {
	stub := &stubPartitionProcessor{}
	pool := newPool(1, stub)
	execution := model.NewJobExecution("wave-test", "2025-06-01", model.ProcessingModeComplex, model.NewExecutionParameters())

	outcomes := pool.RunWave(context.Background(), execution, poolTasks(true, "A", "B", "C", "D"))

	assert.Len(t, outcomes, 4)
	assert.Equal(t, 1, stub.maxActive, "a pool of one never overlaps tasks")
}

func TestRunWave_SaturatesPoolWhenWaveFills(t *testing.T) {
	gate := &sync.WaitGroup{}
	gate.Add(3)
	stub := &stubPartitionProcessor{gate: gate}
	pool := newPool(3, stub)
	execution := model.NewJobExecution("wave-test", "2025-06-01", model.ProcessingModeComplex, model.NewExecutionParameters())

	outcomes := pool.RunWave(context.Background(), execution, poolTasks(true, "A", "B", "C"))

	assert.Len(t, outcomes, 3)
	assert.Equal(t, 3, stub.maxActive, "all three tasks held a pool slot at once")
}

func TestRunWave_SerialTasksRunSequentiallyInTaskOrder(t *testing.T) {
	stub := &stubPartitionProcessor{}
	pool := newPool(4, stub)
	execution := model.NewJobExecution("wave-test", "2025-06-01", model.ProcessingModeComplex, model.NewExecutionParameters())

	outcomes := pool.RunWave(context.Background(), execution, poolTasks(false, "A", "B", "C"))

	assert.Len(t, outcomes, 3)
	assert.Equal(t, 1, stub.maxActive, "ineligible types never run concurrently")
	assert.Equal(t, []string{"A", "B", "C"}, stub.order)
}

func TestRunWave_SerialTasksRunBeforeParallelFanOut(t *testing.T) {
	stub := &stubPartitionProcessor{}
	pool := newPool(2, stub)
	execution := model.NewJobExecution("wave-test", "2025-06-01", model.ProcessingModeComplex, model.NewExecutionParameters())

	tasks := []partition.PartitionTask{
		{Type: model.TransactionType{Code: "PAR-1", ProcessingOrder: 1, ParallelEligible: true}},
		{Type: model.TransactionType{Code: "SER-1", ProcessingOrder: 2}},
		{Type: model.TransactionType{Code: "PAR-2", ProcessingOrder: 3, ParallelEligible: true}},
		{Type: model.TransactionType{Code: "SER-2", ProcessingOrder: 4}},
	}
	outcomes := pool.RunWave(context.Background(), execution, tasks)

	assert.Len(t, outcomes, 4)
	if assert.GreaterOrEqual(t, len(stub.order), 2) {
		assert.Equal(t, []string{"SER-1", "SER-2"}, stub.order[:2])
	}
	for i, task := range tasks {
		assert.Equal(t, task.Type.Code, outcomes[i].Type.Code)
	}
}

func TestRunWave_ReportsFailuresWithoutAffectingSiblings(t *testing.T) {
	stub := &stubPartitionProcessor{failCodes: map[string]bool{"B": true}}
	pool := newPool(2, stub)
	execution := model.NewJobExecution("wave-test", "2025-06-01", model.ProcessingModeComplex, model.NewExecutionParameters())

	outcomes := pool.RunWave(context.Background(), execution, poolTasks(true, "A", "B", "C"))

	assert.NoError(t, outcomes[0].Err)
	assert.NotNil(t, outcomes[0].Result)
	assert.Error(t, outcomes[1].Err)
	assert.True(t, exception.IsInfrastructureError(outcomes[1].Err))
	assert.Nil(t, outcomes[1].Result)
	assert.NoError(t, outcomes[2].Err)
	assert.NotNil(t, outcomes[2].Result)
}
