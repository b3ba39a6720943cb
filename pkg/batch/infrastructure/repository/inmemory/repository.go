// Package inmemory provides an in-memory implementation of the BatchRepository
// interface. It stores all execution metadata in maps within memory, suitable
// for testing and scenarios where persistence is not required.
package inmemory

import (
	"sync"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
)

const moduleName = "inmemory_repository"

// InMemoryBatchRepository is an in-memory implementation of the BatchRepository
// interface. It holds all execution metadata in in-memory maps. Reads hand out
// clones and writes store clones, so callers never share backing state with the
// repository.
type InMemoryBatchRepository struct {
	jobExecutions  map[string]*model.JobExecution
	stagingRecords map[string]*model.StagingRecord
	sequences      map[string]int64
	idempotency    map[string]*model.IdempotencyRecord
	mu             sync.RWMutex // Mutex to protect concurrent access to maps.
}

// NewInMemoryBatchRepository creates and initializes a new instance of InMemoryBatchRepository.
func NewInMemoryBatchRepository() *InMemoryBatchRepository {
	return &InMemoryBatchRepository{
		jobExecutions:  make(map[string]*model.JobExecution),
		stagingRecords: make(map[string]*model.StagingRecord),
		sequences:      make(map[string]int64),
		idempotency:    make(map[string]*model.IdempotencyRecord),
	}
}

// Close releases resources used by the repository.
// As an in-memory repository, it holds no external resources, so this method always returns nil.
func (r *InMemoryBatchRepository) Close() error {
	return nil
}

// Verify interfaces
var _ repository.BatchRepository = (*InMemoryBatchRepository)(nil)
