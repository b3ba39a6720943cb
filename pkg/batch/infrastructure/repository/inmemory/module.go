// Package inmemory provides an in-memory implementation of the BatchRepository interface.
// This module integrates the in-memory repository into the application's dependency graph using Fx.
package inmemory

import (
	"go.uber.org/fx"

	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
)

// Module is an Fx module that provides InMemoryBatchRepository as the
// repository.BatchRepository interface and as each of its aggregate views.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewInMemoryBatchRepository,
			fx.As(new(repository.BatchRepository)),
			fx.As(new(repository.JobExecution)),
			fx.As(new(repository.Staging)),
			fx.As(new(repository.Idempotency)),
		),
	),
)
