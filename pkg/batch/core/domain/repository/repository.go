package repository

// BatchRepository is the interface for persisting and managing the platform's
// execution metadata. It embeds the per-aggregate repositories to keep
// concerns separated while letting the coordinator hold a single handle.
type BatchRepository interface {
	JobExecution // JobExecution metadata operations (definition in job_execution.go)
	Staging      // Staging record lifecycle operations (definition in staging.go)
	Idempotency  // Idempotency record operations (definition in idempotency.go)

	// Close releases resources (such as database connections) used by the repository.
	Close() error
}
