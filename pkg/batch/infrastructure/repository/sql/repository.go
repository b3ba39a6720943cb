package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	coreAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	tx "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/tx"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
	"go.uber.org/fx"
)

// sequenceAllocationAttempts bounds the compare-and-set loop that advances the
// per-execution sequence counter under concurrent inserts.
const sequenceAllocationAttempts = 10

// SQLBatchRepository implements the repository.BatchRepository interface.
type SQLBatchRepository struct {
	dbResolver coreAdapter.ResourceConnectionResolver // dbResolver is used to resolve database connections. It is expected to resolve to a database.DBConnectionResolver.
	// TxManager is the transaction manager for the database.
	TxManager tx.TransactionManager
	// dbName is the name of the database connection used by this repository (e.g., "metadata").
	dbName string
}

// NewSQLBatchRepository creates a new instance of SQLBatchRepository.
//
// Parameters:
//
//	dbResolver: The database connection resolver.
//	txManager: The transaction manager for the database.
//	dbName: The name of the database connection to be used by this repository (e.g., "metadata").
//
// Returns:
//
//	A new instance of repository.BatchRepository.
func NewSQLBatchRepository(
	dbResolver coreAdapter.ResourceConnectionResolver,
	txManager tx.TransactionManager,
	dbName string,
) repository.BatchRepository {
	return &SQLBatchRepository{
		dbResolver: dbResolver,
		TxManager:  txManager,
		dbName:     dbName,
	}
}

// getDBConnection is a helper function to get the DBConnection used by the repository.
// This is used for operations that do not require an active transaction (e.g., ExecuteQuery, Count).
func (r *SQLBatchRepository) getDBConnection(ctx context.Context) (database.DBConnection, error) {
	// Use ResourceConnectionResolver to always get the latest ResourceConnection.
	connAsResource, err := r.dbResolver.ResolveConnection(ctx, r.dbName)
	if err != nil {
		return nil, exception.NewBatchError("SQLBatchRepository", fmt.Sprintf("Failed to resolve DB connection '%s'", r.dbName), err, false, false)
	}
	conn, ok := connAsResource.(database.DBConnection)
	if !ok {
		return nil, exception.NewBatchError("SQLBatchRepository", fmt.Sprintf("Resolved connection '%s' is not a database.DBConnection", r.dbName), nil, false, false)
	}
	return conn, nil
}

// getTxExecutor returns the Tx carried by the context when one is active, and
// the direct DBConnection otherwise. Both implement tx.TxExecutor, so write
// operations join an enclosing transaction transparently.
func (r *SQLBatchRepository) getTxExecutor(ctx context.Context) (tx.TxExecutor, error) {
	if t, ok := tx.FromContext(ctx); ok {
		return t, nil
	}
	return r.getDBConnection(ctx)
}

// isTableNotExist reports whether err means the backing table has not been
// created yet. The dialect knowledge lives on the resolved connection; a
// resolution failure reports false so the original error surfaces instead.
func (r *SQLBatchRepository) isTableNotExist(ctx context.Context, err error) bool {
	conn, connErr := r.getDBConnection(ctx)
	if connErr != nil {
		return false
	}
	return conn.IsTableNotExistError(err)
}

// --- JobExecution implementation ---

func (r *SQLBatchRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	const op = "SQLBatchRepository.SaveJobExecution"
	entity := fromDomainJobExecution(jobExecution)

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		return err
	}

	_, err = executor.ExecuteUpdate(ctx, entity, "CREATE", entity.TableName(), nil)

	if err != nil {
		if r.isTableNotExist(ctx, err) { // If the table does not exist, it means migrations haven't been run yet.
			// In this case, we ignore the error and return nil, as the table will be created later.
			return nil
		}
		return exception.NewBatchError(op, fmt.Sprintf("failed to save JobExecution (ID: %s)", jobExecution.ID), err, true, false)
	}
	return nil
}

func (r *SQLBatchRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	const op = "SQLBatchRepository.UpdateJobExecution"

	originalVersion := jobExecution.Version
	jobExecution.Version++
	jobExecution.LastUpdated = time.Now()
	entity := fromDomainJobExecution(jobExecution)

	tableName := entity.TableName()
	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		jobExecution.Version = originalVersion
		return err
	}

	rowsAffected, err := executor.ExecuteUpdate(
		ctx,
		entity,
		"UPDATE",
		tableName,
		map[string]interface{}{"version": originalVersion},
	)
	if err != nil {
		if r.isTableNotExist(ctx, err) {
			// Ignore if table does not exist (e.g., before migrations are run).
			jobExecution.Version = originalVersion // Rollback version
			return nil
		}
		jobExecution.Version = originalVersion // Rollback version
		return exception.NewBatchError(op, fmt.Sprintf("failed to update JobExecution (ID: %s)", jobExecution.ID), err, true, false)
	}
	if rowsAffected == 0 {
		jobExecution.Version = originalVersion // Rollback version
		return exception.NewOptimisticLockingFailureException("repository", fmt.Sprintf("JobExecution (ID: %s) with version %d not found for update", jobExecution.ID, originalVersion), nil)
	}
	return nil
}

func (r *SQLBatchRepository) FindJobExecutionByID(ctx context.Context, executionID string) (*model.JobExecution, error) {
	const op = "SQLBatchRepository.FindJobExecutionByID"
	var entity JobExecutionEntity

	conn, err := r.getDBConnection(ctx)
	if err != nil {
		return nil, err
	}

	err = conn.ExecuteQueryAdvanced(ctx, &entity, map[string]interface{}{"id": executionID}, "", 1)

	if err != nil {
		if conn.IsTableNotExistError(err) { // If the table does not exist, treat it as not found.
			// This can happen if the repository is accessed before migrations are run.
			return nil, repository.ErrJobExecutionNotFound
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find JobExecution by ID: %s", executionID), err, true, false)
	}

	if entity.ID == "" {
		return nil, repository.ErrJobExecutionNotFound
	}

	return toDomainJobExecution(&entity), nil
}

func (r *SQLBatchRepository) FindJobExecutionsByJobName(ctx context.Context, jobName string) ([]*model.JobExecution, error) {
	const op = "SQLBatchRepository.FindJobExecutionsByJobName"
	var entities []JobExecutionEntity

	conn, err := r.getDBConnection(ctx)
	if err != nil {
		return nil, err
	}

	err = conn.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"job_name": jobName}, "create_time desc", 0)

	if err != nil {
		if conn.IsTableNotExistError(err) { // If the table does not exist, return an empty slice.
			return []*model.JobExecution{}, nil
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find JobExecutions for job '%s'", jobName), err, true, false)
	}

	executions := make([]*model.JobExecution, len(entities))
	for i := range entities {
		executions[i] = toDomainJobExecution(&entities[i])
	}
	return executions, nil
}

func (r *SQLBatchRepository) FindLatestJobExecution(ctx context.Context, jobName string) (*model.JobExecution, error) {
	const op = "SQLBatchRepository.FindLatestJobExecution"
	var entity JobExecutionEntity

	conn, err := r.getDBConnection(ctx)
	if err != nil {
		return nil, err
	}

	err = conn.ExecuteQueryAdvanced(ctx, &entity, map[string]interface{}{"job_name": jobName}, "create_time desc", 1)

	if err != nil {
		if conn.IsTableNotExistError(err) { // If the table does not exist, treat it as not found.
			return nil, repository.ErrJobExecutionNotFound
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find latest JobExecution for job '%s'", jobName), err, true, false)
	}

	if entity.ID == "" {
		return nil, repository.ErrJobExecutionNotFound
	}

	return toDomainJobExecution(&entity), nil
}

// --- Staging implementation ---

// nextSequence claims the next sequence number of an execution. The first
// inserter creates the counter row at 1 through an upsert that does nothing on
// conflict; losers of that race advance the existing row with a version-guarded
// update, retrying while concurrent inserters win the advance first.
func (r *SQLBatchRepository) nextSequence(ctx context.Context, executionID string) (int64, error) {
	const op = "SQLBatchRepository.nextSequence"

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		return 0, err
	}
	conn, err := r.getDBConnection(ctx)
	if err != nil {
		return 0, err
	}

	seed := &StagingSequenceEntity{ExecutionID: executionID, LastSequence: 1, Version: 1}

	for attempt := 0; attempt < sequenceAllocationAttempts; attempt++ {
		rowsAffected, err := executor.ExecuteUpsert(ctx, seed, seed.TableName(), []string{"execution_id"}, nil)
		if err != nil {
			return 0, exception.NewBatchError(op, fmt.Sprintf("failed to seed sequence counter for execution %s", executionID), err, true, false)
		}
		if rowsAffected > 0 {
			return 1, nil
		}

		var current StagingSequenceEntity
		if err := conn.ExecuteQueryAdvanced(ctx, &current, map[string]interface{}{"execution_id": executionID}, "", 1); err != nil {
			return 0, exception.NewBatchError(op, fmt.Sprintf("failed to read sequence counter for execution %s", executionID), err, true, false)
		}
		if current.ExecutionID == "" {
			// The counter row vanished between the claim attempt and the read.
			continue
		}

		next := &StagingSequenceEntity{
			ExecutionID:  executionID,
			LastSequence: current.LastSequence + 1,
			Version:      current.Version + 1,
		}
		rowsAffected, err = executor.ExecuteUpdate(ctx, next, "UPDATE", next.TableName(), map[string]interface{}{"version": current.Version})
		if err != nil {
			return 0, exception.NewBatchError(op, fmt.Sprintf("failed to advance sequence counter for execution %s", executionID), err, true, false)
		}
		if rowsAffected > 0 {
			return next.LastSequence, nil
		}
		// Another inserter advanced the counter first; re-read and retry.
	}

	return 0, exception.NewBatchError(op, fmt.Sprintf("sequence allocation for execution %s did not settle after %d attempts", executionID, sequenceAllocationAttempts), nil, true, false)
}

func (r *SQLBatchRepository) InsertStagingRecord(ctx context.Context, record *model.StagingRecord) (int64, error) {
	const op = "SQLBatchRepository.InsertStagingRecord"

	sequence, err := r.nextSequence(ctx, record.ExecutionID)
	if err != nil {
		return 0, err
	}
	record.Sequence = sequence
	entity := fromDomainStagingRecord(record)

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		return 0, err
	}

	// Staging records carry business data, so a missing table is an error here
	// rather than something to silently tolerate.
	if _, err := executor.ExecuteUpdate(ctx, entity, "CREATE", entity.TableName(), nil); err != nil {
		return 0, exception.NewBatchError(op, fmt.Sprintf("failed to insert staging record (ID: %s)", record.ID), err, true, false)
	}
	return sequence, nil
}

func (r *SQLBatchRepository) MarkDependencyMet(ctx context.Context, executionID, transactionType string) error {
	const op = "SQLBatchRepository.MarkDependencyMet"

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		return err
	}

	_, err = executor.ExecuteUpdate(
		ctx,
		&StagingRecordEntity{DependencyMet: true},
		"UPDATE",
		StagingRecordEntity{}.TableName(),
		map[string]interface{}{"execution_id": executionID, "transaction_type": transactionType},
	)
	if err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to mark dependency met for execution %s, type %s", executionID, transactionType), err, true, false)
	}
	return nil
}

func (r *SQLBatchRepository) FetchReadyStagingRecords(ctx context.Context, executionID, transactionType string) ([]*model.StagingRecord, error) {
	const op = "SQLBatchRepository.FetchReadyStagingRecords"
	var entities []StagingRecordEntity

	conn, err := r.getDBConnection(ctx)
	if err != nil {
		return nil, err
	}

	query := map[string]interface{}{
		"execution_id":     executionID,
		"transaction_type": transactionType,
		"dependency_met":   true,
		"processed":        false,
	}

	err = conn.ExecuteQueryAdvanced(ctx, &entities, query, "sequence asc", 0)

	if err != nil {
		if conn.IsTableNotExistError(err) { // If the table does not exist, there is nothing ready.
			return []*model.StagingRecord{}, nil
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to fetch ready staging records for execution %s, type %s", executionID, transactionType), err, true, false)
	}

	records := make([]*model.StagingRecord, len(entities))
	for i := range entities {
		records[i] = toDomainStagingRecord(&entities[i])
	}
	return records, nil
}

func (r *SQLBatchRepository) MarkStagingProcessed(ctx context.Context, recordID string) error {
	const op = "SQLBatchRepository.MarkStagingProcessed"

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	rowsAffected, err := executor.ExecuteUpdate(
		ctx,
		&StagingRecordEntity{Processed: true, ProcessedAt: &now},
		"UPDATE",
		StagingRecordEntity{}.TableName(),
		map[string]interface{}{"id": recordID},
	)
	if err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to mark staging record %s processed", recordID), err, true, false)
	}
	if rowsAffected == 0 {
		return repository.ErrStagingRecordNotFound
	}
	return nil
}

func (r *SQLBatchRepository) MarkStagingError(ctx context.Context, recordID, message string) error {
	const op = "SQLBatchRepository.MarkStagingError"

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		return err
	}

	// A failed record also counts as processed so it is not fetched again.
	now := time.Now()
	rowsAffected, err := executor.ExecuteUpdate(
		ctx,
		&StagingRecordEntity{Processed: true, HasError: true, ErrorMessage: message, ProcessedAt: &now},
		"UPDATE",
		StagingRecordEntity{}.TableName(),
		map[string]interface{}{"id": recordID},
	)
	if err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to mark staging record %s errored", recordID), err, true, false)
	}
	if rowsAffected == 0 {
		return repository.ErrStagingRecordNotFound
	}
	return nil
}

func (r *SQLBatchRepository) CountStagingRecords(ctx context.Context, executionID string) (int64, error) {
	const op = "SQLBatchRepository.CountStagingRecords"

	conn, err := r.getDBConnection(ctx)
	if err != nil {
		return 0, err
	}

	count, err := conn.Count(ctx, &StagingRecordEntity{}, map[string]interface{}{"execution_id": executionID})
	if err != nil {
		if conn.IsTableNotExistError(err) {
			return 0, nil
		}
		return 0, exception.NewBatchError(op, fmt.Sprintf("failed to count staging records for execution %s", executionID), err, true, false)
	}
	return count, nil
}

func (r *SQLBatchRepository) ListStagingRecords(ctx context.Context, executionID string) ([]*model.StagingRecord, error) {
	const op = "SQLBatchRepository.ListStagingRecords"
	var entities []StagingRecordEntity

	conn, err := r.getDBConnection(ctx)
	if err != nil {
		return nil, err
	}

	err = conn.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"execution_id": executionID}, "sequence asc", 0)

	if err != nil {
		if conn.IsTableNotExistError(err) { // If the table does not exist, return an empty slice.
			return []*model.StagingRecord{}, nil
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to list staging records for execution %s", executionID), err, true, false)
	}

	records := make([]*model.StagingRecord, len(entities))
	for i := range entities {
		records[i] = toDomainStagingRecord(&entities[i])
	}
	return records, nil
}

func (r *SQLBatchRepository) PurgeStagingRecords(ctx context.Context, executionID string) (int64, error) {
	const op = "SQLBatchRepository.PurgeStagingRecords"

	t, err := r.TxManager.Begin(ctx)
	if err != nil {
		return 0, exception.NewBatchError(op, fmt.Sprintf("failed to begin purge transaction for execution %s", executionID), err, true, false)
	}

	rollback := func(cause error) {
		if rbErr := r.TxManager.Rollback(t); rbErr != nil {
			logger.Errorf("%s: failed to roll back purge transaction for execution %s (cause: %v): %v", op, executionID, cause, rbErr)
		}
	}

	removed, err := t.ExecuteUpdate(ctx, &StagingRecordEntity{}, "DELETE", StagingRecordEntity{}.TableName(), map[string]interface{}{"execution_id": executionID})
	if err != nil {
		rollback(err)
		if r.isTableNotExist(ctx, err) { // Nothing was ever staged if the table does not exist.
			return 0, nil
		}
		return 0, exception.NewBatchError(op, fmt.Sprintf("failed to purge staging records for execution %s", executionID), err, true, false)
	}

	// The sequence counter goes with the records so a later execution reusing
	// the ID starts numbering from 1 again.
	if _, err := t.ExecuteUpdate(ctx, &StagingSequenceEntity{}, "DELETE", StagingSequenceEntity{}.TableName(), map[string]interface{}{"execution_id": executionID}); err != nil {
		rollback(err)
		return 0, exception.NewBatchError(op, fmt.Sprintf("failed to remove sequence counter for execution %s", executionID), err, true, false)
	}

	if err := r.TxManager.Commit(t); err != nil {
		return 0, exception.NewBatchError(op, fmt.Sprintf("failed to commit purge transaction for execution %s", executionID), err, true, false)
	}
	return removed, nil
}

// --- Idempotency implementation ---

func (r *SQLBatchRepository) CreateIdempotencyRecord(ctx context.Context, record *model.IdempotencyRecord) error {
	const op = "SQLBatchRepository.CreateIdempotencyRecord"

	originalVersion := record.Version
	record.Version = 1
	entity := fromDomainIdempotencyRecord(record)

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		record.Version = originalVersion
		return err
	}

	// An upsert that does nothing on conflict makes the create atomic: zero
	// rows affected means another submitter claimed the key first.
	rowsAffected, err := executor.ExecuteUpsert(ctx, entity, entity.TableName(), []string{"idempotency_key"}, nil)
	if err != nil {
		record.Version = originalVersion
		return exception.NewBatchError(op, fmt.Sprintf("failed to create idempotency record (Key: %s)", record.Key), err, true, false)
	}
	if rowsAffected == 0 {
		record.Version = originalVersion
		return repository.ErrIdempotencyKeyExists
	}
	return nil
}

func (r *SQLBatchRepository) FindIdempotencyRecordByKey(ctx context.Context, key string) (*model.IdempotencyRecord, error) {
	const op = "SQLBatchRepository.FindIdempotencyRecordByKey"
	var entity IdempotencyRecordEntity

	conn, err := r.getDBConnection(ctx)
	if err != nil {
		return nil, err
	}

	err = conn.ExecuteQueryAdvanced(ctx, &entity, map[string]interface{}{"idempotency_key": key}, "", 1)

	if err != nil {
		if conn.IsTableNotExistError(err) { // If the table does not exist, treat it as not found.
			return nil, repository.ErrIdempotencyRecordNotFound
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find idempotency record by key: %s", key), err, true, false)
	}

	if entity.Key == "" {
		return nil, repository.ErrIdempotencyRecordNotFound
	}

	return toDomainIdempotencyRecord(&entity), nil
}

func (r *SQLBatchRepository) UpdateIdempotencyRecord(ctx context.Context, record *model.IdempotencyRecord, expectedStatus model.IdempotencyStatus) error {
	const op = "SQLBatchRepository.UpdateIdempotencyRecord"

	originalVersion := record.Version
	record.Version = originalVersion + 1
	entity := fromDomainIdempotencyRecord(record)

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		record.Version = originalVersion
		return err
	}

	// UPDATE_ALL writes every column so a retry can clear the previous failure
	// reason and cached result. The status condition is the compare-and-set
	// guard: a concurrent writer having moved the record leaves zero rows.
	rowsAffected, err := executor.ExecuteUpdate(
		ctx,
		entity,
		"UPDATE_ALL",
		entity.TableName(),
		map[string]interface{}{"idempotency_key": record.Key, "status": string(expectedStatus)},
	)
	if err != nil {
		record.Version = originalVersion
		return exception.NewBatchError(op, fmt.Sprintf("failed to update idempotency record (Key: %s)", record.Key), err, true, false)
	}
	if rowsAffected == 0 {
		record.Version = originalVersion
		current, findErr := r.FindIdempotencyRecordByKey(ctx, record.Key)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrIdempotencyRecordNotFound) {
				return repository.ErrIdempotencyRecordNotFound
			}
			return findErr
		}
		return exception.NewOptimisticLockingFailureException("repository",
			fmt.Sprintf("idempotency record %s is %s while %s was expected", record.Key, current.Status, expectedStatus), nil)
	}
	return nil
}

func (r *SQLBatchRepository) DeleteIdempotencyRecord(ctx context.Context, key string) error {
	const op = "SQLBatchRepository.DeleteIdempotencyRecord"

	executor, err := r.getTxExecutor(ctx)
	if err != nil {
		return err
	}

	_, err = executor.ExecuteUpdate(ctx, &IdempotencyRecordEntity{}, "DELETE", IdempotencyRecordEntity{}.TableName(), map[string]interface{}{"idempotency_key": key})
	if err != nil {
		if r.isTableNotExist(ctx, err) { // An absent table holds no key to delete.
			return nil
		}
		return exception.NewBatchError(op, fmt.Sprintf("failed to delete idempotency record (Key: %s)", key), err, true, false)
	}
	return nil
}

// Close implements repository.BatchRepository.
func (r *SQLBatchRepository) Close() error {
	// The underlying DBConnection is managed by the DBProvider and its lifecycle,
	// so it is not closed directly by the repository.
	return nil
}

// Verify that SQLBatchRepository implements all embedded interfaces of repository.BatchRepository.
var _ repository.BatchRepository = (*SQLBatchRepository)(nil)

// BatchRepositoryParams defines the dependencies required to create a NewBatchRepository.
type BatchRepositoryParams struct {
	fx.In
	DBResolver coreAdapter.ResourceConnectionResolver // DBResolver is used to resolve database connections.
	// RepositoryTxManager is the transaction manager for the metadata database.
	RepositoryTxManager tx.TransactionManager `name:"repository"`
	// Cfg is the application configuration.
	Cfg *config.Config
}

// NewBatchRepository creates and returns a BatchRepository instance backed by
// SQL storage. This function is intended to be used as an Fx provider.
func NewBatchRepository(p BatchRepositoryParams) repository.BatchRepository {
	// Determine the database connection name for the repository.
	// It defaults to "metadata" if not explicitly configured in Infrastructure.RepositoryDBRef.
	dbName := p.Cfg.Fabric.Infrastructure.RepositoryDBRef
	if dbName == "" {
		dbName = "metadata"
	}

	return NewSQLBatchRepository(p.DBResolver, p.RepositoryTxManager, dbName)
}
