// Package tx provides an abstraction for transaction management in the Fabric
// batch platform. It gives the persistence layer unified transaction control
// across database backends without binding it to a concrete driver.
package tx

import (
	"context"
	"database/sql"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
)

// TxExecutor is an interface that defines common write operations executable within a transaction.
// This interface is intended to be embedded in both DBConnection and Tx,
// allowing data operations to be performed in the same way regardless of the presence of a transaction.
type TxExecutor interface {
	// ExecuteUpdate performs database write operations (INSERT, UPDATE, DELETE) on the specified model.
	//
	// ctx: The context for the operation.
	// model: A Go struct or slice containing the data to be saved or updated in the database.
	// operation: A string indicating the type of operation to be performed
	//            ("CREATE", "UPDATE", "UPDATE_ALL", "DELETE"). "UPDATE" writes
	//            the model's non-zero fields; "UPDATE_ALL" writes every
	//            non-key column, including zero values.
	// tableName: The name of the target database table.
	// query: A key-value map for specifying conditions in UPDATE or DELETE operations.
	//        Keys are column names, values are corresponding values. Multiple entries are combined with AND.
	// Returns: The number of affected rows and any error that occurred during the operation.
	ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (rowsAffected int64, err error)

	// ExecuteUpsert performs an UPSERT operation (INSERT OR REPLACE / ON CONFLICT DO UPDATE) on the database.
	//
	// ctx: The context for the operation.
	// model: A Go struct or slice containing the data to be inserted or updated in the database.
	// tableName: The name of the target database table.
	// conflictColumns: A list of column names used to detect conflicts. If the combination of these columns
	//                  duplicates an existing record, an UPSERT is triggered.
	// updateColumns: A list of column names to be updated if a conflict occurs. If this list is nil or empty,
	//                conflicts will be treated as DO NOTHING.
	// Returns: The number of affected rows and any error that occurred during the operation.
	ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (rowsAffected int64, err error)
}

// Tx represents an ongoing database transaction.
// Through this interface, data operations within a transaction and savepoint management are possible.
type Tx interface {
	TxExecutor // Embeds write operations executable within a transaction

	// Savepoint creates a new savepoint within the current transaction.
	// name: The unique name for the savepoint to be created.
	Savepoint(name string) error

	// RollbackToSavepoint rolls back the transaction to the savepoint with the
	// specified name. Changes made after the savepoint are undone, changes made
	// before it are preserved.
	RollbackToSavepoint(name string) error
}

// TransactionManager is an interface that manages the lifecycle of database transactions (begin, commit, rollback).
type TransactionManager interface {
	// Begin starts a new database transaction.
	// opts: Optional arguments specifying transaction options (e.g., isolation level, read-only flag).
	Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error)
	// Commit commits the specified transaction, persisting all changes made within it.
	Commit(tx Tx) error
	// Rollback rolls back the specified transaction, undoing all changes made within it.
	Rollback(tx Tx) error
}

// TransactionManagerFactory is an abstract factory for creating TransactionManager instances from a resource connection.
// This allows for the generation of TransactionManagers that are independent of specific database connection types.
type TransactionManagerFactory interface {
	// NewTransactionManager creates a new TransactionManager bound to the
	// specified connection's data source.
	NewTransactionManager(conn adapter.ResourceConnection) TransactionManager
}

// txContextKey is the context key under which an ambient transaction travels.
type txContextKey struct{}

// NewContext returns a context carrying the given transaction. Repository
// write operations executed with this context join the transaction instead of
// writing through their own connection.
func NewContext(ctx context.Context, t Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, t)
}

// FromContext extracts the ambient transaction from the context, if any.
func FromContext(ctx context.Context) (Tx, bool) {
	t, ok := ctx.Value(txContextKey{}).(Tx)
	return t, ok
}
