package gorm

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	tx "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/tx"
)

// GormTxAdapter implements tx.Tx on top of a GORM transaction handle.
type GormTxAdapter struct {
	db *gorm.DB
}

// ExecuteUpdate implements tx.TxExecutor.
// Same write path as GormDBAdapter.ExecuteUpdate, operating on the transaction's *gorm.DB.
func (t *GormTxAdapter) ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (rowsAffected int64, err error) {
	// SkipDefaultTransaction is not needed as the DB within the transaction is used.
	return executeUpdate(t.db.WithContext(ctx), model, operation, tableName, query)
}

// ExecuteUpsert implements tx.TxExecutor.
// Same upsert path as GormDBAdapter.ExecuteUpsert, operating on the transaction's *gorm.DB.
func (t *GormTxAdapter) ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (rowsAffected int64, err error) {
	return executeUpsert(t.db.WithContext(ctx), model, tableName, conflictColumns, updateColumns)
}

// Savepoint implements tx.Tx.
func (t *GormTxAdapter) Savepoint(name string) error {
	return t.db.SavePoint(name).Error
}

// RollbackToSavepoint implements tx.Tx.
func (t *GormTxAdapter) RollbackToSavepoint(name string) error {
	return t.db.RollbackTo(name).Error
}

// GormTransactionManager implements tx.TransactionManager.
type GormTransactionManager struct {
	dbResolver database.DBConnectionResolver
	dbName     string
}

// Begin starts a transaction on a freshly resolved connection, so a pooled
// connection invalidated since the manager was created does not surface here.
func (m *GormTransactionManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	conn, err := m.dbResolver.ResolveDBConnection(ctx, m.dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB connection '%s' for transaction: %w", m.dbName, err)
	}
	// Reaching into the concrete adapter is acceptable only within this package.
	adapter, ok := conn.(*GormDBAdapter)
	if !ok {
		return nil, fmt.Errorf("internal error: DBConnection implementation is not *GormDBAdapter")
	}
	gormDB := adapter.GetGormDB().WithContext(ctx)

	var txOpts *sql.TxOptions
	if len(opts) > 0 && opts[0] != nil {
		txOpts = opts[0]
	}

	gormTx := gormDB.Begin(txOpts)
	if gormTx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", gormTx.Error)
	}

	return &GormTxAdapter{db: gormTx}, nil
}

// Commit commits the transaction.
func (m *GormTransactionManager) Commit(t tx.Tx) error {
	gormTxAdapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter")
	}
	return gormTxAdapter.db.Commit().Error
}

// Rollback rolls back the transaction.
func (m *GormTransactionManager) Rollback(t tx.Tx) error {
	gormTxAdapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter")
	}
	return gormTxAdapter.db.Rollback().Error
}
