package gorm

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	dbconfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/config"
	coreAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/tx"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gorm_logger "gorm.io/gorm/logger"
)

// TableNamer represents a struct that has a TableName() string method.
type TableNamer interface {
	TableName() string
}

// applyTableName applies the table name to the GORM DB session if the model implements the TableNamer interface.
func applyTableName(db *gorm.DB, model interface{}) *gorm.DB {
	val := reflect.ValueOf(model)

	// Dereference the pointer
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	// 1. Check if the model itself implements TableNamer (for single entity)
	if namer, ok := model.(TableNamer); ok {
		return db.Table(namer.TableName())
	}

	// 2. For slices, check if the element type implements TableNamer.
	if val.Kind() == reflect.Slice || val.Kind() == reflect.Array {
		elemType := val.Type().Elem()

		// If the element is a pointer type, get its element type.
		if elemType.Kind() == reflect.Ptr {
			elemType = elemType.Elem()
		}

		// TableName() is implemented with a value receiver, so check through a
		// fresh pointer instance.
		if reflect.New(elemType).Type().Implements(reflect.TypeOf((*TableNamer)(nil)).Elem()) {
			if namer, ok := reflect.New(elemType).Interface().(TableNamer); ok {
				return db.Table(namer.TableName())
			}
		}
	}

	// 3. If unable to resolve, let GORM infer the table name from the model.
	return db.Model(model)
}

// NewGormLogger creates a gorm.Logger instance based on the configured log level.
func NewGormLogger(level string) gorm_logger.Interface {
	var gormLevel gorm_logger.LogLevel
	switch config.LogLevel(level) {
	case config.LogLevelSilent:
		gormLevel = gorm_logger.Silent
	case config.LogLevelError:
		gormLevel = gorm_logger.Error
	case config.LogLevelWarn:
		gormLevel = gorm_logger.Warn
	case config.LogLevelInfo:
		gormLevel = gorm_logger.Info
	default:
		// Default to Silent if not explicitly configured or unknown
		gormLevel = gorm_logger.Silent
	}

	return gorm_logger.New(
		NewGormWriter(),
		gorm_logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Default slow threshold
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GormWriter redirects GORM log output to the platform logger.
type GormWriter struct{}

// NewGormWriter creates a new instance of GormWriter.
func NewGormWriter() *GormWriter {
	return &GormWriter{}
}

// Write implements io.Writer.
func (w *GormWriter) Write(p []byte) (n int, err error) {
	w.Printf("%s", string(p))
	return len(p), nil
}

// Printf implements the gorm_logger.Writer interface.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	// GORM statement logs are in the format [<duration>ms] SELECT ..., treat them as DEBUG.
	if strings.Contains(msg, "[") && strings.Contains(msg, "]") && (strings.Contains(msg, "SELECT") || strings.Contains(msg, "INSERT") || strings.Contains(msg, "UPDATE") || strings.Contains(msg, "DELETE")) {
		logger.Debugf("[GORM] %s", msg)
	} else {
		// Other GORM logs (connection info, warnings, etc.) are treated as INFO.
		logger.Infof("[GORM] %s", msg)
	}
}

// isTableNotExistMessage reports whether a driver error message describes a
// missing table. The checks cover the wording of PostgreSQL, MySQL and SQLite.
func isTableNotExistMessage(errMsg string) bool {
	return (strings.Contains(errMsg, "relation \"") && strings.Contains(errMsg, "\" does not exist")) || // PostgreSQL
		(strings.Contains(errMsg, "Error 1146") && strings.Contains(errMsg, "doesn't exist")) || // MySQL
		strings.Contains(errMsg, "no such table:") // SQLite
}

// GormDBAdapter implements database.DBConnection on top of a GORM session.
type GormDBAdapter struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	cfg    dbconfig.DatabaseConfig
	dbType string
	name   string
}

// NewGormDBAdapter creates a new GormDBAdapter.
func NewGormDBAdapter(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) database.DBConnection {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("Failed to get underlying *sql.DB: %v", err)
	}
	return &GormDBAdapter{
		db:     db,
		sqlDB:  sqlDB,
		cfg:    cfg,
		dbType: cfg.Type,
		name:   name,
	}
}

// GetGormDB returns the underlying *gorm.DB instance.
// NOTE: This method is intended for internal use within the 'gorm' adapter package only.
func (a *GormDBAdapter) GetGormDB() *gorm.DB {
	return a.db
}

func (a *GormDBAdapter) Close() error {
	if a.sqlDB != nil {
		logger.Infof("Closing database connection '%s'...", a.name)
		return a.sqlDB.Close()
	}
	return nil
}

func (a *GormDBAdapter) Type() string {
	return a.dbType
}

func (a *GormDBAdapter) Name() string {
	return a.name
}

// RefreshConnection implements database.DBConnection.
func (a *GormDBAdapter) RefreshConnection(ctx context.Context) error {
	if a.sqlDB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	// Re-ping the connection pool to ensure validity
	return a.sqlDB.PingContext(ctx)
}

// Config implements database.DBConnection.
func (a *GormDBAdapter) Config() dbconfig.DatabaseConfig {
	return a.cfg
}

// GetSQLDB implements database.DBConnection.
func (a *GormDBAdapter) GetSQLDB() (*sql.DB, error) {
	if a.sqlDB == nil {
		return nil, fmt.Errorf("underlying sql.DB is nil")
	}
	return a.sqlDB, nil
}

// IsTableNotExistError implements database.DBConnection.
func (a *GormDBAdapter) IsTableNotExistError(err error) bool {
	if err == nil {
		return false
	}
	return isTableNotExistMessage(err.Error())
}

// ExecuteQuery implements database.DBExecutor.
// This method executes a read operation using GORM's Find method.
func (a *GormDBAdapter) ExecuteQuery(ctx context.Context, target interface{}, query map[string]interface{}) error {
	db := a.db.WithContext(ctx)

	db = applyTableName(db, target)

	// If query is a map, it is used as a Where clause.
	result := db.Where(query).Find(target)

	if result.Error != nil {
		return result.Error
	}

	// Find() does not return ErrRecordNotFound for slices; an empty result is
	// the caller's to interpret.
	return nil
}

// ExecuteQueryAdvanced implements database.DBExecutor.
func (a *GormDBAdapter) ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error {
	db := a.db.WithContext(ctx)

	db = applyTableName(db, target)

	if query != nil {
		db = db.Where(query)
	}

	if orderBy != "" {
		db = db.Order(orderBy)
	}

	if limit > 0 {
		db = db.Limit(limit)
	}

	result := db.Find(target)

	if result.Error != nil {
		return result.Error
	}
	return nil
}

// Count implements database.DBExecutor.
func (a *GormDBAdapter) Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error) {
	db := a.db.WithContext(ctx)

	db = applyTableName(db, model)

	if query != nil {
		db = db.Where(query)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Pluck implements database.DBExecutor.
func (a *GormDBAdapter) Pluck(ctx context.Context, model interface{}, column string, target interface{}, query map[string]interface{}) error {
	db := a.db.WithContext(ctx)

	db = applyTableName(db, model)

	if query != nil {
		db = db.Where(query)
	}

	db = db.Distinct()
	if err := db.Pluck(column, target).Error; err != nil {
		return err
	}
	return nil
}

// ExecuteUpdate implements database.DBExecutor.
// This method executes a write operation (CREATE, UPDATE, UPDATE_ALL, DELETE) using GORM.
func (a *GormDBAdapter) ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (rowsAffected int64, err error) {
	db := a.db.WithContext(ctx)

	// NOTE: Skip GORM's default transaction.
	db = db.Session(&gorm.Session{SkipDefaultTransaction: true})

	return executeUpdate(db, model, operation, tableName, query)
}

// ExecuteUpsert implements database.DBExecutor.
func (a *GormDBAdapter) ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (rowsAffected int64, err error) {
	db := a.db.WithContext(ctx)

	// NOTE: Skip GORM's default transaction.
	db = db.Session(&gorm.Session{SkipDefaultTransaction: true})

	return executeUpsert(db, model, tableName, conflictColumns, updateColumns)
}

// executeUpdate is the write path shared by the connection adapter and the
// transaction adapter. 'model' must be a pointer to an entity, or for CREATE a
// pointer to an entity or a slice of entities.
func executeUpdate(db *gorm.DB, model interface{}, operation string, tableName string, query map[string]interface{}) (int64, error) {
	var result *gorm.DB

	// Apply table name if specified (prioritize instructions from the repository layer).
	if tableName != "" {
		db = db.Table(tableName)
	}

	switch operation {
	case "CREATE":
		result = db.Create(model)

	case "UPDATE":
		// db.Model(model) automatically adds the model's primary key, when set,
		// as a WHERE clause condition. Only non-zero fields are written.
		result = db.Model(model).Where(query).Updates(model)

	case "UPDATE_ALL":
		// Select("*") writes every non-key column, including zero values. Used
		// where a field must be clearable (e.g. a failure reason on retry).
		result = db.Model(model).Where(query).Select("*").Updates(model)

	case "DELETE":
		if query != nil {
			db = db.Where(query)
		}
		result = db.Delete(model)

	default:
		return 0, fmt.Errorf("unsupported update operation: %s", operation)
	}

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// executeUpsert is the upsert path shared by the connection adapter and the
// transaction adapter.
func executeUpsert(db *gorm.DB, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (int64, error) {
	if tableName != "" {
		db = db.Table(tableName)
	}

	var columns []clause.Column
	for _, col := range conflictColumns {
		columns = append(columns, clause.Column{Name: col})
	}

	onConflict := clause.OnConflict{
		Columns: columns,
	}

	if len(updateColumns) > 0 {
		// DO UPDATE
		onConflict.DoUpdates = clause.AssignmentColumns(updateColumns)
	} else {
		// DO NOTHING
		onConflict.DoNothing = true
	}

	result := db.Clauses(onConflict).Create(model)

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GormTransactionManagerFactory is the GORM implementation of tx.TransactionManagerFactory.
type GormTransactionManagerFactory struct {
	dbResolver database.DBConnectionResolver
}

// NewGormTransactionManagerFactory creates an instance of GormTransactionManagerFactory.
func NewGormTransactionManagerFactory(dbResolver database.DBConnectionResolver) tx.TransactionManagerFactory {
	return &GormTransactionManagerFactory{dbResolver: dbResolver}
}

// NewTransactionManager creates a TransactionManager bound to the connection's
// data source. The manager re-resolves the connection on every Begin, so it
// stays valid across reconnects.
func (f *GormTransactionManagerFactory) NewTransactionManager(conn coreAdapter.ResourceConnection) tx.TransactionManager {
	return &GormTransactionManager{
		dbResolver: f.dbResolver,
		dbName:     conn.Name(),
	}
}
