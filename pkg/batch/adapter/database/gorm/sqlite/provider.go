// Package sqlite provides a GORM DBProvider implementation for SQLite databases.
package sqlite

import (
	"errors"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	dbconfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/config"
	gormadapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/gorm"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// init registers the SQLite dialector factory with the GORM adapter, so
// importing this package is enough to make "sqlite" connections resolvable.
func init() {
	gormadapter.RegisterDialector("sqlite", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" { // Ensure database path is provided.
			return nil, errors.New("SQLite database path cannot be empty")
		}
		p := &SQLiteDBProvider{} // Temporary instance to call the ConnectionString method.
		connStr := p.ConnectionString(cfg)
		return sqlite.Open(connStr), nil
	})
}

// SQLiteDBProvider implements database.DBProvider for SQLite connections.
type SQLiteDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString generates the DSN (Data Source Name) for SQLite connections.
func (p *SQLiteDBProvider) ConnectionString(c dbconfig.DatabaseConfig) string {
	// The GORM SQLite dialector expects the file path directly.
	return c.Database
}

// NewProvider creates a new database.DBProvider for SQLite.
// This function is intended to be used with fx.Provide.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &SQLiteDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, "sqlite")}
}
