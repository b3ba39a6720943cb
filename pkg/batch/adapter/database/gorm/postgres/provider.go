// Package postgres provides a GORM DBProvider implementation for PostgreSQL and Redshift databases.
package postgres

import (
	"fmt"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	dbconfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/config"
	gormadapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/gorm"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// init registers the PostgreSQL dialector factory with the GORM adapter, so
// importing this package is enough to make "postgres" connections resolvable.
// Redshift connections reuse this dialector through the postgres provider.
func init() {
	gormadapter.RegisterDialector("postgres", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		p := &PostgresDBProvider{} // Temporary instance to call the ConnectionString method.
		connStr := p.ConnectionString(cfg)
		return postgres.Open(connStr), nil
	})
}

// PostgresDBProvider implements database.DBProvider for PostgreSQL and Redshift connections.
type PostgresDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString generates the DSN (Data Source Name) for PostgreSQL connections.
func (p *PostgresDBProvider) ConnectionString(c dbconfig.DatabaseConfig) string {
	// DSN format expected by GORM (gorm.io/driver/postgres)
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.Sslmode)
}

// NewProvider creates a new database.DBProvider for PostgreSQL.
// This function is intended to be used with fx.Provide.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &PostgresDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, "postgres")}
}
