// Package mysql provides a GORM DBProvider implementation for MySQL databases.
package mysql

import (
	"fmt"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	dbconfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/config"
	gormadapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/gorm"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// init registers the MySQL dialector factory with the GORM adapter, so
// importing this package is enough to make "mysql" connections resolvable.
func init() {
	gormadapter.RegisterDialector("mysql", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		p := &MySQLDBProvider{} // Temporary instance to call the ConnectionString method.
		connStr := p.ConnectionString(cfg)
		return mysql.Open(connStr), nil
	})
}

// MySQLDBProvider implements database.DBProvider for MySQL connections.
type MySQLDBProvider struct {
	*gormadapter.BaseProvider
}

// ConnectionString generates the DSN (Data Source Name) for MySQL connections.
func (p *MySQLDBProvider) ConnectionString(c dbconfig.DatabaseConfig) string {
	// DSN format expected by GORM (gorm.io/driver/mysql):
	// user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
	var authPart string
	if c.User != "" {
		authPart = c.User
		if c.Password != "" {
			authPart = fmt.Sprintf("%s:%s", c.User, c.Password)
		}
		authPart += "@"
	}

	return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		authPart, c.Host, c.Port, c.Database)
}

// NewProvider creates a new database.DBProvider for MySQL.
// This function is intended to be used with fx.Provide.
func NewProvider(cfg *config.Config) database.DBProvider {
	return &MySQLDBProvider{BaseProvider: gormadapter.NewBaseProvider(cfg, "mysql")}
}
