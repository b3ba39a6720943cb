// Package test provides shared fixtures for the persistence tests: a GORM
// session scripted through sqlmock and a connection resolver pinned to a
// single connection. Production code never imports this package.
package test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	dbconfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/config"
	gormadapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/gorm"
)

// NewGormSqlmockConnection opens a GORM session over a fresh sqlmock
// connection and wraps it in the platform DB adapter, mirroring how the
// dialect providers hand sessions to the adapter. The returned sqlmock handle
// scripts the statements the test expects. dbType only sets the reported
// connection type; the session always speaks the mysql dialect, which is the
// one sqlmock understands without a version handshake.
//
// The connection is closed through t.Cleanup, with the close expectation
// registered just before it so in-test ExpectationsWereMet calls are not
// disturbed.
func NewGormSqlmockConnection(t *testing.T, dbType, name string) (database.DBConnection, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	conn := gormadapter.NewGormDBAdapter(gormDB, dbconfig.DatabaseConfig{Type: dbType}, name)

	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, conn.Close())
	})

	return conn, mock
}
