package migration_test

import (
	"context"
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/dummy"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/component/migration"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	batchtest "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/test"
)

func listMigrationFiles(t *testing.T, dialect string) []string {
	t.Helper()
	entries, err := fs.ReadDir(migration.MigrationsFS(), dialect)
	require.NoError(t, err, "dialect directory %s must be embedded", dialect)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func TestMigrationsFS_CarriesTheSameVersionsForEveryDialect(t *testing.T) {
	reference := listMigrationFiles(t, "postgres")
	require.NotEmpty(t, reference)

	for _, dialect := range []string{"mysql", "sqlite"} {
		assert.Equal(t, reference, listMigrationFiles(t, dialect),
			"dialect %s must carry the same migration versions as postgres", dialect)
	}
}

func TestMigrationsFS_PairsEveryUpWithADown(t *testing.T) {
	for _, dialect := range []string{"postgres", "mysql", "sqlite"} {
		names := listMigrationFiles(t, dialect)
		set := make(map[string]bool, len(names))
		for _, name := range names {
			set[name] = true
		}
		for _, name := range names {
			if !strings.HasSuffix(name, ".up.sql") {
				continue
			}
			down := strings.TrimSuffix(name, ".up.sql") + ".down.sql"
			assert.True(t, set[down], "%s/%s has no matching down migration", dialect, name)
		}
	}
}

func TestBootstrap_SkipsDummyConnection(t *testing.T) {
	resolver := &batchtest.StaticDBResolver{Conn: dummy.NewDummyDBConnection()}

	err := migration.Bootstrap(context.Background(), resolver, config.NewConfig())

	assert.NoError(t, err)
	assert.Equal(t, []string{"metadata"}, resolver.ResolvedNames)
}

func TestBootstrap_DefaultsTheRepositoryConnectionName(t *testing.T) {
	resolver := &batchtest.StaticDBResolver{Conn: dummy.NewDummyDBConnection()}
	cfg := config.NewConfig()
	cfg.Fabric.Infrastructure.RepositoryDBRef = ""

	require.NoError(t, migration.Bootstrap(context.Background(), resolver, cfg))

	assert.Equal(t, []string{"metadata"}, resolver.ResolvedNames)
}

func TestMigrator_RejectsUnknownDialect(t *testing.T) {
	conn, _ := batchtest.NewGormSqlmockConnection(t, "oracle", "metadata")

	err := migration.NewMigrator(conn).Up(context.Background(), migration.MigrationsFS(), "postgres")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type for migration: oracle")
}
