package migration

import (
	"context"

	"go.uber.org/fx"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// Bootstrap brings the repository database schema up to date before any job
// runs. The migration directory is selected by the resolved connection's
// dialect. A connection configured as 'dummy' skips migration entirely, which
// is how DB-less runs start without schema work.
func Bootstrap(ctx context.Context, resolver database.DBConnectionResolver, cfg *config.Config) error {
	dbName := cfg.Fabric.Infrastructure.RepositoryDBRef
	if dbName == "" {
		dbName = "metadata"
	}

	conn, err := resolver.ResolveDBConnection(ctx, dbName)
	if err != nil {
		return err
	}

	if conn.Type() == "dummy" {
		logger.Infof("Schema bootstrap: DB connection '%s' is configured as 'dummy'. Skipping migration.", dbName)
		return nil
	}

	return NewMigrator(conn).Up(ctx, MigrationsFS(), conn.Type())
}

// Module wires the schema bootstrap into the application start sequence.
var Module = fx.Options(
	fx.Invoke(registerBootstrapHook),
)

func registerBootstrapHook(lc fx.Lifecycle, resolver database.DBConnectionResolver, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return Bootstrap(ctx, resolver, cfg)
		},
	})
}
