// Package app composes the platform modules into a runnable fx application.
// It selects the persistence stack from configuration, assembles the storage
// adapters behind the connection resolver, and owns the lifecycle hooks that
// load job definitions and release pooled connections on shutdown.
package app

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	dbconfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/config"
	dummy "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/dummy"
	gormadapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/gorm"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/gorm/mysql"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/gorm/postgres"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database/gorm/sqlite"
	storageAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage/gcs"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage/local"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/component/output"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/component/source"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/tx"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/infrastructure/repository/inmemory"
	sqlrepo "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/infrastructure/repository/sql"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/configbinder"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
)

// repositoryDatabaseType looks up the configured type of the repository
// database connection. An unconfigured or undecodable entry reports "" and the
// application falls back to DB-less mode.
func repositoryDatabaseType(cfg *config.Config) string {
	name := cfg.Fabric.Infrastructure.RepositoryDBRef
	if name == "" {
		return ""
	}
	rawConfig, ok := cfg.Fabric.Databases[name]
	if !ok {
		logger.Warnf("Repository database '%s' is not configured under 'fabric.database'.", name)
		return ""
	}
	var dbConfig dbconfig.DatabaseConfig
	if err := configbinder.BindConfigMap(rawConfig, &dbConfig); err != nil {
		logger.Warnf("Failed to decode database config for '%s': %v", name, err)
		return ""
	}
	return dbConfig.Type
}

// DatabaseOptions selects the persistence stack from the configured repository
// connection. A connection of type "dummy" (or no repository configuration at
// all) runs the platform DB-less: in-memory repositories and the seedable
// in-memory source reader. Anything else runs the gorm stack with the dialect
// providers and the SQL-backed repositories and source reader.
func DatabaseOptions(cfg *config.Config) []fx.Option {
	dbType := repositoryDatabaseType(cfg)
	if dbType == "" || dbType == "dummy" {
		logger.Infof("Repository database is '%s'. Running DB-less on in-memory repositories.",
			cfg.Fabric.Infrastructure.RepositoryDBRef)
		return []fx.Option{
			dummy.Module,
			inmemory.Module,
			fx.Provide(source.NewInMemorySourceReader),
			fx.Provide(func(reader *source.InMemorySourceReader) port.SourceReader { return reader }),
		}
	}

	return []fx.Option{
		gormadapter.Module,
		postgres.Module,
		mysql.Module,
		sqlite.Module,

		fx.Provide(sqlrepo.NewBatchRepository),
		// The engine components depend on the narrowed aggregate views.
		fx.Provide(
			func(r repository.BatchRepository) repository.JobExecution { return r },
			func(r repository.BatchRepository) repository.Staging { return r },
			func(r repository.BatchRepository) repository.Idempotency { return r },
		),
		fx.Provide(fx.Annotate(
			NewRepositoryTxManager,
			fx.ResultTags(`name:"repository"`),
		)),
		fx.Provide(source.NewSQLSourceReader),
	}
}

// NewRepositoryTxManager builds the transaction manager of the repository
// database. The connection is resolved once here to bind the manager to its
// data source; the manager re-resolves on every Begin, so a reconnect after
// startup does not invalidate it.
func NewRepositoryTxManager(
	resolver database.DBConnectionResolver,
	txFactory tx.TransactionManagerFactory,
	cfg *config.Config,
) (tx.TransactionManager, error) {
	name := cfg.Fabric.Infrastructure.RepositoryDBRef
	if name == "" {
		name = "metadata"
	}
	conn, err := resolver.ResolveDBConnection(context.Background(), name)
	if err != nil {
		return nil, err
	}
	return txFactory.NewTransactionManager(conn), nil
}

// StorageProviderMapParams collects the storage providers registered under the
// storage_providers value group.
type StorageProviderMapParams struct {
	fx.In
	Providers []storageAdapter.StorageProvider `group:"storage_providers"`
}

// NewStorageProviderMap keys the collected storage providers by their type so
// the resolver can select the provider owning a configured connection.
func NewStorageProviderMap(p StorageProviderMapParams) map[string]storageAdapter.StorageProvider {
	providerMap := make(map[string]storageAdapter.StorageProvider, len(p.Providers))
	for _, provider := range p.Providers {
		providerMap[provider.Type()] = provider
	}
	logger.Debugf("Registered %d storage provider(s).", len(providerMap))
	return providerMap
}

// NewAppStorageConnectionResolver provides the storage connection resolver
// over the typed provider map.
func NewAppStorageConnectionResolver(
	providers map[string]storageAdapter.StorageProvider,
	cfg *config.Config,
) storageAdapter.StorageConnectionResolver {
	return storageAdapter.NewStorageConnectionResolver(providers, cfg)
}

// connectionCleanupParams defines the dependencies of registerConnectionCleanup.
type connectionCleanupParams struct {
	fx.In
	Lifecycle        fx.Lifecycle
	DBProviders      []database.DBProvider            `group:"db_providers"`
	StorageProviders []storageAdapter.StorageProvider `group:"storage_providers"`
}

// registerConnectionCleanup appends a shutdown hook closing every pooled
// connection held by the database and storage providers. Providers close in
// parallel; the last error wins and is reported to fx.
func registerConnectionCleanup(p connectionCleanupParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Infof("Closing all database and storage connections...")
			var wg sync.WaitGroup
			var mu sync.Mutex
			var lastErr error

			record := func(err error) {
				mu.Lock()
				lastErr = err
				mu.Unlock()
			}

			for _, provider := range p.DBProviders {
				wg.Add(1)
				go func(provider database.DBProvider) {
					defer wg.Done()
					if err := provider.CloseAll(); err != nil {
						logger.Errorf("Failed to close connections for DB provider %s: %v", provider.Type(), err)
						record(err)
					}
				}(provider)
			}
			for _, provider := range p.StorageProviders {
				wg.Add(1)
				go func(provider storageAdapter.StorageProvider) {
					defer wg.Done()
					if err := provider.CloseAll(); err != nil {
						logger.Errorf("Failed to close connections for storage provider %s: %v", provider.Type(), err)
						record(err)
					}
				}(provider)
			}
			wg.Wait()
			return lastErr
		},
	})
}

// Module wires the infrastructure shared by every run mode: the storage
// adapters, the output components built on them, and the shutdown cleanup of
// pooled connections.
var Module = fx.Options(
	local.Module,
	gcs.Module,
	fx.Provide(NewStorageProviderMap),
	fx.Provide(NewAppStorageConnectionResolver),

	fx.Provide(output.NewFileOutputWriter),
	fx.Provide(output.NewParquetStagingArchiver),

	fx.Invoke(registerConnectionCleanup),
)
