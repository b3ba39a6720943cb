package gorm

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	coreAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// GormDBConnectionResolver is the GORM implementation of database.DBConnectionResolver.
// It selects the DBProvider matching a connection's configured type and checks
// the health of the connection it hands out, reconnecting when the pool has
// gone stale.
type GormDBConnectionResolver struct {
	dbProviders map[string]database.DBProvider // DBProviders keyed by database type (e.g., "postgres", "mysql").
	cfg         *config.Config
}

// GormDBConnectionResolverParams defines the dependencies of NewGormDBConnectionResolver.
type GormDBConnectionResolverParams struct {
	fx.In
	// DBProviders are all DBProvider implementations, collected by Fx from the
	// db_providers value group.
	DBProviders []database.DBProvider `group:"db_providers"`
	Cfg         *config.Config
}

// NewGormDBConnectionResolver creates a new GormDBConnectionResolver.
func NewGormDBConnectionResolver(p GormDBConnectionResolverParams) *GormDBConnectionResolver {
	providerMap := make(map[string]database.DBProvider)
	for _, provider := range p.DBProviders {
		providerMap[provider.Type()] = provider
	}

	return &GormDBConnectionResolver{
		dbProviders: providerMap,
		cfg:         p.Cfg,
	}
}

// ResolveDBConnection resolves a database connection with the specified name.
// It attempts to reconnect if the connection is closed or invalid.
func (r *GormDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (database.DBConnection, error) {
	// 1. Get the DB type from configuration.
	dbConfig, err := lookupDatabaseConfig(r.cfg, name)
	if err != nil {
		return nil, fmt.Errorf("DBConnectionResolver: %w", err)
	}

	// 2. Select the appropriate DBProvider.
	provider, ok := r.dbProviders[dbConfig.Type]
	if !ok {
		// Redshift speaks the PostgreSQL wire protocol and is served by the
		// postgres provider.
		if dbConfig.Type == "redshift" {
			provider, ok = r.dbProviders["postgres"]
		}
		if !ok {
			return nil, fmt.Errorf("DBConnectionResolver: DBProvider for type '%s' not found for connection '%s'", dbConfig.Type, name)
		}
	}

	// 3. Get the connection from the DBProvider.
	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("DBConnectionResolver: failed to get connection '%s': %w", name, err)
	}

	// 4. Check connection health and attempt to reconnect if necessary.
	sqlDB, getDBErr := conn.GetSQLDB()
	if getDBErr != nil {
		logger.Debugf("DBConnectionResolver: failed to get underlying *sql.DB for connection '%s' (possibly a dummy connection): %v", name, getDBErr)
		return conn, nil // Return the connection as is if it's a dummy.
	}

	pingErr := sqlDB.PingContext(ctx)
	if pingErr != nil {
		logger.Warnf("DBConnectionResolver: connection '%s' is invalid (%v). Attempting to reconnect.", name, pingErr)
		reconnectedConn, reconnectErr := provider.ForceReconnect(name)
		if reconnectErr != nil {
			return nil, fmt.Errorf("DBConnectionResolver: failed to reconnect connection '%s': %w", name, reconnectErr)
		}
		logger.Infof("DBConnectionResolver: successfully reconnected connection '%s'.", name)
		return reconnectedConn, nil
	}

	return conn, nil
}

// ResolveConnection is part of the coreAdapter.ResourceConnectionResolver interface.
// It is implemented by calling ResolveDBConnection.
func (r *GormDBConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveDBConnection(ctx, name)
}

// ResolveConnectionName is part of the coreAdapter.ResourceConnectionResolver interface.
// Dynamic resolution based on the execution can be added here if needed; today
// every execution of a job uses the statically configured connection.
func (r *GormDBConnectionResolver) ResolveConnectionName(ctx context.Context, jobExecution interface{}, defaultName string) (string, error) {
	return defaultName, nil
}

// ResolveDBConnectionName is part of the database.DBConnectionResolver interface.
func (r *GormDBConnectionResolver) ResolveDBConnectionName(ctx context.Context, jobExecution interface{}, defaultName string) (string, error) {
	return r.ResolveConnectionName(ctx, jobExecution, defaultName)
}
