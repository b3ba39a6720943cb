package storage

import (
	"context"
	"fmt"

	storageConfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage/config"
	coreAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
	coreConfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/configbinder"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// DecodeStorageConfig looks up the named entry under 'fabric.storage' and
// decodes it into a StorageConfig. The raw map is decoded lazily here because
// the top-level configuration does not know the adapter-specific fields.
func DecodeStorageConfig(cfg *coreConfig.Config, name string) (storageConfig.StorageConfig, error) {
	var storageCfg storageConfig.StorageConfig

	rawConfig, ok := cfg.Fabric.Storages[name]
	if !ok {
		return storageCfg, fmt.Errorf("storage configuration '%s' not found under 'fabric.storage'", name)
	}

	if err := configbinder.BindConfigMap(rawConfig, &storageCfg); err != nil {
		return storageCfg, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	return storageCfg, nil
}

// DefaultStorageConnectionResolver implements StorageConnectionResolver over a
// set of typed providers. The configured type of a connection selects the
// provider that owns it.
type DefaultStorageConnectionResolver struct {
	providers map[string]StorageProvider
	cfg       *coreConfig.Config
}

// NewStorageConnectionResolver creates a resolver over the given providers,
// keyed by provider type. The map is typically assembled by the application
// module from the storage provider group.
func NewStorageConnectionResolver(providers map[string]StorageProvider, cfg *coreConfig.Config) StorageConnectionResolver {
	return &DefaultStorageConnectionResolver{
		providers: providers,
		cfg:       cfg,
	}
}

// ResolveConnection resolves a generic resource connection by name.
func (r *DefaultStorageConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveStorageConnection(ctx, name)
}

// ResolveConnectionName resolves a generic resource connection name based on the execution context.
// Currently, it does not implement dynamic resolution logic and returns the default name.
func (r *DefaultStorageConnectionResolver) ResolveConnectionName(ctx context.Context, jobExecution interface{}, defaultName string) (string, error) {
	logger.Debugf("Resolving storage connection name. Defaulting to '%s'.", defaultName)
	return defaultName, nil
}

// ResolveStorageConnection resolves a StorageConnection connection instance by the given name.
func (r *DefaultStorageConnectionResolver) ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error) {
	storageCfg, err := DecodeStorageConfig(r.cfg, name)
	if err != nil {
		return nil, err
	}

	provider, ok := r.providers[storageCfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider found for type '%s' (connection '%s')", storageCfg.Type, name)
	}

	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection '%s' from provider '%s': %w", name, storageCfg.Type, err)
	}
	return conn, nil
}

// ResolveStorageConnectionName resolves the name of the data storage connection based on the execution context.
// This method applies the same logic as ResolveConnectionName.
func (r *DefaultStorageConnectionResolver) ResolveStorageConnectionName(ctx context.Context, jobExecution interface{}, defaultName string) (string, error) {
	return r.ResolveConnectionName(ctx, jobExecution, defaultName)
}

// Verify that DefaultStorageConnectionResolver implements StorageConnectionResolver.
var _ StorageConnectionResolver = (*DefaultStorageConnectionResolver)(nil)
