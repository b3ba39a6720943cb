// Package gcs provides a Google Cloud Storage implementation of the storage adapter interfaces.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	storageAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage"
	storageConfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage/config"
	coreConfig "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

const (
	// ProviderType defines the type identifier for this GCS storage provider.
	ProviderType = "gcs"
)

// gcsAdapter implements the storage.StorageConnection interface for Google Cloud Storage.
type gcsAdapter struct {
	client *gcstorage.Client
	cfg    storageConfig.StorageConfig
	name   string
}

// Verify that gcsAdapter implements the storage.StorageConnection interface.
var _ storageAdapter.StorageConnection = (*gcsAdapter)(nil)

// NewGCSAdapter creates a new gcsAdapter instance.
// When CredentialsFile is configured it is used for authentication; otherwise
// the client falls back to Application Default Credentials.
func NewGCSAdapter(ctx context.Context, cfg storageConfig.StorageConfig, name string) (storageAdapter.StorageConnection, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage adapter '%s': failed to create client: %w", name, err)
	}

	return &gcsAdapter{
		client: client,
		cfg:    cfg,
		name:   name,
	}, nil
}

// Close closes the underlying GCS client.
func (a *gcsAdapter) Close() error {
	if err := a.client.Close(); err != nil {
		return fmt.Errorf("gcs storage adapter '%s': failed to close client: %w", a.name, err)
	}
	logger.Debugf("GCS storage adapter '%s' closed.", a.name)
	return nil
}

// Type returns the type of the adapter, which is "gcs".
func (a *gcsAdapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *gcsAdapter) Name() string {
	return a.name
}

// Upload uploads data to the specified bucket and object name.
// The upload is finalized by Close on the writer, so errors from the actual
// transfer surface there rather than from the copy.
func (a *gcsAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	bucket, err := a.resolveBucket(bucket)
	if err != nil {
		return fmt.Errorf("failed to resolve bucket for upload: %w", err)
	}

	w := a.client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to 'gs://%s/%s': %w", bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload to 'gs://%s/%s': %w", bucket, objectName, err)
	}
	logger.Debugf("Uploaded data to 'gs://%s/%s' (gcs adapter '%s').", bucket, objectName, a.name)
	return nil
}

// Download downloads data from the specified bucket and object name.
// The returned io.ReadCloser must be closed by the caller.
func (a *gcsAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	bucket, err := a.resolveBucket(bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bucket for download: %w", err)
	}

	r, err := a.client.Bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open reader for 'gs://%s/%s': %w", bucket, objectName, err)
	}
	logger.Debugf("Downloaded data from 'gs://%s/%s' (gcs adapter '%s').", bucket, objectName, a.name)
	return r, nil
}

// ListObjects lists objects within the specified bucket and prefix.
// It iterates over the bucket and calls the provided function `fn` for each object found.
func (a *gcsAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	bucket, err := a.resolveBucket(bucket)
	if err != nil {
		return fmt.Errorf("failed to resolve bucket for listing: %w", err)
	}

	it := a.client.Bucket(bucket).Objects(ctx, &gcstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list objects in 'gs://%s' with prefix '%s': %w", bucket, prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
	logger.Debugf("Listed objects in 'gs://%s' with prefix '%s' (gcs adapter '%s').", bucket, prefix, a.name)
	return nil
}

// DeleteObject deletes the specified object from the bucket.
// If the object does not exist, it logs a warning and returns nil.
func (a *gcsAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	bucket, err := a.resolveBucket(bucket)
	if err != nil {
		return fmt.Errorf("failed to resolve bucket for delete: %w", err)
	}

	if err := a.client.Bucket(bucket).Object(objectName).Delete(ctx); err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			logger.Warnf("Attempted to delete non-existent object 'gs://%s/%s' (gcs adapter '%s').", bucket, objectName, a.name)
			return nil // Not an error if the object doesn't exist
		}
		return fmt.Errorf("failed to delete object 'gs://%s/%s': %w", bucket, objectName, err)
	}
	logger.Debugf("Deleted object 'gs://%s/%s' (gcs adapter '%s').", bucket, objectName, a.name)
	return nil
}

// resolveBucket falls back to the configured BucketName when no bucket is
// given. Unlike the local adapter, GCS has no meaningful default location, so
// an unresolved bucket is an error.
func (a *gcsAdapter) resolveBucket(bucket string) (string, error) {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	if bucket == "" {
		return "", fmt.Errorf("no bucket specified and no default BucketName configured for gcs adapter '%s'", a.name)
	}
	return bucket, nil
}

// GCSProvider implements the storage.StorageProvider interface for managing Google Cloud Storage connections.
type GCSProvider struct {
	cfg         *coreConfig.Config
	connections map[string]storageAdapter.StorageConnection
	mu          sync.RWMutex
}

// NewGCSProvider creates a new GCSProvider instance.
func NewGCSProvider(cfg *coreConfig.Config) storageAdapter.StorageProvider {
	return &GCSProvider{
		cfg:         cfg,
		connections: make(map[string]storageAdapter.StorageConnection),
	}
}

// GetConnection retrieves a StorageConnection connection by the given name.
// It creates a new connection if one does not already exist for the given name.
func (p *GCSProvider) GetConnection(name string) (storageAdapter.StorageConnection, error) {
	p.mu.RLock()
	conn, ok := p.connections[name]
	p.mu.RUnlock()
	if ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring lock
	conn, ok = p.connections[name]
	if ok {
		return conn, nil
	}

	storageCfg, err := storageAdapter.DecodeStorageConfig(p.cfg, name)
	if err != nil {
		return nil, err
	}

	if storageCfg.Type != ProviderType {
		return nil, fmt.Errorf("storage config type mismatch for '%s': expected '%s', got '%s'", name, ProviderType, storageCfg.Type)
	}

	// Client construction is not tied to a request, so it uses the background context.
	newConn, err := NewGCSAdapter(context.Background(), storageCfg, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs adapter for '%s': %w", name, err)
	}

	p.connections[name] = newConn
	logger.Debugf("Created new GCS storage connection '%s'.", name)
	return newConn, nil
}

// CloseAll closes all connections managed by this provider.
func (p *GCSProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close gcs storage connection '%s': %w", name, err))
		}
		delete(p.connections, name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing gcs storage connections: %v", errs)
	}
	logger.Debugf("All GCS storage connections closed.")
	return nil
}

// Type returns the type of resource handled by this provider, which is "gcs".
func (p *GCSProvider) Type() string {
	return ProviderType
}

// ForceReconnect forces the closure and re-establishment of an existing connection with the specified name.
func (p *GCSProvider) ForceReconnect(name string) (storageAdapter.StorageConnection, error) {
	p.mu.Lock()
	if conn, ok := p.connections[name]; ok {
		if err := conn.Close(); err != nil {
			logger.Warnf("Failed to gracefully close gcs storage connection '%s' during force reconnect: %v", name, err)
		}
		delete(p.connections, name)
	}
	p.mu.Unlock()

	logger.Debugf("Forcing reconnect for gcs storage connection '%s'.", name)
	return p.GetConnection(name)
}
