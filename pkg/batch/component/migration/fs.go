package migration

import (
	"embed"
	"io/fs"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

//go:embed resource
var rawMigrationFS embed.FS

// MigrationsFS exposes the embedded migration files with the 'resource'
// prefix stripped, so dialect directories sit at the root.
func MigrationsFS() fs.FS {
	subFS, err := fs.Sub(rawMigrationFS, "resource")
	if err != nil {
		// This should not happen if 'resource' exists.
		logger.Fatalf("Failed to create subdirectory for migration FS: %v", err)
	}
	return subFS
}
