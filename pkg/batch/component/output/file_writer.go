// Package output delivers the results of an execution: the interface file
// assembled from the merged records per the job's output spec, and the
// Parquet archive of staging records retained after a failed run. Both leave
// through the storage adapter, so the same code serves local directories and
// GCS buckets.
package output

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	storageAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage"
	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/template"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

const moduleName = "output"

// FileOutputWriter assembles the output file in memory and uploads it through
// the configured storage connection when the execution closes it. Buffering
// the whole file keeps a failed execution from leaving a partial object
// behind.
//
// Open claims the writer until Close; concurrent executions deliver their
// output one at a time.
type FileOutputWriter struct {
	resolver   storageAdapter.StorageConnectionResolver
	storageRef string
	location   *time.Location

	mu         sync.Mutex
	open       bool
	failed     bool
	conn       storageAdapter.StorageConnection
	objectName string
	format     model.OutputFormat
	delimiter  string
	buf        bytes.Buffer
}

// NewFileOutputWriter creates a writer delivering to the storage connection
// named by 'fabric.infrastructure.output_storage_ref'.
func NewFileOutputWriter(resolver storageAdapter.StorageConnectionResolver, cfg *config.Config) port.OutputWriter {
	location, err := time.LoadLocation(cfg.Fabric.System.Timezone)
	if err != nil {
		logger.Warnf("Unknown timezone '%s', falling back to UTC: %v", cfg.Fabric.System.Timezone, err)
		location = time.UTC
	}
	return &FileOutputWriter{
		resolver:   resolver,
		storageRef: cfg.Fabric.Infrastructure.OutputStorageRef,
		location:   location,
	}
}

var _ port.OutputWriter = (*FileOutputWriter)(nil)

// Open resolves the storage connection and the object name for the execution's
// output.
func (w *FileOutputWriter) Open(ctx context.Context, execution *model.JobExecution, spec model.OutputSpec) error {
	w.mu.Lock()

	objectName, err := w.renderPath(execution, spec)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	conn, err := w.resolver.ResolveStorageConnection(ctx, w.storageRef)
	if err != nil {
		w.mu.Unlock()
		return exception.NewInfrastructureError(moduleName,
			fmt.Sprintf("failed to resolve output storage connection '%s'", w.storageRef), err)
	}

	w.conn = conn
	w.objectName = objectName
	w.format = spec.Format
	w.delimiter = spec.Delimiter
	w.buf.Reset()
	w.failed = false
	w.open = true
	return nil
}

// renderPath expands the ${variable} placeholders of the output path. A job
// without a path falls back to <jobName>/<jobName>_<businessDate>.dat.
func (w *FileOutputWriter) renderPath(execution *model.JobExecution, spec model.OutputSpec) (string, error) {
	if spec.Path == "" {
		return fmt.Sprintf("%s/%s_%s.dat", execution.JobName, execution.JobName, execution.BusinessDate), nil
	}
	vars := map[string]string{
		"jobName":      execution.JobName,
		"executionId":  execution.ID,
		"businessDate": execution.BusinessDate,
		"timestamp":    time.Now().In(w.location).Format("20060102150405"),
	}
	return template.Expand("output path", spec.Path, vars)
}

// WriteHeader appends the rendered header line.
func (w *FileOutputWriter) WriteHeader(ctx context.Context, header string) error {
	return w.writeLine(ctx, header)
}

// WriteRecords appends the merged records in the order given.
func (w *FileOutputWriter) WriteRecords(ctx context.Context, records []model.OutputRecord) error {
	for _, record := range records {
		if err := w.writeLine(ctx, w.formatRecord(record)); err != nil {
			return err
		}
	}
	return nil
}

// WriteFooter appends the rendered footer line.
func (w *FileOutputWriter) WriteFooter(ctx context.Context, footer string) error {
	return w.writeLine(ctx, footer)
}

func (w *FileOutputWriter) writeLine(ctx context.Context, line string) error {
	if !w.open {
		return exception.NewInfrastructureError(moduleName, "output writer is not open", nil)
	}
	if err := ctx.Err(); err != nil {
		w.failed = true
		return err
	}
	w.buf.WriteString(line)
	w.buf.WriteByte('\n')
	return nil
}

// formatRecord assembles one line from the record's segments: concatenated
// for fixed output, joined with the delimiter otherwise.
func (w *FileOutputWriter) formatRecord(record model.OutputRecord) string {
	if w.format == model.FormatDelimited {
		return strings.Join(record.Segments, w.delimiter)
	}
	return strings.Join(record.Segments, "")
}

// Close uploads the assembled file and releases the claim taken by Open.
// After a write failure the buffered partial content is discarded rather than
// uploaded, so Close stays safe on the error path. Closing a writer that is
// not open is a no-op.
func (w *FileOutputWriter) Close(ctx context.Context) error {
	if !w.open {
		return nil
	}
	size := w.buf.Len()
	defer func() {
		w.open = false
		w.conn = nil
		w.buf.Reset()
		w.mu.Unlock()
	}()

	if w.failed {
		logger.Warnf("Discarding %d buffered output bytes of object '%s' after a write failure.", size, w.objectName)
		return nil
	}

	// The provider owns the connection, so it is not closed here. An empty
	// bucket falls back to the connection's configured default.
	if err := w.conn.Upload(ctx, "", w.objectName, bytes.NewReader(w.buf.Bytes()), w.contentType()); err != nil {
		return exception.NewInfrastructureError(moduleName,
			fmt.Sprintf("failed to upload output object '%s'", w.objectName), err)
	}
	logger.Infof("Wrote output object '%s' (%d bytes).", w.objectName, size)
	return nil
}

func (w *FileOutputWriter) contentType() string {
	if w.format == model.FormatDelimited {
		return "text/csv"
	}
	return "text/plain"
}
