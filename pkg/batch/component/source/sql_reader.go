// Package source provides the SourceReader implementations that feed the
// staging phase: a SQL cursor reader selecting from the configured source
// table, and an in-memory reader for tests and DB-less runs.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

const moduleName = "source"

// SQLSourceReader streams rows from the configured source table through a
// database cursor, one transaction type's selection at a time. Columns are
// mapped dynamically, so the payload carries whatever the table holds without
// a per-job row struct.
//
// Open claims the reader until Close; concurrent executions stage one at a
// time rather than interleaving reads on a shared cursor.
type SQLSourceReader struct {
	resolver database.DBConnectionResolver
	dbName   string
	table    string

	mu      sync.Mutex
	rows    *sql.Rows
	columns []string
}

// NewSQLSourceReader creates a reader over the source table named in the
// infrastructure configuration. An empty source_db_ref shares the repository
// connection.
func NewSQLSourceReader(resolver database.DBConnectionResolver, cfg *config.Config) port.SourceReader {
	infra := cfg.Fabric.Infrastructure
	dbName := infra.SourceDBRef
	if dbName == "" {
		dbName = infra.RepositoryDBRef
	}
	return &SQLSourceReader{
		resolver: resolver,
		dbName:   dbName,
		table:    infra.SourceTable,
	}
}

var _ port.SourceReader = (*SQLSourceReader)(nil)

// Open executes the selection for the given selector and positions the cursor
// before the first row.
func (r *SQLSourceReader) Open(ctx context.Context, selector model.SourceSelector) error {
	r.mu.Lock()
	if r.table == "" {
		r.mu.Unlock()
		return exception.NewConfigurationError(moduleName, "no source table configured under 'fabric.infrastructure.source_table'", nil)
	}

	conn, err := r.resolver.ResolveDBConnection(ctx, r.dbName)
	if err != nil {
		r.mu.Unlock()
		return exception.NewInfrastructureError(moduleName,
			fmt.Sprintf("failed to resolve source connection '%s'", r.dbName), err)
	}
	db, err := conn.GetSQLDB()
	if err != nil {
		r.mu.Unlock()
		return exception.NewInfrastructureError(moduleName,
			fmt.Sprintf("source connection '%s' has no SQL database", r.dbName), err)
	}

	query := r.buildQuery(selector)
	logger.Debugf("Opening source cursor: %s", query)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		r.mu.Unlock()
		return exception.NewInfrastructureError(moduleName,
			fmt.Sprintf("failed to open source cursor on table '%s'", r.table), err)
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		r.mu.Unlock()
		return exception.NewInfrastructureError(moduleName,
			fmt.Sprintf("failed to resolve columns of table '%s'", r.table), err)
	}

	r.rows = rows
	r.columns = columns
	return nil
}

// buildQuery assembles the selection statement. The selector criteria come
// from the job definition, not from request input, so they are spliced into
// the statement as written.
func (r *SQLSourceReader) buildQuery(selector model.SourceSelector) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s", r.table)
	if selector.Filter != "" {
		fmt.Fprintf(&b, " WHERE %s", selector.Filter)
	}
	if selector.GroupBy != "" {
		fmt.Fprintf(&b, " GROUP BY %s", selector.GroupBy)
	}
	if selector.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", selector.OrderBy)
	}
	return b.String()
}

// Read advances the cursor and maps the current row into a payload keyed by
// column name. NULL columns are omitted so required-field validation sees
// them as absent.
func (r *SQLSourceReader) Read(ctx context.Context) (model.Payload, error) {
	if r.rows == nil {
		return nil, exception.NewInfrastructureError(moduleName, "source reader is not open", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, exception.NewInfrastructureError(moduleName, "source row iteration failed", err)
		}
		return nil, port.ErrNoMoreRecords
	}

	values := make([]sql.NullString, len(r.columns))
	targets := make([]interface{}, len(r.columns))
	for i := range values {
		targets[i] = &values[i]
	}
	if err := r.rows.Scan(targets...); err != nil {
		return nil, exception.NewInfrastructureError(moduleName, "failed to scan source row", err)
	}

	payload := make(model.Payload, len(r.columns))
	for i, column := range r.columns {
		if values[i].Valid {
			payload[column] = values[i].String
		}
	}
	return payload, nil
}

// Close releases the cursor and the claim taken by Open. Closing a reader
// that is not open is a no-op.
func (r *SQLSourceReader) Close(ctx context.Context) error {
	if r.rows == nil {
		return nil
	}
	err := r.rows.Close()
	r.rows = nil
	r.columns = nil
	r.mu.Unlock()
	if err != nil {
		return exception.NewInfrastructureError(moduleName, "failed to close source cursor", err)
	}
	return nil
}
