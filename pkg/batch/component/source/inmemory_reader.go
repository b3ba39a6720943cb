package source

import (
	"context"
	"sync"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// InMemorySourceReader serves seeded payloads keyed by the selector's filter
// expression, exactly as it appears in the job definition. It backs tests and
// the DB-less demo mode, where no source table exists.
//
// Like the SQL reader, Open claims the reader until Close.
type InMemorySourceReader struct {
	seedMu sync.Mutex
	seeded map[string][]model.Payload

	mu      sync.Mutex
	open    bool
	current []model.Payload
	pos     int
}

// NewInMemorySourceReader creates an empty reader. Seed it before launching a
// job or every selection reads zero records.
func NewInMemorySourceReader() *InMemorySourceReader {
	return &InMemorySourceReader{
		seeded: make(map[string][]model.Payload),
	}
}

var _ port.SourceReader = (*InMemorySourceReader)(nil)

// Seed registers the payloads served for a selector filter, replacing any
// previous rows under the same filter. An empty filter seeds the selection
// used by types without a filter of their own.
func (r *InMemorySourceReader) Seed(filter string, payloads []model.Payload) {
	r.seedMu.Lock()
	defer r.seedMu.Unlock()
	r.seeded[filter] = payloads
}

// Open selects the seeded rows for the given selector.
func (r *InMemorySourceReader) Open(ctx context.Context, selector model.SourceSelector) error {
	r.mu.Lock()
	r.seedMu.Lock()
	r.current = r.seeded[selector.Filter]
	r.seedMu.Unlock()
	r.pos = 0
	r.open = true
	return nil
}

// Read hands out the next seeded payload. Each read returns a copy so staged
// records do not alias the seeded maps.
func (r *InMemorySourceReader) Read(ctx context.Context) (model.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.pos >= len(r.current) {
		return nil, port.ErrNoMoreRecords
	}
	row := r.current[r.pos]
	r.pos++

	payload := make(model.Payload, len(row))
	for k, v := range row {
		payload[k] = v
	}
	return payload, nil
}

// Close releases the claim taken by Open. Closing a reader that is not open
// is a no-op.
func (r *InMemorySourceReader) Close(ctx context.Context) error {
	if !r.open {
		return nil
	}
	r.open = false
	r.current = nil
	r.pos = 0
	r.mu.Unlock()
	return nil
}
