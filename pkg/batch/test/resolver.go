package test

import (
	"context"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	coreAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
)

// StaticDBResolver resolves every connection name to one fixed connection and
// records the names it was asked for. It stands in for the provider-backed
// resolver in component tests.
type StaticDBResolver struct {
	Conn database.DBConnection

	// ResolvedNames collects the names passed to ResolveDBConnection, in order.
	ResolvedNames []string
}

var _ database.DBConnectionResolver = (*StaticDBResolver)(nil)

func (r *StaticDBResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveDBConnection(ctx, name)
}

func (r *StaticDBResolver) ResolveConnectionName(ctx context.Context, jobExecution interface{}, defaultName string) (string, error) {
	return defaultName, nil
}

func (r *StaticDBResolver) ResolveDBConnection(ctx context.Context, name string) (database.DBConnection, error) {
	r.ResolvedNames = append(r.ResolvedNames, name)
	return r.Conn, nil
}

func (r *StaticDBResolver) ResolveDBConnectionName(ctx context.Context, jobExecution interface{}, defaultName string) (string, error) {
	return defaultName, nil
}
