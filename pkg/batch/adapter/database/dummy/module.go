package dummy

import (
	"go.uber.org/fx"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	coreAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/tx"
)

// NewDummyTxManagerFactory creates a transaction manager factory whose managers
// never touch a database.
func NewDummyTxManagerFactory() tx.TransactionManagerFactory {
	return &DummyTxManagerFactory{}
}

// Module wires the dummy adapter implementations for DB-less mode. It stands in
// for the gorm adapter modules when no repository database is configured.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewDefaultDBConnectionResolver,
			fx.As(new(database.DBConnectionResolver)),
			fx.As(new(coreAdapter.ResourceConnectionResolver)),
		),
	),
	fx.Provide(NewDummyTxManagerFactory),
)
