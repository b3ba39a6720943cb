package gorm

import (
	"go.uber.org/fx"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/database"
	coreAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
)

// Module exports the components of the gorm adapter package for dependency
// injection. Concrete DBProviders are not included here; each dialect
// subpackage exports its own module.
var Module = fx.Options(
	fx.Provide(NewGormTransactionManagerFactory),
	fx.Provide(fx.Annotate(
		NewGormDBConnectionResolver,
		fx.As(new(database.DBConnectionResolver)),
		fx.As(new(coreAdapter.ResourceConnectionResolver)),
	)),
)
