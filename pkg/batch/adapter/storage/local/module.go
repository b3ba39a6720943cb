package local

import (
	"go.uber.org/fx"

	storageAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage"
)

// Module exports the local file system StorageProvider for dependency injection.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewLocalProvider,
			fx.ResultTags(`group:"`+storageAdapter.StorageProviderGroup+`"`),
		),
	),
)
