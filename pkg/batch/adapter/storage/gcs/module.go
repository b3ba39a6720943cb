package gcs

import (
	"go.uber.org/fx"

	storageAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage"
)

// Module exports the Google Cloud Storage StorageProvider for dependency injection.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewGCSProvider,
			fx.ResultTags(`group:"`+storageAdapter.StorageProviderGroup+`"`),
		),
	),
)
