package partition

import (
	"go.uber.org/fx"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
)

// Module exports the partition processor for dependency injection. Worker
// pools are not provided here: the coordinator builds one per run, sized by
// the job's effective parallel thread count.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewDefaultPartitionProcessor,
		fx.As(new(port.PartitionProcessor)),
	)),
)
