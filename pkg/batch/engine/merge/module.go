package merge

import (
	"go.uber.org/fx"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
)

// Module exports the merger components for dependency injection.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewDefaultResultMerger,
		fx.As(new(port.ResultMerger)),
	)),
)
