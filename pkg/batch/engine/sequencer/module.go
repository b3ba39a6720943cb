package sequencer

import (
	"go.uber.org/fx"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
)

// Module exports the sequencer components for dependency injection.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewDefaultTransactionSequencer,
		fx.As(new(port.TransactionSequencer)),
	)),
)
