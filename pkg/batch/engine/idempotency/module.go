package idempotency

import (
	"go.uber.org/fx"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
)

// Module exports the idempotency guard for dependency injection.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewDefaultIdempotencyGuard,
		fx.As(new(port.IdempotencyGuard)),
	)),
)
