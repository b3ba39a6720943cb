package usecase

import (
	"go.uber.org/fx"
)

// Module is the Fx module for ExecutionLauncher, ExecutionOperator, and ExecutionExplorer.
var Module = fx.Options(
	// Provide ExecutionExplorer
	fx.Provide(fx.Annotate(
		NewDefaultExecutionExplorer,
		fx.As(new(ExecutionExplorer)),
	)),
	// Provide ExecutionOperator
	fx.Provide(fx.Annotate(
		NewDefaultExecutionOperator,
		fx.As(new(ExecutionOperator)),
	)),

	// Provide ExecutionLauncher (uses constructor defined in coordinator.go)
	fx.Provide(NewDefaultExecutionCoordinator),
	fx.Provide(fx.Annotate(
		func(coordinator *DefaultExecutionCoordinator) ExecutionLauncher { return coordinator },
		fx.As(new(ExecutionLauncher)),
	)),

	// Invoke hook to set the coordinator in DefaultExecutionOperator
	fx.Invoke(func(operator ExecutionOperator, coordinator *DefaultExecutionCoordinator) {
		// Downcast to concrete type DefaultExecutionOperator and call SetLauncher
		if defaultOperator, ok := operator.(*DefaultExecutionOperator); ok {
			defaultOperator.SetLauncher(coordinator)
		}
	}),
)
