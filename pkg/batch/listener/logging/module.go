package logging

import (
	"go.uber.org/fx"
)

// Module aggregates all listener components provided by this package.
var Module = fx.Options(
	// Execution Listener
	fx.Provide(fx.Annotate(NewLoggingExecutionListener, fx.ResultTags(`group:"execution_listeners"`))),
	// Partition Listener
	fx.Provide(fx.Annotate(NewLoggingPartitionListener, fx.ResultTags(`group:"partition_listeners"`))),
)
