package tracing

import (
	"go.uber.org/fx"
)

// Module provides tracing-related components.
// The concrete Tracer implementation is selected by the infrastructure layer
// (pkg/batch/infrastructure/metrics/module.go).
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewTracingPartitionListener, fx.ResultTags(`group:"partition_listeners"`))),
)
