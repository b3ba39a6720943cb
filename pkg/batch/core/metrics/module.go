package metrics

import (
	"go.uber.org/fx"
)

// Module is an Fx module that provides metrics-related components.
var Module = fx.Options(
	// By default, it provides NoOpMetricRecorder.
	// Actual implementations (Prometheus, OTel) replace it via fx.Decorate in
	// the infrastructure layer; the no-op remains the fallback.
	fx.Provide(fx.Annotate(
		NewNoOpMetricRecorder,
		fx.As(new(MetricRecorder)),
	)),
	// Provides Tracer abstraction (fallback)
	fx.Provide(fx.Annotate(
		NewNoOpTracer,
		fx.As(new(Tracer)),
	)),
)
