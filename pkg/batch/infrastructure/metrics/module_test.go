package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	metrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
	inframetrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/infrastructure/metrics"
)

// stubLifecycle collects hooks without running them, so tests control when
// (and whether) start and stop side effects happen.
type stubLifecycle struct {
	hooks []fx.Hook
}

func (l *stubLifecycle) Append(h fx.Hook) {
	l.hooks = append(l.hooks, h)
}

func (l *stubLifecycle) stopAll(ctx context.Context) error {
	for i := len(l.hooks) - 1; i >= 0; i-- {
		if l.hooks[i].OnStop == nil {
			continue
		}
		if err := l.hooks[i].OnStop(ctx); err != nil {
			return err
		}
	}
	return nil
}

var _ fx.Lifecycle = (*stubLifecycle)(nil)

func TestDecorateMetricRecorder_KeepsNoOpWhenDisabled(t *testing.T) {
	base := metrics.NewNoOpMetricRecorder()
	lc := &stubLifecycle{}
	cfg := config.NewConfig()
	cfg.Fabric.Metrics.Exporter = "noop"

	got, err := inframetrics.DecorateMetricRecorder(lc, cfg, base)

	require.NoError(t, err)
	assert.Same(t, base, got)
	assert.Empty(t, lc.hooks)
}

func TestDecorateMetricRecorder_KeepsNoOpForUnknownExporter(t *testing.T) {
	base := metrics.NewNoOpMetricRecorder()
	lc := &stubLifecycle{}
	cfg := config.NewConfig()
	cfg.Fabric.Metrics.Exporter = "statsd"

	got, err := inframetrics.DecorateMetricRecorder(lc, cfg, base)

	require.NoError(t, err)
	assert.Same(t, base, got)
}

func TestDecorateMetricRecorder_WrapsPrometheusInAsyncQueue(t *testing.T) {
	base := metrics.NewNoOpMetricRecorder()
	lc := &stubLifecycle{}
	cfg := config.NewConfig()
	cfg.Fabric.Metrics.Exporter = "prometheus"

	got, err := inframetrics.DecorateMetricRecorder(lc, cfg, base)

	require.NoError(t, err)
	assert.IsType(t, &inframetrics.AsyncMetricRecorder{}, got)
	// One hook pair for the scrape server, one stop hook for the async drain.
	assert.Len(t, lc.hooks, 2)

	// The server was never started, so stopping only drains the queue.
	require.NoError(t, lc.stopAll(context.Background()))
}

func TestDecorateMetricRecorder_RejectsUnknownOTLPProtocol(t *testing.T) {
	base := metrics.NewNoOpMetricRecorder()
	lc := &stubLifecycle{}
	cfg := config.NewConfig()
	cfg.Fabric.Metrics.Exporter = "otlp"
	cfg.Fabric.Metrics.Protocol = "carrier-pigeon"

	_, err := inframetrics.DecorateMetricRecorder(lc, cfg, base)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported OTLP metric protocol")
}

func TestDecorateTracer_KeepsNoOpWhenTracingIsOff(t *testing.T) {
	base := metrics.NewNoOpTracer()
	lc := &stubLifecycle{}
	cfg := config.NewConfig()

	got, err := inframetrics.DecorateTracer(lc, cfg, base)

	require.NoError(t, err)
	assert.Same(t, base, got)
	assert.Empty(t, lc.hooks)
}

func TestDecorateTracer_EnablesOTelSpans(t *testing.T) {
	base := metrics.NewNoOpTracer()
	lc := &stubLifecycle{}
	cfg := config.NewConfig()
	cfg.Fabric.Tracing.Enabled = true
	cfg.Fabric.Tracing.Insecure = true

	got, err := inframetrics.DecorateTracer(lc, cfg, base)

	require.NoError(t, err)
	assert.NotSame(t, base, got)
	assert.Len(t, lc.hooks, 1)

	// No spans were recorded, so shutdown flushes nothing over the wire.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, lc.stopAll(ctx))
}

func TestDecorateTracer_RejectsUnknownOTLPProtocol(t *testing.T) {
	base := metrics.NewNoOpTracer()
	lc := &stubLifecycle{}
	cfg := config.NewConfig()
	cfg.Fabric.Tracing.Enabled = true
	cfg.Fabric.Tracing.Protocol = "carrier-pigeon"

	_, err := inframetrics.DecorateTracer(lc, cfg, base)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported OTLP trace protocol")
}
