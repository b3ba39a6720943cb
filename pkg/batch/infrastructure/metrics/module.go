package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"

	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	metrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// DecorateMetricRecorder replaces the default no-op recorder with the backend
// selected by the metrics configuration. Real backends are wrapped in the
// asynchronous queue so recording never blocks the engine.
func DecorateMetricRecorder(lc fx.Lifecycle, cfg *config.Config, base metrics.MetricRecorder) (metrics.MetricRecorder, error) {
	var recorder metrics.MetricRecorder

	switch strings.ToLower(cfg.Fabric.Metrics.Exporter) {
	case "prometheus":
		prom := NewPrometheusRecorder()
		startScrapeServer(lc, cfg.Fabric.Metrics.Port, prom.GetRegistry())
		recorder = prom
	case "otlp":
		provider, err := newMeterProvider(context.Background(), cfg.Fabric.Metrics)
		if err != nil {
			return nil, err
		}
		otel.SetMeterProvider(provider)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
		otelRecorder, err := NewOTelMetricRecorder(provider)
		if err != nil {
			return nil, err
		}
		logger.Infof("Metrics: OTLP metric exporter enabled (protocol: %s).", cfg.Fabric.Metrics.Protocol)
		recorder = otelRecorder
	case "", "noop":
		logger.Infof("Metrics: recording disabled.")
		return base, nil
	default:
		logger.Warnf("Metrics: unknown exporter '%s', recording stays disabled.", cfg.Fabric.Metrics.Exporter)
		return base, nil
	}

	return NewAsyncMetricRecorderWrapper(lc, cfg, recorder), nil
}

// startScrapeServer exposes the registry on /metrics for Prometheus scrapes.
func startScrapeServer(lc fx.Lifecycle, port int, registry *prometheus.Registry) {
	if port <= 0 {
		port = 9464
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return fmt.Errorf("failed to bind metrics endpoint on %s: %w", server.Addr, err)
			}
			go func() {
				if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Errorf("Metrics: scrape endpoint terminated: %v", err)
				}
			}()
			logger.Infof("Metrics: Prometheus scrape endpoint listening on %s/metrics.", server.Addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

// DecorateTracer replaces the default no-op tracer with an OTLP-exporting one
// when tracing is enabled.
func DecorateTracer(lc fx.Lifecycle, cfg *config.Config, base metrics.Tracer) (metrics.Tracer, error) {
	if !cfg.Fabric.Tracing.Enabled {
		return base, nil
	}

	provider, err := newTracerProvider(context.Background(), cfg.Fabric.Tracing)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(provider)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	logger.Infof("Tracing: OTLP span exporter enabled (protocol: %s).", cfg.Fabric.Tracing.Protocol)
	return NewOpenTelemetryTracer(), nil
}

// Module swaps the engine's metric recorder and tracer for the configured
// backends. The core module keeps providing the no-op fallbacks.
var Module = fx.Options(
	fx.Decorate(DecorateMetricRecorder),
	fx.Decorate(DecorateTracer),
)
