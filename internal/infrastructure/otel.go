package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "gsewatch"
	ServiceVersion = "1.0.0"
	MeterName      = "gsewatch"
)

// OTelConfig holds OpenTelemetry configuration.
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableMetrics  bool
	EnableTracing  bool // stdout span exporter, development only
}

// OTelProviders holds the configured OpenTelemetry providers.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
}

// DefaultOTelConfig returns the default observability configuration:
// Prometheus metrics on, tracing off unless GSE_TRACE=1.
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		EnableMetrics:  true,
		EnableTracing:  os.Getenv("GSE_TRACE") == "1",
	}
}

// InitializeOTel sets up metrics and (optionally) tracing.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)

	providers := &OTelProviders{}

	if cfg.EnableTracing {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetTracerProvider(tp)
	}

	if cfg.EnableMetrics {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		providers.PrometheusHTTP = promhttp.Handler()
		otel.SetMeterProvider(mp)
	}

	logger.Info("observability initialized",
		slog.Bool("metrics", cfg.EnableMetrics),
		slog.Bool("tracing", cfg.EnableTracing))

	return providers, nil
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PipelineMetrics holds the counters instrumenting the ingestion
// pipeline: rows in and out of the normalizer, resolver misses, and
// merge outcomes.
type PipelineMetrics struct {
	RowsNormalized  metric.Int64Counter
	RowsDropped     metric.Int64Counter
	ResolutionMiss  metric.Int64Counter
	MergesApplied   metric.Int64Counter
	MergesSkipped   metric.Int64Counter
	LedgersRewrites metric.Int64Counter
}

// NewPipelineMetrics registers the pipeline counters on the meter. A
// nil meter yields a metrics object whose counters are nil; callers
// use the Add helpers which tolerate that, so tests and one-shot tools
// can run without an initialized meter provider.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var pm PipelineMetrics
	if meter == nil {
		return &pm, nil
	}
	var err error

	if pm.RowsNormalized, err = meter.Int64Counter("gse_rows_normalized_total",
		metric.WithDescription("Rows accepted by the record normalizer")); err != nil {
		return nil, err
	}
	if pm.RowsDropped, err = meter.Int64Counter("gse_rows_dropped_total",
		metric.WithDescription("Rows dropped by parse or validation failures")); err != nil {
		return nil, err
	}
	if pm.ResolutionMiss, err = meter.Int64Counter("gse_resolution_misses_total",
		metric.WithDescription("Raw symbols with no canonical match")); err != nil {
		return nil, err
	}
	if pm.MergesApplied, err = meter.Int64Counter("gse_merges_applied_total",
		metric.WithDescription("Ledger merges that changed a ledger")); err != nil {
		return nil, err
	}
	if pm.MergesSkipped, err = meter.Int64Counter("gse_merges_skipped_total",
		metric.WithDescription("Ledger merges skipped as no-ops")); err != nil {
		return nil, err
	}
	if pm.LedgersRewrites, err = meter.Int64Counter("gse_ledger_rewrites_total",
		metric.WithDescription("Atomic ledger file replacements")); err != nil {
		return nil, err
	}
	return &pm, nil
}

// AddDropped records dropped rows with a reason attribute.
func (pm *PipelineMetrics) AddDropped(ctx context.Context, n int64, reason string) {
	if pm == nil || pm.RowsDropped == nil {
		return
	}
	pm.RowsDropped.Add(ctx, n, metric.WithAttributes(attribute.String("reason", reason)))
}

// AddNormalized records accepted rows.
func (pm *PipelineMetrics) AddNormalized(ctx context.Context, n int64) {
	if pm == nil || pm.RowsNormalized == nil {
		return
	}
	pm.RowsNormalized.Add(ctx, n)
}

// AddResolutionMiss records an unmatched raw symbol token.
func (pm *PipelineMetrics) AddResolutionMiss(ctx context.Context) {
	if pm == nil || pm.ResolutionMiss == nil {
		return
	}
	pm.ResolutionMiss.Add(ctx, 1)
}

// AddMerge records a merge outcome.
func (pm *PipelineMetrics) AddMerge(ctx context.Context, applied bool) {
	if pm == nil {
		return
	}
	if applied {
		if pm.MergesApplied != nil {
			pm.MergesApplied.Add(ctx, 1)
		}
		return
	}
	if pm.MergesSkipped != nil {
		pm.MergesSkipped.Add(ctx, 1)
	}
}

// AddLedgerRewrite records one ledger file rewrite.
func (pm *PipelineMetrics) AddLedgerRewrite(ctx context.Context) {
	if pm == nil || pm.LedgersRewrites == nil {
		return
	}
	pm.LedgersRewrites.Add(ctx, 1)
}
