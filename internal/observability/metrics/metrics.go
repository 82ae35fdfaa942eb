package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	allocations      metric.Int64Counter
	syncRuns         metric.Int64Counter
	solverRuns       metric.Int64Counter
	numericAnomalies metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "clinkerflow"
	}
	meter := provider.Meter(name)

	allocations, err := meter.Int64Counter("clinkerflow_allocation_events_total")
	if err != nil {
		return nil, err
	}
	syncRuns, err := meter.Int64Counter("clinkerflow_sync_runs_total")
	if err != nil {
		return nil, err
	}
	solverRuns, err := meter.Int64Counter("clinkerflow_solver_runs_total")
	if err != nil {
		return nil, err
	}
	numericAnomalies, err := meter.Int64Counter("clinkerflow_numeric_anomalies_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		allocations:      allocations,
		syncRuns:         syncRuns,
		solverRuns:       solverRuns,
		numericAnomalies: numericAnomalies,
	}, nil
}

// RecordAllocationEvent counts allocation lifecycle events (created,
// confirmed, deleted).
func (m *Metrics) RecordAllocationEvent(ctx context.Context, event, mode string) {
	if m == nil {
		return
	}
	m.allocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", strings.TrimSpace(event)),
		attribute.String("mode", strings.TrimSpace(mode)),
	))
}

// RecordSyncRun counts remote sync attempts by outcome.
func (m *Metrics) RecordSyncRun(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.syncRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

// RecordSolverRun counts solver trigger attempts by outcome.
func (m *Metrics) RecordSolverRun(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.solverRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

// RecordNumericAnomaly counts cost-model results that had to be clamped.
func (m *Metrics) RecordNumericAnomaly(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.numericAnomalies.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", strings.TrimSpace(mode)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
