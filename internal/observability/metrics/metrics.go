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
	tierResolutions metric.Int64Counter
	simulations     metric.Int64Counter
	revenueRecorded metric.Int64Counter
	recomputes      metric.Int64Counter
	engineErrors    metric.Int64Counter
	rateLimited     metric.Int64Counter
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
				if log != nil {
					log.Info("shutting down meter provider")
				}
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
		name = "agencydesk"
	}
	meter := provider.Meter(name)

	tierResolutions, err := meter.Int64Counter("agencydesk_commission_tier_resolutions_total")
	if err != nil {
		return nil, err
	}
	simulations, err := meter.Int64Counter("agencydesk_commission_simulations_total")
	if err != nil {
		return nil, err
	}
	revenueRecorded, err := meter.Int64Counter("agencydesk_revenue_records_total")
	if err != nil {
		return nil, err
	}
	recomputes, err := meter.Int64Counter("agencydesk_agent_commission_recomputes_total")
	if err != nil {
		return nil, err
	}
	engineErrors, err := meter.Int64Counter("agencydesk_commission_errors_total")
	if err != nil {
		return nil, err
	}
	rateLimited, err := meter.Int64Counter("agencydesk_rate_limit_decisions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		tierResolutions: tierResolutions,
		simulations:     simulations,
		revenueRecorded: revenueRecorded,
		recomputes:      recomputes,
		engineErrors:    engineErrors,
		rateLimited:     rateLimited,
	}, nil
}

// RecordTierResolution counts a resolved tier for a pack.
func (m *Metrics) RecordTierResolution(ctx context.Context, packCode string, rangeIndex int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("pack_code", strings.TrimSpace(packCode)),
		attribute.Int("range_index", rangeIndex),
	)
	m.tierResolutions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSimulation counts a what-if projection and whether it crossed a tier.
func (m *Metrics) RecordSimulation(ctx context.Context, packCode string, tierChanged bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("pack_code", strings.TrimSpace(packCode)),
		attribute.Bool("tier_changed", tierChanged),
	)
	m.simulations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRevenue counts persisted revenue records by source.
func (m *Metrics) RecordRevenue(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.revenueRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRecompute counts agent commission recomputations by outcome.
func (m *Metrics) RecordRecompute(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.recomputes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEngineError counts engine failures by kind.
func (m *Metrics) RecordEngineError(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.engineErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimit counts rate limit decisions per endpoint.
func (m *Metrics) RecordRateLimit(ctx context.Context, endpoint string, allowed bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.Bool("allowed", allowed),
	)
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
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

var allowedLabelKeys = map[attribute.Key]struct{}{
	"pack_code":    {},
	"range_index":  {},
	"tier_changed": {},
	"source":       {},
	"outcome":      {},
	"reason":       {},
	"endpoint":     {},
	"status_code":  {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
