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
	draftSaves       metric.Int64Counter
	draftDeletes     metric.Int64Counter
	draftReadRetries metric.Int64Counter
	migrationRecords metric.Int64Counter
	capabilityProbes metric.Int64Counter
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
		name = "folio"
	}
	meter := provider.Meter(name)

	draftSaves, err := meter.Int64Counter("folio_draft_saves_total")
	if err != nil {
		return nil, err
	}
	draftDeletes, err := meter.Int64Counter("folio_draft_deletes_total")
	if err != nil {
		return nil, err
	}
	draftReadRetries, err := meter.Int64Counter("folio_draft_read_retries_total")
	if err != nil {
		return nil, err
	}
	migrationRecords, err := meter.Int64Counter("folio_migration_records_total")
	if err != nil {
		return nil, err
	}
	capabilityProbes, err := meter.Int64Counter("folio_capability_probes_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		draftSaves:       draftSaves,
		draftDeletes:     draftDeletes,
		draftReadRetries: draftReadRetries,
		migrationRecords: migrationRecords,
		capabilityProbes: capabilityProbes,
	}, nil
}

// RecordSave increments draft save counts.
func (m *Metrics) RecordSave(ctx context.Context, strategy, docType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("strategy", strings.TrimSpace(strategy)),
		attribute.String("doc_type", strings.TrimSpace(docType)),
	)
	m.draftSaves.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDelete increments draft delete counts.
func (m *Metrics) RecordDelete(ctx context.Context, strategy string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("strategy", strings.TrimSpace(strategy)))
	m.draftDeletes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReadRetry increments retried read counts.
func (m *Metrics) RecordReadRetry(ctx context.Context, strategy string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("strategy", strings.TrimSpace(strategy)))
	m.draftReadRetries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordMigration increments migrated record counts per outcome.
func (m *Metrics) RecordMigration(ctx context.Context, outcome string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.migrationRecords.Add(ctx, count, metric.WithAttributes(attrs...))
}

// RecordCapabilityProbe increments capability probe counts.
func (m *Metrics) RecordCapabilityProbe(ctx context.Context, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("result", strings.TrimSpace(result)))
	m.capabilityProbes.Add(ctx, 1, metric.WithAttributes(attrs...))
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
	"strategy":    {},
	"doc_type":    {},
	"outcome":     {},
	"result":      {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
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
