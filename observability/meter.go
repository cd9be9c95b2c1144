package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// InitMeter creates a meter provider pushing over OTLP/HTTP and installs it.
func InitMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the service meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(tracerName)
}

// Notes outcomes.
const (
	OutcomeGenerated = "generated"
	OutcomeFallback  = "fallback"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics holds the service's instruments.
type Metrics struct {
	notesTotal       metric.Int64Counter
	upstreamTotal    metric.Int64Counter
	upstreamDuration metric.Float64Histogram
	audioBytes       metric.Int64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	notesTotal, err := meter.Int64Counter("notes.requests",
		metric.WithDescription("Audio-to-notes conversions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notes.requests counter: %w", err)
	}

	upstreamTotal, err := meter.Int64Counter("gemini.calls",
		metric.WithDescription("Calls to the Gemini API by operation and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gemini.calls counter: %w", err)
	}

	upstreamDuration, err := meter.Float64Histogram("gemini.call.duration",
		metric.WithDescription("Duration of Gemini API calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gemini.call.duration histogram: %w", err)
	}

	audioBytes, err := meter.Int64Histogram("notes.audio.size",
		metric.WithDescription("Size of accepted audio uploads"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notes.audio.size histogram: %w", err)
	}

	return &Metrics{
		notesTotal:       notesTotal,
		upstreamTotal:    upstreamTotal,
		upstreamDuration: upstreamDuration,
		audioBytes:       audioBytes,
	}, nil
}

// DefaultMetrics creates the instruments on the global meter provider.
// A nil *Metrics is returned on failure; its methods are no-ops.
func DefaultMetrics() *Metrics {
	m, err := NewMetrics(Meter())
	if err != nil {
		return nil
	}
	return m
}

// RecordNotes counts a conversion by outcome.
func (m *Metrics) RecordNotes(ctx context.Context, outcome, mimeType string, size int) {
	if m == nil {
		return
	}
	m.notesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("mime_type", mimeType),
	))
	if size > 0 {
		m.audioBytes.Record(ctx, int64(size))
	}
}

// RecordUpstream records one Gemini call. Status is 0 for transport failures.
func (m *Metrics) RecordUpstream(ctx context.Context, operation string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Int("status", status),
	)
	m.upstreamTotal.Add(ctx, 1, attrs)
	m.upstreamDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("operation", operation)))
}
