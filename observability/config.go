// Package observability wires OpenTelemetry tracing and metrics.
//
// When disabled, the global no-op providers stay installed so spans and
// instruments created anywhere in the service cost nothing.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Config configures trace and metric export over OTLP/HTTP.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling ratio in [0, 1]. Zero disables
	// sampling; the config loader supplies 1.0 when the key is unset.
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	// MetricInterval is the metric push interval.
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	return nil
}

// Resource identifies the service on exported telemetry.
type Resource struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// Setup installs global trace and meter providers when enabled and returns
// a function that flushes and stops them.
func Setup(ctx context.Context, cfg Config, res Resource) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	r, err := newResource(res)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	tp, err := InitTracer(ctx, cfg, r)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg, r)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func newResource(res Resource) (*resource.Resource, error) {
	// Schemaless, so the merge takes the SDK default's schema URL whatever
	// semconv version it was built against.
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(res.ServiceName),
			semconv.ServiceVersion(res.ServiceVersion),
			attribute.String("environment", res.Environment),
		),
	)
}
