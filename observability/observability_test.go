package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.MetricInterval != 15*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.SampleRate != 0 {
		t.Errorf("expected an explicit zero sample rate to be kept, got %v", cfg.SampleRate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false}, Resource{ServiceName: "svc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestSetupEnabled(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	cfg := Config{Enabled: true, Insecure: true, SampleRate: 1}
	cfg.ApplyDefaults()
	// Exporters connect lazily, so setup succeeds without a collector.
	shutdown, err := Setup(context.Background(), cfg, Resource{ServiceName: "svc", ServiceVersion: "1.0.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Error("expected sdk tracer provider to be installed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

func TestNewResource(t *testing.T) {
	r, err := newResource(Resource{ServiceName: "svc", ServiceVersion: "1.2.3", Environment: "production"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.SchemaURL() != resource.Default().SchemaURL() {
		t.Errorf("expected default schema %q, got %q", resource.Default().SchemaURL(), r.SchemaURL())
	}
	want := map[string]string{"service.name": "svc", "service.version": "1.2.3", "environment": "production"}
	got := map[string]string{}
	for _, kv := range r.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, got[k])
		}
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, sdktrace.AlwaysSample().Description()},
		{0, sdktrace.NeverSample().Description()},
		{0.5, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %s, want %s", tc.rate, got, tc.want)
		}
	}
}

func TestStartAndEndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), SpanGenerate, attribute.String(AttrModel, "gemini-2.5-flash"))
	EndSpan(span, errors.New("upstream 404"))
	_, ok := StartSpan(context.Background(), SpanUpload)
	EndSpan(ok, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != SpanGenerate || spans[0].Status().Code != codes.Error {
		t.Errorf("expected errored generate span, got %s %v", spans[0].Name(), spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("expected recorded error event")
	}
	if spans[1].Status().Code == codes.Error {
		t.Error("expected successful span not to be errored")
	}
}

func TestMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	m.RecordNotes(ctx, OutcomeFallback, "audio/mpeg", 1024)
	m.RecordNotes(ctx, OutcomeGenerated, "audio/wav", 2048)
	m.RecordUpstream(ctx, "generate", 503, 20*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			found[md.Name] = true
			if md.Name == "notes.requests" {
				sum, ok := md.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) != 2 {
					t.Errorf("expected two outcome series, got %+v", md.Data)
				}
			}
		}
	}
	for _, name := range []string{"notes.requests", "gemini.calls", "gemini.call.duration", "notes.audio.size"} {
		if !found[name] {
			t.Errorf("expected metric %s to be exported", name)
		}
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordNotes(context.Background(), OutcomeFailed, "audio/mpeg", 1)
	m.RecordUpstream(context.Background(), "upload", 0, time.Second)

	noopMetrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil || noopMetrics == nil {
		t.Fatalf("expected noop metrics, err=%v", err)
	}
	if DefaultMetrics() == nil {
		t.Error("expected default metrics on the global provider")
	}
}
