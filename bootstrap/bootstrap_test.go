package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/lecturly/component"
	"github.com/kbukum/lecturly/config"
	"github.com/kbukum/lecturly/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	mu       sync.Mutex
	events   *[]string
	health   component.Health
}

func (m *mockComponent) record(e string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events != nil {
		*m.events = append(*m.events, e)
	}
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	m.record("start:" + m.name)
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	m.record("stop:" + m.name)
	return nil
}
func (m *mockComponent) Health(context.Context) component.Health { return m.health }
func (m *mockComponent) Describe() component.Description {
	return component.Description{Name: "Mock", Type: "test", Details: "in-memory"}
}
func (m *mockComponent) Routes() []component.Route {
	return []component.Route{{Method: "POST", Path: "/audio-to-notes", Handler: "Handler.AudioToNotes"}}
}

func newTestApp(t *testing.T, out *bytes.Buffer) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "lecturly-audio", Version: "1.0.0"}}
	app, err := NewApp(cfg, WithLogger(logger.Nop()), WithSummaryOutput(out), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp_AppliesDefaults(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	if app.Name != "lecturly-audio" || app.Version != "1.0.0" {
		t.Errorf("unexpected app identity %s %s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected default environment, got %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != time.Second {
		t.Errorf("expected graceful timeout option, got %s", app.gracefulTimeout)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.Nop()))
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestApp_RunLifecycle(t *testing.T) {
	var (
		out    bytes.Buffer
		events []string
	)
	app := newTestApp(t, &out)
	infra := &mockComponent{name: "infra", events: &events, health: component.Health{Name: "infra", Status: component.StatusHealthy}}
	if err := app.RegisterComponent(infra); err != nil {
		t.Fatal(err)
	}

	app.OnStart(func(context.Context) error { infra.record("hook:start"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		infra.record("configure")
		return a.RegisterComponent(&mockComponent{name: "http", events: &events, health: component.Health{Name: "http", Status: component.StatusHealthy}})
	})
	app.OnReady(func(context.Context) error { infra.record("hook:ready"); return nil })
	app.OnStop(func(context.Context) error { infra.record("hook:stop"); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "start:infra,hook:start,configure,start:http,hook:ready,hook:stop,stop:http,stop:infra"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("expected %s\ngot      %s", want, got)
	}

	summary := out.String()
	for _, s := range []string{"lecturly-audio 1.0.0", "Mock [test]: in-memory", "/audio-to-notes", "http: healthy"} {
		if !strings.Contains(summary, s) {
			t.Errorf("expected %q in summary:\n%s", s, summary)
		}
	}
}

func TestApp_RunStartFailure(t *testing.T) {
	var events []string
	app := newTestApp(t, &bytes.Buffer{})
	_ = app.RegisterComponent(&mockComponent{name: "a", events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "b", events: &events, startErr: errors.New("bind: address in use")})

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("expected start failure, got %v", err)
	}
	if got := strings.Join(events, ","); got != "start:a,start:b,stop:a" {
		t.Errorf("unexpected events %s", got)
	}
}

func TestApp_ReadyCheck(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	_ = app.RegisterComponent(&mockComponent{name: "ok", health: component.Health{Name: "ok", Status: component.StatusDegraded}})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("degraded should not fail the ready check: %v", err)
	}
	_ = app.RegisterComponent(&mockComponent{name: "bad", health: component.Health{Name: "bad", Status: component.StatusUnhealthy, Message: "down"}})
	if err := app.ReadyCheck(context.Background()); err == nil || !strings.Contains(err.Error(), "bad(down)") {
		t.Errorf("expected unhealthy component in error, got %v", err)
	}
}

func TestSummary_Clients(t *testing.T) {
	var out bytes.Buffer
	s := NewSummary("svc", "dev", &out)
	s.TrackClient("gemini", "https://generativelanguage.googleapis.com", "rest")
	s.Display(context.Background(), nil)
	if !strings.Contains(out.String(), "gemini -> https://generativelanguage.googleapis.com (rest)") {
		t.Errorf("unexpected summary %s", out.String())
	}
}
