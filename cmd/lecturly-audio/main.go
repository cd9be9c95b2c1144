// Command lecturly-audio serves the audio-to-notes API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kbukum/lecturly/api"
	"github.com/kbukum/lecturly/bootstrap"
	"github.com/kbukum/lecturly/gemini"
	"github.com/kbukum/lecturly/logger"
	"github.com/kbukum/lecturly/notes"
	"github.com/kbukum/lecturly/observability"
	"github.com/kbukum/lecturly/server"
	"github.com/kbukum/lecturly/util"
	"github.com/kbukum/lecturly/version"
)

// backend is what both Gemini clients provide.
type backend interface {
	notes.Backend
	api.ModelLister
	Model() string
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Version
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	app.OnConfigure(configure)
	return app.Run(ctx)
}

func configure(ctx context.Context, app *bootstrap.App[*Config]) error {
	cfg := app.Cfg

	shutdown, err := observability.Setup(ctx, cfg.Tracing, observability.Resource{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	app.OnStop(shutdown)
	metrics := observability.DefaultMetrics()

	gc, err := newBackend(ctx, cfg.Gemini, metrics, app.Logger)
	if err != nil {
		return fmt.Errorf("gemini client: %w", err)
	}
	app.Summary.TrackClient("gemini", cfg.Gemini.BaseURL+" ("+gc.Model()+")", cfg.Gemini.Backend)
	app.Logger.Info("Gemini client ready", logger.Fields(
		"backend", cfg.Gemini.Backend,
		"model", gc.Model(),
		"api_key", util.MaskSecret(cfg.Gemini.APIKey, 4),
	))

	svc := notes.NewService(gc,
		notes.WithMetrics(metrics),
		notes.WithLogger(app.Logger),
	)

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyDefaults(healthServiceName, app.Components.HealthAll)
	api.NewHandler(svc, gc, app.Logger).Register(srv.GinEngine())

	app.Logger.Info("Routes configured", logger.Fields(
		"max_audio", notes.MaxAudioSize,
		"formats", notes.SupportedExtensions(),
		"tracing", cfg.Tracing.Enabled,
	))
	return app.RegisterComponent(server.NewComponent(srv))
}

func newBackend(ctx context.Context, cfg gemini.Config, metrics *observability.Metrics, log *logger.Logger) (backend, error) {
	if cfg.Backend == gemini.BackendSDK {
		return gemini.NewSDKClient(ctx, cfg, metrics, log)
	}
	return gemini.NewClient(cfg, metrics, log)
}
