// Krisinfo polls the Swedish crisis information feed, keeps the
// announcements relevant to the configured counties, and rotates them on a
// display surface.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	_ "golang.org/x/crypto/x509roots/fallback"

	displayv1 "github.com/jdholdren/krisinfo/api/display/v1"
	krerrs "github.com/jdholdren/krisinfo/internal/errors"
	"github.com/jdholdren/krisinfo/internal/fetch"
	"github.com/jdholdren/krisinfo/internal/krisinfo"
	"github.com/jdholdren/krisinfo/internal/present"
	"github.com/jdholdren/krisinfo/internal/schedule"
	"github.com/jdholdren/krisinfo/logger"
)

type config struct {
	// Always show nationwide announcements, whatever the areas.
	AlwaysNational   bool          `env:"ALWAYS_NATIONAL, default=true"`
	UpdateInterval   time.Duration `env:"UPDATE_INTERVAL, default=10m"`
	UIUpdateInterval time.Duration `env:"UI_UPDATE_INTERVAL, default=10s"`
	// County names, comma separated. Empty shows everything.
	Areas           []string `env:"AREAS"`
	ShowDescription bool     `env:"SHOW_DESCRIPTION, default=true"`
	// Don't show announcements older than this many days.
	Oldest int  `env:"OLDEST, default=7"`
	Silent bool `env:"SILENT, default=false"`
	Debug  bool `env:"DEBUG, default=false"`

	FeedURL      string        `env:"FEED_URL"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT, default=30s"`

	Port       int    `env:"PORT, default=4444"`
	CORSOrigin string `env:"CORS_ORIGIN"`

	WebhookURL     string        `env:"WEBHOOK_URL"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT, default=5s"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func (c config) Validate() error {
	var details []krerrs.Detail
	if c.UpdateInterval <= 0 {
		details = append(details, krerrs.Detail{Field: "UPDATE_INTERVAL", Error: "must be positive"})
	}
	if c.UIUpdateInterval <= 0 {
		details = append(details, krerrs.Detail{Field: "UI_UPDATE_INTERVAL", Error: "must be positive"})
	}
	if c.Oldest < 0 {
		details = append(details, krerrs.Detail{Field: "OLDEST", Error: "must not be negative"})
	}
	if c.LoggerFormat != "text" && c.LoggerFormat != "json" {
		details = append(details, krerrs.Detail{Field: "LOGGER_FORMAT", Error: "must be text or json"})
	}
	if len(details) > 0 {
		return krerrs.E("invalid configuration", http.StatusBadRequest, details)
	}

	return nil
}

func (c config) areas() []string {
	areas := make([]string, 0, len(c.Areas))
	for _, a := range c.Areas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}

	return areas
}

// What GET /v1/config reports, in the shape display modules expect.
func (c config) settings() displayv1.Config {
	return displayv1.Config{
		AlwaysNational:   c.AlwaysNational,
		UpdateInterval:   c.UpdateInterval.Milliseconds(),
		UIUpdateInterval: c.UIUpdateInterval.Milliseconds(),
		Areas:            c.areas(),
		ShowDescription:  c.ShowDescription,
		Oldest:           c.Oldest,
		Silent:           c.Silent,
		Debug:            c.Debug,
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("error validating config: %s", err)
	}

	l := logger.New(os.Stderr, cfg.LoggerFormat, cfg.Debug)
	slog.SetDefault(l)

	if err := run(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config) error {
	slog.Info("starting krisinfo", "areas", cfg.areas(), "update_interval", cfg.UpdateInterval, "ui_update_interval", cfg.UIUpdateInterval)

	app := fx.New(options(cfg)...)
	if err := app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	return app.Stop(downCtx)
}

func options(cfg config) []fx.Option {
	opts := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.SlogLogger{Logger: slog.Default()}
		}),
		fx.Supply(
			fetch.Config{
				URL:     cfg.FeedURL,
				Timeout: cfg.FetchTimeout,
			},
			krisinfo.FilterConfig{
				Areas:                 cfg.areas(),
				AlwaysIncludeNational: cfg.AlwaysNational,
			},
			krisinfo.RotationConfig{
				PollInterval:    cfg.UpdateInterval,
				DisplayInterval: cfg.UIUpdateInterval,
				OldestDays:      cfg.Oldest,
				SilentWhenStale: cfg.Silent,
				ShowDescription: cfg.ShowDescription,
			},
			present.SurfaceConfig{
				Port:       cfg.Port,
				CORSOrigin: cfg.CORSOrigin,
			},
			cfg.settings(),
		),
		fetch.Module,
		fx.Provide(func(f *fetch.Fetcher) schedule.Fetcher { return f }),
		present.Module,
		schedule.Module,
	}

	if cfg.WebhookURL != "" {
		opts = append(opts,
			fx.Supply(present.WebhookConfig{
				URL:     cfg.WebhookURL,
				Timeout: cfg.WebhookTimeout,
			}),
			present.WebhookModule,
		)
	}

	return opts
}
