package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"rtmbot/internal/backend/googletasks"
	"rtmbot/internal/backend/rtm"
	"rtmbot/internal/bot"
	"rtmbot/internal/config"
	"rtmbot/internal/exitcode"
	"rtmbot/internal/observability"
	"rtmbot/internal/service"
	"rtmbot/internal/store"
)

// app holds the wired components shared by serve and repl.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      store.Store
	registry   *prometheus.Registry
	metrics    *observability.Metrics
	dispatcher *bot.Dispatcher
}

func newApp(ctx context.Context, opts *globalOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configDir, opts.configFile)
	if err != nil {
		return nil, withCode(exitcode.ConfigError, err)
	}
	if opts.debug {
		cfg.Debug = true
	}
	logger := observability.NewLogger(logOut, cfg.Debug)

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, withCode(exitcode.ConfigError, err)
	}

	st, err := store.NewStore(ctx, cfg.Store)
	if err != nil {
		return nil, withCode(exitcode.BackendError, fmt.Errorf("open store: %w", err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(cfg.MetricsNamespace, reg)

	d := bot.NewDispatcher(backend, st,
		bot.WithLogger(logger),
		bot.WithMetrics(metrics),
		bot.WithSettingsTTL(time.Duration(cfg.SettingsTTL)),
		bot.WithBotName(cfg.BotName),
	)

	logger.Info("rtmbot ready", "backend", backend.Name(), "config", cfg.Source, "version", Version)
	return &app{cfg: cfg, logger: logger, store: st, registry: reg, metrics: metrics, dispatcher: d}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// newBackend builds the task service named by cfg.Backend.
func newBackend(cfg *config.Config) (service.Backend, error) {
	switch cfg.Backend {
	case config.BackendGoogleTasks:
		clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
		}
		return googletasks.NewBackend(clientJSON, cfg.GoogleRedirectURL, time.Duration(cfg.APITimeout))
	default:
		return rtm.NewBackend(rtm.Config{
			APIKey:       cfg.RTM.APIKey,
			SharedSecret: cfg.RTM.SharedSecret,
			RESTURL:      cfg.RTM.RESTURL,
			AuthURL:      cfg.RTM.AuthURL,
			Timeout:      time.Duration(cfg.APITimeout),
		})
	}
}
