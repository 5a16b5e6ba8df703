package main

import (
	"fmt"
	"log/slog"
	"os"

	captureimpl "github.com/foxseedlab/tsuyaku/external/capture"
	configloader "github.com/foxseedlab/tsuyaku/external/config"
	discordimpl "github.com/foxseedlab/tsuyaku/external/discord"
	repositoryimpl "github.com/foxseedlab/tsuyaku/external/repository"
	speechimpl "github.com/foxseedlab/tsuyaku/external/speech"
	translatorimpl "github.com/foxseedlab/tsuyaku/external/translator"
	webhookimpl "github.com/foxseedlab/tsuyaku/external/webhook"
	"github.com/foxseedlab/tsuyaku/internal/config"
	"github.com/foxseedlab/tsuyaku/internal/discord"
	"github.com/foxseedlab/tsuyaku/internal/repository"
	"github.com/foxseedlab/tsuyaku/internal/session"
	"github.com/foxseedlab/tsuyaku/internal/settings"
	"github.com/samber/do/v2"
)

func loadConfig() (*config.Config, error) {
	slog.Info("startup: loading configuration")
	cfg, err := configloader.Load()
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)
	return cfg, nil
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	settings.RegisterDI(injector)
	speechimpl.RegisterDI(injector)
	captureimpl.RegisterDI(injector)
	discordimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	translatorimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

// teardown closes the live session first so the socket and capture stop
// before the stores they report to.
func teardown(injector do.Injector, manager *session.Manager) {
	manager.Close()
	if dc, err := do.Invoke[discord.Client](injector); err == nil {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}
	if repo, err := do.Invoke[repository.Repository](injector); err == nil {
		if closer, ok := repo.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
