package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/foxseedlab/tsuyaku/internal/httpapi"
	"github.com/foxseedlab/tsuyaku/internal/session"
	"github.com/foxseedlab/tsuyaku/internal/settings"
	"github.com/foxseedlab/tsuyaku/internal/translator"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session control API and translate proxy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			slog.Info("startup: building dependency graph")
			injector := setupDI(cfg)
			manager, err := do.Invoke[*session.Manager](injector)
			if err != nil {
				return fmt.Errorf("failed to resolve session manager: %w", err)
			}
			defer teardown(injector, manager)
			store := do.MustInvoke[*settings.Store](injector)
			translate := do.MustInvoke[*translator.Service](injector)

			server := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           httpapi.NewHandler(manager, store, translate),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("http server listening", "addr", cfg.HTTPAddr)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				slog.Info("shutting down")
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server failed: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("graceful shutdown failed", "error", err)
				if closeErr := server.Close(); closeErr != nil {
					slog.Error("forced close failed", "error", closeErr)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}
