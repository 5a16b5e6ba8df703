package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/foxseedlab/tsuyaku/internal/section"
	"github.com/foxseedlab/tsuyaku/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func newListenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Start one live session and log sealed sections until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			injector := setupDI(cfg)
			manager, err := do.Invoke[*session.Manager](injector)
			if err != nil {
				return fmt.Errorf("failed to resolve session manager: %w", err)
			}
			defer teardown(injector, manager)

			manager.OnSectionSealed(func(sec section.Section) {
				args := []any{"section_number", sec.Number}
				for _, e := range sec.Translations {
					args = append(args, e.Language, e.Translation)
				}
				slog.Info("section sealed", args...)
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			snap, err := manager.Start(ctx)
			if err != nil {
				return err
			}
			if snap.Handle == nil {
				return fmt.Errorf("live session ended before listening started: %s", snap.Error)
			}
			slog.Info("listening", "session_id", snap.Handle.ID, "languages", snap.Settings.Languages)

			<-ctx.Done()
			slog.Info("stopping live session")
			return nil
		},
	}
}
