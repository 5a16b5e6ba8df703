package main

import (
	"encoding/json"
	"fmt"

	"github.com/foxseedlab/tsuyaku/internal/settings"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func newSettingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print the current language settings as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			injector := setupDI(cfg)
			store, err := do.Invoke[*settings.Store](injector)
			if err != nil {
				return fmt.Errorf("failed to resolve settings: %w", err)
			}
			b, err := json.MarshalIndent(store.Current(), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
