package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ofsadmin/internal/platform/config"
	"ofsadmin/internal/platform/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}

		pool, err := db.Connect(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("db connect failed: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(cmd.Context(), pool); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
