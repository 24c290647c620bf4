package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ofsadmin/internal/ofs"
	"ofsadmin/internal/platform/config"
)

var (
	cleanupCutoffDays int
	cleanupOnlyActive bool
	cleanupApply      bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Scan for stale technician accounts and optionally remove them",
	Long: `Walks the OFS user collection, classifies accounts whose last login
is at or beyond the cutoff, and prints the result as JSON. Without
--apply nothing is changed upstream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cleanupCutoffDays <= 0 {
			cleanupCutoffDays = cfg.ScanCutoffDays
		}

		client := ofs.NewClient(cfg.OFS())

		candidates, meta := client.FindStaleUsers(cmd.Context(), cleanupCutoffDays, cleanupOnlyActive)
		if !meta.OK {
			return fmt.Errorf("scan failed (first code %s): %s", meta.FirstCode, meta.Error)
		}

		results := client.ExecuteCleanup(cmd.Context(), candidates, cleanupApply)

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"cutoffDays": cleanupCutoffDays,
			"applied":    cleanupApply,
			"meta":       meta,
			"results":    results,
		})
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupCutoffDays, "cutoff-days", 0, "staleness cutoff in days (default from SCAN_CUTOFF_DAYS)")
	cleanupCmd.Flags().BoolVar(&cleanupOnlyActive, "only-active", false, "only consider accounts with status active")
	cleanupCmd.Flags().BoolVar(&cleanupApply, "apply", false, "actually delete users and deactivate resources")
	rootCmd.AddCommand(cleanupCmd)
}
