package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ofsadmin",
	Short: "Admin tooling for OFS technician accounts",
	Long: `ofsadmin manages technician accounts on the Oracle Field Service
platform: stale account cleanup, user type updates, bulk provisioning
and notdone activity triage.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
