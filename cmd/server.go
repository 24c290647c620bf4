package cmd

import (
	"github.com/spf13/cobra"

	"ofsadmin/internal/app/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the admin web server",
	Run: func(cmd *cobra.Command, args []string) {
		server.Run()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
