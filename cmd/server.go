package cmd

import (
	"audioarchive/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the audioarchive HTTP server",
	Long:  `Start the HTTP server that serves the audio catalog API and proxies stored assets.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
