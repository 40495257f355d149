package cmd

import (
	"fmt"
	"log"
	"os"

	"audioarchive/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "audioarchive",
	Short: "audioarchive is a catalog and player backend for uploaded audio recordings.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting audioarchive server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
