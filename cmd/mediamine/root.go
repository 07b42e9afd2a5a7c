package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "mediamine",
	Short: "CLI client for the mediamine enrichment daemon",
	Long: `mediamine - CLI client for the mediamine enrichment daemon

Fetch metadata and artwork for your library from multiple providers,
with automatic fallback when a provider is down.

Run 'mediamined' to start the server daemon.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8787", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("mediamine {{.Version}}\n")
}
