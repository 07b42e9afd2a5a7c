package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skoslow/mediamine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields, and environment variable substitution without starting the server.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configTestCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "config.toml"
	if len(args) > 0 {
		path = args[0]
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Set TMDB_API_KEY (and optionally TVDB_API_KEY, FANARTTV_API_KEY) before starting the daemon.")
	return nil
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		discovered, err := config.Discover()
		if err != nil {
			return err
		}
		path = discovered
	}

	fmt.Printf("Validating %s...\n\n", path)

	cfg, err := config.LoadValidated(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(cfg)
	fmt.Println("\nConfiguration valid!")
	return nil
}

func printConfigErrors(e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Println("Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Printf("  - %s\n", m)
		}
		fmt.Println()
	}

	if len(e.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range e.Errors {
			fmt.Printf("  - %s\n", err)
		}
		fmt.Println()
	}
}

func printConfigSummary(cfg *config.Config) {
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Server:     %s (log: %s)\n", cfg.Server.ListenAddr, cfg.Server.LogLevel)
	fmt.Printf("  Database:   %s\n", cfg.Database.Path)

	enabled := []string{}
	disabled := []string{}
	for _, name := range cfg.ProviderNames() {
		if cfg.Providers[name].Enabled {
			enabled = append(enabled, name)
		} else {
			disabled = append(disabled, name)
		}
	}
	fmt.Printf("  Providers:  %s", strings.Join(enabled, ", "))
	if len(disabled) > 0 {
		fmt.Printf(" (disabled: %s)", strings.Join(disabled, ", "))
	}
	fmt.Println()

	fmt.Printf("  Selection:  lang=%s quality=%s max=%d\n",
		cfg.Selection.PreferredLanguage, cfg.Selection.Quality, cfg.Selection.MaxAssets)
	fmt.Printf("  Breaker:    %d failures, %s reset\n",
		cfg.Breaker.FailureThreshold, cfg.Breaker.ResetTimeout.Std())
	fmt.Printf("  Cache:      ttl=%s\n", cfg.Cache.TTL.Std())
}
