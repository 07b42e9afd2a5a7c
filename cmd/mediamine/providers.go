package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers",
	RunE:  runProvidersCmd,
}

var breakersCmd = &cobra.Command{
	Use:   "breakers",
	Short: "Show circuit breaker state per provider",
	RunE:  runBreakersCmd,
}

var providersTestCmd = &cobra.Command{
	Use:   "test [id]",
	Short: "Test provider connectivity",
	Long:  "Tests connectivity for one provider, or every registered provider when no ID is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProvidersTestCmd,
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(breakersCmd)
	providersCmd.AddCommand(providersTestCmd)
}

func runProvidersCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	providers, err := client.Providers()
	if err != nil {
		return fmt.Errorf("failed to fetch providers: %w", err)
	}

	if jsonOutput {
		printJSON(providers)
		return nil
	}

	if len(providers) == 0 {
		fmt.Println("No providers registered")
		return nil
	}

	fmt.Printf("Providers (%d):\n\n", len(providers))
	fmt.Printf("  %-12s %-22s %-10s %-20s %s\n", "ID", "NAME", "CATEGORY", "ENTITIES", "CURATED")
	fmt.Println("  " + strings.Repeat("-", 72))

	for _, p := range providers {
		curated := ""
		if p.Curated {
			curated = "yes"
		}
		fmt.Printf("  %-12s %-22s %-10s %-20s %s\n",
			p.ID, p.Name, p.Category, strings.Join(p.EntityTypes, ","), curated)
	}

	return nil
}

func runProvidersTestCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	var ids []string
	if len(args) > 0 {
		ids = args
	} else {
		providers, err := client.Providers()
		if err != nil {
			return fmt.Errorf("failed to fetch providers: %w", err)
		}
		for _, p := range providers {
			ids = append(ids, p.ID)
		}
	}

	results := make([]ProviderTestResult, 0, len(ids))
	failed := false
	for _, id := range ids {
		result, err := client.TestProvider(id)
		if err != nil {
			results = append(results, ProviderTestResult{ID: id, Error: err.Error()})
			failed = true
			continue
		}
		if !result.OK {
			failed = true
		}
		results = append(results, *result)
	}

	if jsonOutput {
		printJSON(results)
	} else {
		fmt.Printf("  %-12s %-8s %s\n", "ID", "STATUS", "LATENCY/ERROR")
		fmt.Println("  " + strings.Repeat("-", 50))
		for _, r := range results {
			status := "ok"
			detail := fmt.Sprintf("%dms", r.ElapsedMs)
			if r.Error != "" {
				status = "failed"
				detail = r.Error
			}
			fmt.Printf("  %-12s %-8s %s\n", r.ID, status, detail)
		}
	}

	if failed {
		return fmt.Errorf("one or more providers failed the connection test")
	}
	return nil
}

func runBreakersCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	breakers, err := client.Breakers()
	if err != nil {
		return fmt.Errorf("failed to fetch breaker state: %w", err)
	}

	if jsonOutput {
		printJSON(breakers)
		return nil
	}

	if len(breakers) == 0 {
		fmt.Println("No breaker activity yet")
		return nil
	}

	fmt.Printf("Circuit Breakers (%d):\n\n", len(breakers))
	fmt.Printf("  %-24s %-10s %-10s %s\n", "KEY", "STATE", "FAILURES", "LAST FAILURE")
	fmt.Println("  " + strings.Repeat("-", 68))

	for _, b := range breakers {
		fmt.Printf("  %-24s %-10s %-10d %s\n", b.Key, b.State, b.ConsecutiveFailures, b.LastFailure)
	}

	return nil
}
