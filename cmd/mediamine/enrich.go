package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch metadata and artwork for one entity",
	Long: `Fetches metadata and selects the best artwork for a movie or series,
querying providers in priority order with automatic fallback.

At least one external ID is required.`,
	Example: `  mediamine enrich --type movie --tmdb 603 --assets poster,background
  mediamine enrich --type series --tvdb 121361 --language de
  mediamine enrich --type movie --imdb tt0133093 --force`,
	RunE: runEnrichCmd,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().String("type", "movie", "Entity type (movie, series)")
	enrichCmd.Flags().String("tmdb", "", "TMDB ID")
	enrichCmd.Flags().String("imdb", "", "IMDB ID")
	enrichCmd.Flags().String("tvdb", "", "TVDB ID")
	enrichCmd.Flags().StringSlice("fields", nil, "Restrict metadata to these fields")
	enrichCmd.Flags().StringSlice("assets", nil, "Asset types to fetch (poster, background, logo, banner, thumb, trailer)")
	enrichCmd.Flags().String("language", "", "Preferred content language")
	enrichCmd.Flags().Bool("force", false, "Bypass the response cache")
}

func runEnrichCmd(cmd *cobra.Command, args []string) error {
	entityType, _ := cmd.Flags().GetString("type")
	fields, _ := cmd.Flags().GetStringSlice("fields")
	assetTypes, _ := cmd.Flags().GetStringSlice("assets")
	language, _ := cmd.Flags().GetString("language")
	force, _ := cmd.Flags().GetBool("force")

	ids := make(map[string]string)
	for _, kind := range []string{"tmdb", "imdb", "tvdb"} {
		if value, _ := cmd.Flags().GetString(kind); value != "" {
			ids[kind] = value
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("at least one of --tmdb, --imdb, --tvdb is required")
	}

	client := NewClient(serverURL)
	result, err := client.Enrich(EnrichRequest{
		Type:         entityType,
		IDs:          ids,
		Fields:       fields,
		Language:     language,
		AssetTypes:   assetTypes,
		ForceRefresh: force,
	})
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}

	printEnrichHuman(result)
	return nil
}

func printEnrichHuman(result *EnrichResponse) {
	source := result.Provider
	if result.CacheHit {
		source += " (cached)"
	}
	fmt.Printf("Metadata from %s (completeness %.0f%%, confidence %.0f%%):\n\n",
		source, result.Completeness*100, result.Confidence*100)

	names := make([]string, 0, len(result.Fields))
	for name := range result.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := result.Fields[name]
		if len(value) > 100 {
			value = value[:97] + "..."
		}
		fmt.Printf("  %-14s %s\n", name, value)
	}

	if len(result.Assets) == 0 {
		return
	}

	types := make([]string, 0, len(result.Assets))
	for at := range result.Assets {
		types = append(types, at)
	}
	sort.Strings(types)

	for _, at := range types {
		list := result.Assets[at]
		fmt.Printf("\n%s (%d):\n", strings.ToUpper(at[:1])+at[1:], len(list))
		for i, a := range list {
			detail := a.Quality
			if a.Width > 0 {
				detail = fmt.Sprintf("%dx%d %s", a.Width, a.Height, a.Quality)
			}
			marker := " "
			if a.Preferred {
				marker = "*"
			}
			fmt.Printf("  %d.%s [%s, %s] %s\n", i+1, marker, a.Provider, detail, a.URL)
		}
	}
}
