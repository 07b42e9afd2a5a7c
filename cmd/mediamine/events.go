package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent enrichment events",
	RunE:  runEventsCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	eventsCmd.Flags().String("since", "", "Only events after this RFC 3339 timestamp")
	eventsCmd.Flags().String("request", "", "Show all events for one request ID")
}

func runEventsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	since, _ := cmd.Flags().GetString("since")
	requestID, _ := cmd.Flags().GetString("request")

	client := NewClient(serverURL)

	var (
		events *ListEventsResponse
		err    error
	)
	if requestID != "" {
		events, err = client.RequestEvents(requestID)
	} else {
		events, err = client.Events(limit, since)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	if jsonOutput {
		printJSON(events)
		return nil
	}

	if len(events.Items) == 0 {
		fmt.Println("No events")
		return nil
	}

	fmt.Printf("Events (%d):\n\n", events.Total)
	fmt.Printf("  %-12s %-28s %s\n", "TIME", "TYPE", "REQUEST")
	fmt.Println("  " + strings.Repeat("-", 62))

	for _, e := range events.Items {
		occurredAt, _ := time.Parse(time.RFC3339, e.OccurredAt)
		fmt.Printf("  %-12s %-28s %s\n", formatTimeAgo(occurredAt), e.EventType, e.RequestID)
	}

	return nil
}

// formatTimeAgo renders a timestamp as a short relative duration.
func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
