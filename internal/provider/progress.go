package provider

import (
	"context"
	"time"
)

// ProgressKind identifies a phase in a provider fetch.
type ProgressKind string

const (
	ProgressStarted   ProgressKind = "started"
	ProgressCompleted ProgressKind = "completed"
	ProgressFailed    ProgressKind = "failed"
	ProgressTimedOut  ProgressKind = "timed_out"
	ProgressFallback  ProgressKind = "fallback"
)

// Progress is a structured diagnostic event emitted by the orchestrator.
// Each provider produces at most one started and one terminal event per
// request; fallback events are emitted once per request when the chain
// activates. This is observability data only, never required for
// correctness.
type Progress struct {
	RequestID  string
	Kind       ProgressKind
	Operation  string // "metadata" or "assets"
	ProviderID string
	EntityType EntityType
	Err        string
	Candidates int // assets found (completed/fallback events)
	Failed     []string
	Succeeded  int
	Total      int
	Elapsed    time.Duration
}

// ProgressSink receives orchestration progress events. Implementations
// must not block; slow consumers should buffer or drop.
type ProgressSink interface {
	Publish(ctx context.Context, p Progress)
}

// NopSink discards all progress events.
type NopSink struct{}

// Publish implements ProgressSink.
func (NopSink) Publish(context.Context, Progress) {}
