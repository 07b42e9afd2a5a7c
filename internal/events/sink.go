package events

import (
	"context"

	"github.com/skoslow/mediamine/internal/provider"
)

// BusSink bridges the orchestrator's progress stream onto the event
// bus, translating each progress notification into its typed event.
type BusSink struct {
	bus *Bus
}

// NewBusSink creates a progress sink publishing to the given bus.
func NewBusSink(bus *Bus) *BusSink {
	return &BusSink{bus: bus}
}

// Publish implements provider.ProgressSink.
func (s *BusSink) Publish(ctx context.Context, p provider.Progress) {
	var e Event
	switch p.Kind {
	case provider.ProgressStarted:
		e = &ProviderFetchStarted{
			BaseEvent:  NewBaseEvent(EventProviderFetchStarted, p.RequestID),
			Provider:   p.ProviderID,
			Operation:  p.Operation,
			EntityType: string(p.EntityType),
		}
	case provider.ProgressCompleted:
		e = &ProviderFetchCompleted{
			BaseEvent:  NewBaseEvent(EventProviderFetchCompleted, p.RequestID),
			Provider:   p.ProviderID,
			Operation:  p.Operation,
			EntityType: string(p.EntityType),
			Candidates: p.Candidates,
			ElapsedMS:  p.Elapsed.Milliseconds(),
		}
	case provider.ProgressFailed, provider.ProgressTimedOut:
		eventType := EventProviderFetchFailed
		if p.Kind == provider.ProgressTimedOut {
			eventType = EventProviderFetchTimedOut
		}
		e = &ProviderFetchFailed{
			BaseEvent:  NewBaseEvent(eventType, p.RequestID),
			Provider:   p.ProviderID,
			Operation:  p.Operation,
			EntityType: string(p.EntityType),
			Error:      p.Err,
			TimedOut:   p.Kind == provider.ProgressTimedOut,
			ElapsedMS:  p.Elapsed.Milliseconds(),
		}
	case provider.ProgressFallback:
		e = &FallbackActivated{
			BaseEvent:       NewBaseEvent(EventFallbackActivated, p.RequestID),
			Operation:       p.Operation,
			EntityType:      string(p.EntityType),
			Failed:          p.Failed,
			Succeeded:       p.Succeeded,
			CandidatesFound: p.Candidates,
			Total:           p.Total,
		}
	default:
		return
	}
	_ = s.bus.Publish(ctx, e)
}
