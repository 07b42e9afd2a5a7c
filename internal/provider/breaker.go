package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// halfOpenSuccesses is the number of consecutive trial successes required
// to close a half-open breaker. Two, not one, so a single lucky probe
// against a still-flaky provider does not flap the circuit.
const halfOpenSuccesses = 2

// Breaker state names. gobreaker spells half-open with a hyphen; these are
// the names used in logs, events and stats.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit from closed.
	FailureThreshold uint32
	// ResetTimeout is how long an open circuit waits before allowing
	// half-open trial calls.
	ResetTimeout time.Duration
	// OnOpen and OnClose are invoked on the corresponding transitions.
	// Optional.
	OnOpen  func()
	OnClose func()
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.ResetTimeout == 0 {
		c.ResetTimeout = 60 * time.Second
	}
	return c
}

// Breaker isolates one provider (and operation category) from repeated
// calls while it is failing, and probes for recovery after ResetTimeout.
// It is the only mutable state shared by concurrent calls to the same
// provider; all transitions are serialized internally.
type Breaker struct {
	name string
	cfg  BreakerConfig
	log  *slog.Logger

	mu          sync.Mutex
	cb          *gobreaker.CircuitBreaker[any]
	lastFailure time.Time
}

// NewBreaker creates a circuit breaker named for its provider and
// operation, e.g. "tmdb/metadata".
func NewBreaker(name string, cfg BreakerConfig, log *slog.Logger) *Breaker {
	if log == nil {
		log = slog.Default()
	}
	b := &Breaker{
		name: name,
		cfg:  cfg.withDefaults(),
		log:  log.With("breaker", name),
	}
	b.cb = b.newCircuit()
	return b
}

func (b *Breaker) newCircuit() *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        b.name,
		MaxRequests: halfOpenSuccesses,
		Interval:    0, // never clear counts while closed; threshold is on consecutive failures
		Timeout:     b.cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Info("circuit breaker state change",
				"from", stateName(from), "to", stateName(to))
			switch to {
			case gobreaker.StateOpen:
				if b.cfg.OnOpen != nil {
					b.cfg.OnOpen()
				}
			case gobreaker.StateClosed:
				if b.cfg.OnClose != nil {
					b.cfg.OnClose()
				}
			}
		},
	})
}

// Execute runs fn through the breaker. While the circuit is open it fails
// fast with ErrBreakerOpen without invoking fn; once ResetTimeout has
// elapsed the circuit moves to half-open and fn is tried. Failures are
// re-returned unchanged.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	b.mu.Lock()
	cb := b.cb
	b.mu.Unlock()

	result, err := cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", b.name, ErrBreakerOpen)
		}
		b.mu.Lock()
		b.lastFailure = time.Now()
		b.mu.Unlock()
		return nil, err
	}
	return result, nil
}

// State returns the current state name: closed, open or half_open.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return stateName(b.cb.State())
}

// IsOpen reports whether calls are currently being rejected.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// BreakerStats is a read-only snapshot of breaker state.
type BreakerStats struct {
	State                string
	ConsecutiveFailures  uint32
	ConsecutiveSuccesses uint32
	LastFailure          time.Time
}

// Stats returns a snapshot of the breaker's counters.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	counts := b.cb.Counts()
	return BreakerStats{
		State:                stateName(b.cb.State()),
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		LastFailure:          b.lastFailure,
	}
}

// Reset forces the breaker closed with cleared counters. Testing and
// admin use only.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cb = b.newCircuit()
	b.lastFailure = time.Time{}
}

func stateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
