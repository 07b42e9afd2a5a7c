package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultCallTimeout = 15 * time.Second

// Orchestrator fans requests out to every eligible provider, tolerates
// partial failure through per-provider circuit breakers, merges metadata
// responses and pools asset candidates. It is the error boundary for the
// provider layer: nothing below it lets an error escape uncaught, and
// callers above it only ever see the aggregate FetchError.
type Orchestrator struct {
	registry    *Registry
	configs     ConfigSource
	sink        ProgressSink
	log         *slog.Logger
	breakerCfg  BreakerConfig
	callTimeout time.Duration

	mu       sync.Mutex
	breakers map[string]*Breaker // keyed provider/operation
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithProgressSink routes diagnostic progress events to sink.
func WithProgressSink(sink ProgressSink) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// WithBreakerConfig overrides the circuit breaker settings used for every
// provider.
func WithBreakerConfig(cfg BreakerConfig) OrchestratorOption {
	return func(o *Orchestrator) {
		o.breakerCfg = cfg
	}
}

// WithCallTimeout sets the default per-provider call timeout, used when a
// provider config does not set its own.
func WithCallTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.callTimeout = d
	}
}

// NewOrchestrator creates an orchestrator over the given registry and
// configuration source.
func NewOrchestrator(registry *Registry, configs ConfigSource, log *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	o := &Orchestrator{
		registry:    registry,
		configs:     configs,
		sink:        NopSink{},
		log:         log.With("component", "orchestrator"),
		callTimeout: defaultCallTimeout,
		breakers:    make(map[string]*Breaker),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MetadataOptions tunes a metadata fetch.
type MetadataOptions struct {
	Fields   []string // requested fields; empty means everything available
	Language string
}

// candidate pairs a provider's runtime config with its capabilities.
type candidate struct {
	cfg  Config
	caps Capabilities
}

// eligible loads the current provider configs and filters them down to
// the providers that can serve this request. Ineligible providers are
// skipped with a warning, never treated as errors.
func (o *Orchestrator) eligible(ctx context.Context, entity EntityType, ids ExternalIDs, assetTypes []AssetType, metadata bool) ([]candidate, error) {
	configs, err := o.configs.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load provider configs: %w", err)
	}

	var out []candidate
	for _, cfg := range configs {
		if !cfg.Enabled {
			o.log.Warn("skipping disabled provider", "provider", cfg.Name)
			continue
		}
		caps, ok := o.registry.Capabilities(cfg.Name)
		if !ok {
			o.log.Warn("skipping unregistered provider", "provider", cfg.Name)
			continue
		}
		if !caps.SupportsEntity(entity) {
			o.log.Warn("skipping provider for unsupported entity type",
				"provider", cfg.Name, "entity_type", entity)
			continue
		}
		if metadata && !caps.Category.HasMetadata() {
			continue
		}
		if len(assetTypes) > 0 {
			if !caps.Category.HasImages() {
				continue
			}
			any := false
			for _, at := range assetTypes {
				if caps.SupportsAsset(entity, at) {
					any = true
					break
				}
			}
			if !any {
				continue
			}
		}
		if !caps.SupportsLookup(ids) {
			o.log.Warn("skipping provider with no compatible external id",
				"provider", cfg.Name, "entity_type", entity, "accepted", caps.ExternalIDLookup)
			continue
		}
		out = append(out, candidate{cfg: cfg, caps: caps})
	}

	// Deterministic fallback order: configured priority, then name.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].cfg.Priority != out[j].cfg.Priority {
			return out[i].cfg.Priority < out[j].cfg.Priority
		}
		return out[i].cfg.Name < out[j].cfg.Name
	})
	return out, nil
}

type metadataAttempt struct {
	providerID string
	resp       *MetadataResponse
	err        error
	timedOut   bool
	elapsed    time.Duration
}

// FetchMetadata queries every eligible provider concurrently and merges
// the successful responses under the aggregate_all strategy. It fails
// only when every attempted provider failed; any partial success resolves.
func (o *Orchestrator) FetchMetadata(ctx context.Context, entity EntityType, ids ExternalIDs, opts MetadataOptions) (*MetadataResponse, error) {
	requestID := uuid.NewString()

	elig, err := o.eligible(ctx, entity, ids, nil, true)
	if err != nil {
		return nil, err
	}
	if len(elig) == 0 {
		return nil, &FetchError{EntityType: entity, Attempted: 0}
	}

	req := MetadataRequest{EntityType: entity, IDs: ids, Fields: opts.Fields, Language: opts.Language}
	results := make([]metadataAttempt, len(elig))

	// Fan out. Failures are collected per provider; one provider's
	// failure or timeout never cancels the siblings.
	g := new(errgroup.Group)
	for i, c := range elig {
		g.Go(func() error {
			results[i] = o.callMetadata(ctx, requestID, c, req)
			return nil
		})
	}
	_ = g.Wait()

	var (
		successes []metadataAttempt
		failures  []ProviderFailure
	)
	for i, r := range results {
		if r.err != nil {
			o.log.Warn("provider metadata fetch failed",
				"request_id", requestID,
				"provider", r.providerID,
				"entity_type", entity,
				"error", r.err,
				"timed_out", r.timedOut,
				"fallback_remaining", i < len(results)-1)
			failures = append(failures, ProviderFailure{ProviderID: r.providerID, Err: r.err, TimedOut: r.timedOut})
			continue
		}
		successes = append(successes, r)
	}

	if len(successes) == 0 {
		return nil, &FetchError{EntityType: entity, Attempted: len(elig), Failures: failures}
	}

	if len(failures) > 0 {
		failed := make([]string, len(failures))
		for i, f := range failures {
			failed[i] = f.ProviderID
		}
		o.log.Info("provider fallback chain activated",
			"request_id", requestID,
			"entity_type", entity,
			"failed", failed,
			"succeeded", len(successes),
			"total", len(elig))
		o.sink.Publish(ctx, Progress{
			RequestID:  requestID,
			Kind:       ProgressFallback,
			Operation:  "metadata",
			EntityType: entity,
			Failed:     failed,
			Succeeded:  len(successes),
			Total:      len(elig),
		})
	}

	if len(successes) == 1 {
		resp := *successes[0].resp
		resp.Completeness = clamp01(resp.Completeness)
		resp.Confidence = clamp01(resp.Confidence)
		return &resp, nil
	}

	responses := make([]*MetadataResponse, len(successes))
	for i, s := range successes {
		responses[i] = s.resp
	}
	return mergeResponses(responses, opts.Fields), nil
}

func (o *Orchestrator) callMetadata(ctx context.Context, requestID string, c candidate, req MetadataRequest) metadataAttempt {
	start := time.Now()
	o.sink.Publish(ctx, Progress{
		RequestID:  requestID,
		Kind:       ProgressStarted,
		Operation:  "metadata",
		ProviderID: c.cfg.Name,
		EntityType: req.EntityType,
	})

	resp, err := o.call(ctx, c, "metadata", func(ctx context.Context, a Adapter) (any, error) {
		r := req
		if r.Language == "" {
			r.Language = c.cfg.Language
		}
		return a.GetMetadata(ctx, r)
	})

	attempt := metadataAttempt{providerID: c.cfg.Name, elapsed: time.Since(start)}
	if err != nil {
		attempt.err = err
		attempt.timedOut = isTimeout(ctx, err)
		o.publishTerminal(ctx, requestID, "metadata", c.cfg.Name, req.EntityType, attempt.err, attempt.timedOut, 0, attempt.elapsed)
		return attempt
	}
	mr, ok := resp.(*MetadataResponse)
	if !ok || mr == nil {
		attempt.err = fmt.Errorf("provider %s returned no result", c.cfg.Name)
		o.publishTerminal(ctx, requestID, "metadata", c.cfg.Name, req.EntityType, attempt.err, false, 0, attempt.elapsed)
		return attempt
	}
	attempt.resp = mr
	o.publishTerminal(ctx, requestID, "metadata", c.cfg.Name, req.EntityType, nil, false, 0, attempt.elapsed)
	return attempt
}

type assetAttempt struct {
	providerID string
	candidates []AssetCandidate
	err        error
	timedOut   bool
	elapsed    time.Duration
}

// FetchAssetCandidates queries every eligible provider and concatenates
// all successful candidate lists in fallback order. Asset fetching is
// best-effort: it never returns an error, and an empty result is a
// normal outcome, not a fault. Deduplication is the asset selector's job.
func (o *Orchestrator) FetchAssetCandidates(ctx context.Context, entity EntityType, ids ExternalIDs, assetTypes []AssetType) []AssetCandidate {
	requestID := uuid.NewString()

	elig, err := o.eligible(ctx, entity, ids, assetTypes, false)
	if err != nil {
		o.log.Warn("asset fetch skipped", "entity_type", entity, "error", err)
		return nil
	}
	if len(elig) == 0 {
		return nil
	}

	req := AssetRequest{EntityType: entity, IDs: ids, AssetTypes: assetTypes}
	results := make([]assetAttempt, len(elig))

	g := new(errgroup.Group)
	for i, c := range elig {
		g.Go(func() error {
			results[i] = o.callAssets(ctx, requestID, c, req)
			return nil
		})
	}
	_ = g.Wait()

	var (
		pooled []AssetCandidate
		failed []string
	)
	for _, r := range results {
		if r.err != nil {
			o.log.Warn("provider asset fetch failed",
				"request_id", requestID,
				"provider", r.providerID,
				"entity_type", entity,
				"error", r.err,
				"timed_out", r.timedOut)
			failed = append(failed, r.providerID)
			continue
		}
		if len(r.candidates) == 0 {
			// An empty list still counts as a failed source in
			// diagnostics: the provider contributed nothing.
			failed = append(failed, r.providerID)
			continue
		}
		pooled = append(pooled, r.candidates...)
	}

	if len(failed) > 0 && len(pooled) > 0 {
		o.log.Info("asset provider fallback chain activated",
			"request_id", requestID,
			"entity_type", entity,
			"failed", failed,
			"candidates_found", len(pooled),
			"total", len(elig))
		o.sink.Publish(ctx, Progress{
			RequestID:  requestID,
			Kind:       ProgressFallback,
			Operation:  "assets",
			EntityType: entity,
			Failed:     failed,
			Candidates: len(pooled),
			Total:      len(elig),
		})
	}

	return pooled
}

func (o *Orchestrator) callAssets(ctx context.Context, requestID string, c candidate, req AssetRequest) assetAttempt {
	start := time.Now()
	o.sink.Publish(ctx, Progress{
		RequestID:  requestID,
		Kind:       ProgressStarted,
		Operation:  "assets",
		ProviderID: c.cfg.Name,
		EntityType: req.EntityType,
	})

	resp, err := o.call(ctx, c, "assets", func(ctx context.Context, a Adapter) (any, error) {
		r := req
		if r.Language == "" {
			r.Language = c.cfg.Language
		}
		return a.GetAssets(ctx, r)
	})

	attempt := assetAttempt{providerID: c.cfg.Name, elapsed: time.Since(start)}
	if err != nil {
		attempt.err = err
		attempt.timedOut = isTimeout(ctx, err)
		o.publishTerminal(ctx, requestID, "assets", c.cfg.Name, req.EntityType, attempt.err, attempt.timedOut, 0, attempt.elapsed)
		return attempt
	}
	if cands, ok := resp.([]AssetCandidate); ok {
		attempt.candidates = cands
	}
	o.publishTerminal(ctx, requestID, "assets", c.cfg.Name, req.EntityType, nil, false, len(attempt.candidates), attempt.elapsed)
	return attempt
}

// call instantiates the adapter and runs one operation through the
// provider's circuit breaker with a bounded timeout.
func (o *Orchestrator) call(ctx context.Context, c candidate, op string, fn func(context.Context, Adapter) (any, error)) (any, error) {
	adapter, err := o.registry.Create(c.cfg)
	if err != nil {
		return nil, err
	}

	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = o.callTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return o.breaker(c.cfg.Name, op).Execute(func() (any, error) {
		return fn(callCtx, adapter)
	})
}

// breaker returns the circuit breaker for a provider and operation
// category, creating it on first use. Breakers live for the process
// lifetime so failure state survives across requests.
func (o *Orchestrator) breaker(providerID, op string) *Breaker {
	key := providerID + "/" + op
	o.mu.Lock()
	defer o.mu.Unlock()
	if b, ok := o.breakers[key]; ok {
		return b
	}
	b := NewBreaker(key, o.breakerCfg, o.log)
	o.breakers[key] = b
	return b
}

// BreakerStats returns a snapshot of every breaker created so far,
// keyed by "provider/operation".
func (o *Orchestrator) BreakerStats() map[string]BreakerStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]BreakerStats, len(o.breakers))
	for key, b := range o.breakers {
		out[key] = b.Stats()
	}
	return out
}

func (o *Orchestrator) publishTerminal(ctx context.Context, requestID, op, providerID string, entity EntityType, err error, timedOut bool, candidates int, elapsed time.Duration) {
	p := Progress{
		RequestID:  requestID,
		Kind:       ProgressCompleted,
		Operation:  op,
		ProviderID: providerID,
		EntityType: entity,
		Candidates: candidates,
		Elapsed:    elapsed,
	}
	if err != nil {
		p.Kind = ProgressFailed
		p.Err = err.Error()
		if timedOut {
			p.Kind = ProgressTimedOut
		}
	}
	o.sink.Publish(ctx, p)
}

// isTimeout reports whether err was caused by the per-call deadline
// rather than caller cancellation.
func isTimeout(parent context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
