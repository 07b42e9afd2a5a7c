package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for orchestration.
var (
	// ErrBreakerOpen is returned when a call is rejected without reaching
	// the provider because its circuit breaker is open. Distinguishable
	// from vendor errors so logs can tell "provider said no" apart from
	// "we didn't even try".
	ErrBreakerOpen = errors.New("circuit breaker is open")

	// ErrNotRegistered is returned when a configured provider name has no
	// registered factory.
	ErrNotRegistered = errors.New("provider not registered")

	// ErrNotSupported is returned by adapters for operations outside their
	// capability set, e.g. metadata from an images-only provider.
	ErrNotSupported = errors.New("operation not supported by provider")
)

// ProviderFailure records one provider's failed attempt within a request.
type ProviderFailure struct {
	ProviderID string
	Err        error
	TimedOut   bool
}

// FetchError is the aggregate failure raised when every eligible metadata
// provider failed (or none were eligible). It is the only error the
// metadata path surfaces to callers.
type FetchError struct {
	EntityType EntityType
	Attempted  int
	Failures   []ProviderFailure
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("all %d metadata providers failed for %s", e.Attempted, e.EntityType)
}

// FailedProviders returns the ids of the providers that failed, in
// priority order.
func (e *FetchError) FailedProviders() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ProviderID)
	}
	return ids
}
