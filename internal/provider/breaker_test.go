package provider

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errUpstream = errors.New("upstream exploded")

func failingCall() (any, error) { return nil, errUpstream }

func okCall() (any, error) { return "ok", nil }

func newTestBreaker(t *testing.T, threshold uint32, reset time.Duration) *Breaker {
	t.Helper()
	return NewBreaker("test/metadata", BreakerConfig{
		FailureThreshold: threshold,
		ResetTimeout:     reset,
	}, testLogger())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := newTestBreaker(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := b.Execute(failingCall)
		require.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, StateOpen, b.State())
	assert.True(t, b.IsOpen())

	// Open circuit rejects without invoking the function.
	invoked := false
	_, err := b.Execute(func() (any, error) {
		invoked = true
		return nil, nil
	})
	require.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, invoked)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := newTestBreaker(t, 3, time.Minute)

	_, _ = b.Execute(failingCall)
	_, _ = b.Execute(failingCall)
	_, err := b.Execute(okCall)
	require.NoError(t, err)

	// Two more failures should not open: the streak was broken.
	_, _ = b.Execute(failingCall)
	_, _ = b.Execute(failingCall)
	assert.Equal(t, StateClosed, b.State())

	_, _ = b.Execute(failingCall)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_HalfOpenClosesAfterTwoSuccesses(t *testing.T) {
	b := newTestBreaker(t, 1, 50*time.Millisecond)

	_, err := b.Execute(failingCall)
	require.ErrorIs(t, err, errUpstream)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(80 * time.Millisecond)

	// First trial call runs and succeeds; one success is not enough.
	result, err := b.Execute(okCall)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, StateHalfOpen, b.State())

	// Second consecutive success closes the circuit.
	_, err = b.Execute(okCall)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := newTestBreaker(t, 1, 50*time.Millisecond)

	_, _ = b.Execute(failingCall)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(80 * time.Millisecond)

	_, err := b.Execute(failingCall)
	require.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, b.State())

	// Reopened: rejected again before the timeout elapses.
	_, err = b.Execute(okCall)
	require.ErrorIs(t, err, ErrBreakerOpen)
}

func TestBreaker_RejectsUntilTimeoutElapses(t *testing.T) {
	b := newTestBreaker(t, 1, 200*time.Millisecond)

	_, _ = b.Execute(failingCall)
	require.True(t, b.IsOpen())

	invoked := false
	_, err := b.Execute(func() (any, error) {
		invoked = true
		return nil, nil
	})
	require.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, invoked)
}

func TestBreaker_Callbacks(t *testing.T) {
	var opened, closed int
	b := NewBreaker("cb/metadata", BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     50 * time.Millisecond,
		OnOpen:           func() { opened++ },
		OnClose:          func() { closed++ },
	}, testLogger())

	_, _ = b.Execute(failingCall)
	assert.Equal(t, 1, opened)

	time.Sleep(80 * time.Millisecond)
	_, _ = b.Execute(okCall)
	_, _ = b.Execute(okCall)
	assert.Equal(t, 1, closed)
}

func TestBreaker_Stats(t *testing.T) {
	b := newTestBreaker(t, 5, time.Minute)

	_, _ = b.Execute(failingCall)
	_, _ = b.Execute(failingCall)

	stats := b.Stats()
	assert.Equal(t, StateClosed, stats.State)
	assert.Equal(t, uint32(2), stats.ConsecutiveFailures)
	assert.False(t, stats.LastFailure.IsZero())
}

func TestBreaker_Reset(t *testing.T) {
	b := newTestBreaker(t, 1, time.Hour)

	_, _ = b.Execute(failingCall)
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Stats().LastFailure.IsZero())

	_, err := b.Execute(okCall)
	assert.NoError(t, err)
}
