package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-analyzer/internal/logging"
)

var errUpstream = errors.New("upstream unavailable")

func newTestBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	cfg := &Config{
		Name:             "test",
		MaxFailures:      maxFailures,
		Timeout:          timeout,
		HalfOpenMaxCalls: 2,
	}
	return NewCircuitBreaker(cfg, logging.NewLogger(logging.LevelError, logging.FormatJSON))
}

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := cb.Execute(ctx, func() error { return errUpstream })
		require.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerStaysClosedOnIntermittentFailures(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_ = cb.Execute(ctx, func() error { return errUpstream })
		_ = cb.Execute(ctx, func() error { return nil })
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := newTestBreaker(1, 10*time.Millisecond)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func() error { return errUpstream }))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// Two successes in half-open close the circuit again.
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := newTestBreaker(1, 10*time.Millisecond)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func() error { return errUpstream }))

	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(ctx, func() error { return errUpstream })
	require.ErrorIs(t, err, errUpstream)

	assert.Equal(t, StateOpen, cb.State())
}
