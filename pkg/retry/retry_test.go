package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoStopsAfterFirstSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsMaxAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}, func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoRecoversOnLaterAttempt(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}, func(context.Context) error {
		calls++
		if calls < 3 {
			return boom
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoAbortsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, DefaultPolicy(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDoCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, Policy{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2}, func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNormalizedDefaults(t *testing.T) {
	p := Policy{}.normalized()
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.BaseDelay)
	assert.Equal(t, float64(1), p.Multiplier)
}

func TestDoStopReturnsImmediately(t *testing.T) {
	sentinel := errors.New("definitive answer")
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, Multiplier: 2}, func(context.Context) error {
		calls++
		return Stop(sentinel)
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestStopNil(t *testing.T) {
	require.NoError(t, Stop(nil))
}

func TestStopPreservesErrorChain(t *testing.T) {
	sentinel := errors.New("base")
	wrapped := Stop(fmt.Errorf("outer: %w", sentinel))
	require.ErrorIs(t, wrapped, sentinel)
}
