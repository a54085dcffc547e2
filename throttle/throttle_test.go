package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schikko/apperr"
	"schikko/store/sqlstore"
)

func newTestThrottle(t *testing.T) (*Throttle, *time.Time) {
	t.Helper()
	s, err := sqlstore.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	now := time.Date(2025, time.June, 1, 20, 0, 0, 0, time.UTC)
	th := New(s, nil, nil)
	th.now = func() time.Time { return now }
	return th, &now
}

func TestAllowRejectsAfterLimitWithinWindow(t *testing.T) {
	th, now := newTestThrottle(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, th.Allow(ctx, KeyLogin, 20, 10*time.Minute), "attempt %d", i+1)
		*now = now.Add(10 * time.Second)
	}
	err := th.Allow(ctx, KeyLogin, 20, 10*time.Minute)
	assert.ErrorIs(t, err, apperr.ErrResourceExhausted)
}

func TestAllowSlidesWindow(t *testing.T) {
	th, now := newTestThrottle(t)
	ctx := context.Background()
	start := *now

	require.NoError(t, th.Allow(ctx, "k", 2, time.Minute))
	*now = start.Add(40 * time.Second)
	require.NoError(t, th.Allow(ctx, "k", 2, time.Minute))
	*now = start.Add(50 * time.Second)
	assert.ErrorIs(t, th.Allow(ctx, "k", 2, time.Minute), apperr.ErrResourceExhausted)

	// the first attempt has left the window, the second has not
	*now = start.Add(61 * time.Second)
	require.NoError(t, th.Allow(ctx, "k", 2, time.Minute))
	assert.ErrorIs(t, th.Allow(ctx, "k", 2, time.Minute), apperr.ErrResourceExhausted)
}

func TestAllowNeverExceedsLimitInAnyWindow(t *testing.T) {
	th, now := newTestThrottle(t)
	ctx := context.Background()
	const limit = 3
	window := 30 * time.Second

	var accepted []time.Time
	for i := 0; i < 200; i++ {
		if th.Allow(ctx, "k", limit, window) == nil {
			accepted = append(accepted, *now)
		}
		*now = now.Add(time.Duration(1+i%7) * time.Second)
	}
	require.NotEmpty(t, accepted)
	for i := range accepted {
		n := 0
		for j := i; j < len(accepted) && accepted[j].Sub(accepted[i]) < window; j++ {
			n++
		}
		assert.LessOrEqual(t, n, limit)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	th, _ := newTestThrottle(t)
	ctx := context.Background()

	require.NoError(t, th.Allow(ctx, DrinkKey("a"), 1, time.Minute))
	assert.ErrorIs(t, th.Allow(ctx, DrinkKey("a"), 1, time.Minute), apperr.ErrResourceExhausted)
	require.NoError(t, th.Allow(ctx, DrinkKey("b"), 1, time.Minute))
	require.NoError(t, th.Allow(ctx, ActionKey("a"), 1, time.Minute))
}

type failingStore struct{}

func (failingStore) RecordAttempt(context.Context, string, time.Time, time.Time, int) (bool, error) {
	return false, errors.New("disk on fire")
}

func (failingStore) DeleteIdleThrottles(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestAllowFailsClosed(t *testing.T) {
	th := New(failingStore{}, nil, nil)
	err := th.Allow(context.Background(), KeyLogin, 20, time.Minute)
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestScope(t *testing.T) {
	assert.Equal(t, "login", scope(KeyLogin))
	assert.Equal(t, "drink", scope(DrinkKey("u1")))
	assert.Equal(t, "election", scope(ElectionKey("u1")))
}
