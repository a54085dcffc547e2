package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// gatedNotifier blocks every delivery until release is closed.
type gatedNotifier struct {
	release chan struct{}

	mu       sync.Mutex
	subjects []string
	deadline bool
}

func (n *gatedNotifier) Notify(ctx context.Context, subject, _ string) error {
	<-n.release
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	_, n.deadline = ctx.Deadline()
	return nil
}

func TestQueueDoesNotWaitForDelivery(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	next := &gatedNotifier{release: make(chan struct{})}
	q := NewQueue(next, 4, time.Second, nil)

	done := make(chan error, 1)
	go func() { done <- q.Notify(context.Background(), "first", "") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a stalled sender")
	}
	require.NoError(t, q.Notify(context.Background(), "second", ""))

	close(next.release)
	q.Close()

	assert.Equal(t, []string{"first", "second"}, next.subjects)
	assert.True(t, next.deadline)
	assert.ErrorIs(t, q.Notify(context.Background(), "late", ""), ErrQueueClosed)
}

func TestQueueDropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	next := &gatedNotifier{release: make(chan struct{})}
	q := NewQueue(next, 1, time.Second, nil)
	defer func() {
		close(next.release)
		q.Close()
	}()

	var full int
	for i := 0; i < 4; i++ {
		if err := q.Notify(context.Background(), "n", ""); errors.Is(err, ErrQueueFull) {
			full++
		}
	}
	// one in flight at most, one buffered
	assert.GreaterOrEqual(t, full, 2)
}
