package utils

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultQueueSize   = 64
	DefaultSendTimeout = 30 * time.Second
)

var (
	ErrQueueFull   = errors.New("notification queue full")
	ErrQueueClosed = errors.New("notification queue closed")
)

type notice struct {
	subject string
	body    string
}

// Queue hands notices to a single background sender so callers never wait on
// the mail server. Notices that do not fit in the buffer are dropped.
type Queue struct {
	next    Notifier
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan notice
	wg     sync.WaitGroup
}

func NewQueue(next Notifier, size int, timeout time.Duration, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	q := &Queue{next: next, timeout: timeout, logger: logger, ch: make(chan notice, size)}
	q.wg.Add(1)
	go q.run()
	return q
}

// Notify enqueues the notice. The caller's context only guards the enqueue;
// delivery runs under the queue's own timeout.
func (q *Queue) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- notice{subject: subject, body: body}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting notices and waits for the queued ones to be sent.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for n := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.next.Notify(ctx, n.subject, n.body); err != nil {
			q.logger.Warn("notification failed", "component", "notify", "subject", n.subject, "err", err)
		}
		cancel()
	}
}
