// Package throttle is a sliding-window attempt counter persisted in the store,
// so limits survive restarts and are shared between instances.
package throttle

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"schikko/apperr"
	"schikko/metrics"
	"schikko/store"
)

// Keys used by the HTTP surface.
const (
	KeyLogin = "login"
)

func DrinkKey(identity string) string    { return "drink:" + identity }
func ActionKey(identity string) string   { return "action:" + identity }
func ElectionKey(identity string) string { return "election:" + identity }

type Throttle struct {
	store   store.ThrottleStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(s store.ThrottleStore, logger *slog.Logger, m *metrics.Metrics) *Throttle {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Throttle{store: s, logger: logger, metrics: m, now: time.Now}
}

// Allow records an attempt for key unless limit attempts already fall within
// the trailing window. A refused attempt is not recorded. Storage failures
// refuse the attempt.
func (t *Throttle) Allow(ctx context.Context, key string, limit int, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		t.metrics.ThrottleReject(scope(key))
		return apperr.ResourceExhausted("too many attempts")
	}
	now := t.now().UTC()
	ok, err := t.store.RecordAttempt(ctx, key, now, now.Add(-window), limit)
	if err != nil {
		t.logger.Error("throttle check failed", "component", "throttle", "key", key, "err", err)
		return apperr.Internal(err)
	}
	if !ok {
		t.metrics.ThrottleReject(scope(key))
		return apperr.ResourceExhausted("too many attempts")
	}
	return nil
}

func scope(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
