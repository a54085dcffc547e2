// Package ledger keeps the stripe ledger: normal and fulfilled stripes per
// person, with the invariant that no person has more fulfilled than normal
// stripes once an operation has completed. It also owns the administrative
// data around the ledger (people, rules, settings, activity log).
package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"schikko/apperr"
	"schikko/metrics"
	"schikko/models"
	"schikko/store"
)

// MaxBatch is the largest number of stripes a single call may add or remove.
const MaxBatch = 100

// ClampBatch limits n to [1, MaxBatch].
func ClampBatch(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxBatch {
		return MaxBatch
	}
	return n
}

type Ledger struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(s store.Store, logger *slog.Logger, m *metrics.Metrics) *Ledger {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Ledger{store: s, logger: logger, metrics: m, now: time.Now}
}

// RemoveResult reports what a removal deleted and the counts afterwards.
type RemoveResult struct {
	Removed  int64               `json:"removed"`
	Repaired int64               `json:"repaired"`
	Counts   models.StripeCounts `json:"counts"`
}

// AddEvents appends count stripes of kind. Each append commits on its own;
// on error the stripes already written stay and their number is returned.
func (l *Ledger) AddEvents(ctx context.Context, personID string, kind models.StripeKind, count int) (int, error) {
	if !kind.Valid() {
		return 0, apperr.InvalidArgument("unknown stripe kind")
	}
	if count < 1 || count > MaxBatch {
		return 0, apperr.InvalidArgument("count out of range")
	}
	if _, err := l.store.GetPerson(ctx, personID); err != nil {
		return 0, l.storeErr("person not found", err)
	}
	n, err := l.AddEventsWith(ctx, l.store, personID, kind, count)
	if err != nil {
		return n, l.storeErr("failed to append stripe", err)
	}
	l.logger.Info("stripes added", "component", "ledger", "person", personID, "kind", kind, "count", n)
	return n, nil
}

// AddEventsWith appends through s without validation. Timestamps are the
// dispatch time plus the event's index in milliseconds, so events of one
// batch are strictly ordered.
func (l *Ledger) AddEventsWith(ctx context.Context, s store.StripeStore, personID string, kind models.StripeKind, count int) (int, error) {
	base := l.now().UTC().Truncate(time.Millisecond)
	for i := 0; i < count; i++ {
		ev := &models.StripeEvent{
			ID:        uuid.NewString(),
			PersonID:  personID,
			Kind:      kind,
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.AppendStripe(ctx, ev); err != nil {
			l.metrics.Stripes(string(kind), "add", i)
			return i, err
		}
	}
	l.metrics.Stripes(string(kind), "add", count)
	return count, nil
}

// Fulfill appends up to count fulfilled stripes, capped at the headroom.
func (l *Ledger) Fulfill(ctx context.Context, personID string, count int) (int, error) {
	if count < 1 || count > MaxBatch {
		return 0, apperr.InvalidArgument("count out of range")
	}
	var n int
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.GetPerson(ctx, personID); err != nil {
			return err
		}
		counts, err := tx.CountStripes(ctx, personID)
		if err != nil {
			return err
		}
		n, err = l.AddEventsWith(ctx, tx, personID, models.StripeFulfilled, int(min(counts.Headroom(), int64(count))))
		return err
	})
	if err != nil {
		return 0, l.storeErr("person not found", err)
	}
	return n, nil
}

// RemoveLastNormal deletes the most recent normal stripe and then as many of
// the most recent fulfilled stripes as needed to restore fulfilled <= normal.
// Both steps run in one transaction.
func (l *Ledger) RemoveLastNormal(ctx context.Context, personID string) (RemoveResult, error) {
	var res RemoveResult
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.GetPerson(ctx, personID); err != nil {
			return err
		}
		removed, err := tx.DeleteLatestStripes(ctx, personID, models.StripeNormal, 1)
		if err != nil {
			return err
		}
		res.Removed = removed
		counts, err := tx.CountStripes(ctx, personID)
		if err != nil {
			return err
		}
		if excess := counts.Fulfilled - counts.Normal; excess > 0 {
			repaired, err := tx.DeleteLatestStripes(ctx, personID, models.StripeFulfilled, int(excess))
			if err != nil {
				return err
			}
			res.Repaired = repaired
			counts.Fulfilled -= repaired
		}
		res.Counts = counts
		return nil
	})
	if err != nil {
		return RemoveResult{}, l.storeErr("person not found", err)
	}
	l.metrics.Stripes(string(models.StripeNormal), "remove", int(res.Removed))
	l.metrics.Stripes(string(models.StripeFulfilled), "repair", int(res.Repaired))
	if res.Repaired > 0 {
		l.logger.Info("fulfilled stripes repaired", "component", "ledger", "person", personID, "count", res.Repaired)
	}
	return res, nil
}

// RemoveLastFulfilled deletes up to n of the most recent fulfilled stripes.
func (l *Ledger) RemoveLastFulfilled(ctx context.Context, personID string, n int) (RemoveResult, error) {
	if n < 1 || n > MaxBatch {
		return RemoveResult{}, apperr.InvalidArgument("count out of range")
	}
	if _, err := l.store.GetPerson(ctx, personID); err != nil {
		return RemoveResult{}, l.storeErr("person not found", err)
	}
	removed, err := l.store.DeleteLatestStripes(ctx, personID, models.StripeFulfilled, n)
	if err != nil {
		return RemoveResult{}, l.storeErr("failed to remove stripes", err)
	}
	l.metrics.Stripes(string(models.StripeFulfilled), "remove", int(removed))
	counts, err := l.Counts(ctx, personID)
	if err != nil {
		return RemoveResult{}, err
	}
	return RemoveResult{Removed: removed, Counts: counts}, nil
}

func (l *Ledger) Counts(ctx context.Context, personID string) (models.StripeCounts, error) {
	c, err := l.store.CountStripes(ctx, personID)
	if err != nil {
		return models.StripeCounts{}, l.storeErr("failed to count stripes", err)
	}
	return c, nil
}

// Headroom is the number of normal stripes not yet fulfilled. It is always
// computed from the stored events.
func (l *Ledger) Headroom(ctx context.Context, personID string) (int64, error) {
	c, err := l.Counts(ctx, personID)
	if err != nil {
		return 0, err
	}
	return c.Headroom(), nil
}

// Tallies lists every person with their current counts.
func (l *Ledger) Tallies(ctx context.Context) ([]models.PersonTally, error) {
	people, err := l.store.ListPeople(ctx)
	if err != nil {
		return nil, l.storeErr("failed to list people", err)
	}
	out := make([]models.PersonTally, 0, len(people))
	for _, p := range people {
		c, err := l.Counts(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.PersonTally{
			Person:    p,
			Normal:    c.Normal,
			Fulfilled: c.Fulfilled,
			Headroom:  c.Headroom(),
		})
	}
	return out, nil
}

// storeErr maps a store error to the public taxonomy. Errors that already
// carry a code pass through.
func (l *Ledger) storeErr(notFoundMsg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFoundMsg)
	case errors.Is(err, store.ErrAlreadyExists):
		return apperr.AlreadyExists("already exists")
	}
	l.logger.Error("store failure", "component", "ledger", "err", err)
	return apperr.Internal(err)
}
