// Package lifecycle runs the time-driven jobs: ending last cycle's authority,
// pruning logs and stale state, and ending authority once the configured
// event is over. Jobs read time through an injectable clock and can be run
// directly or through Scheduler.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"schikko/ledger"
	"schikko/metrics"
	"schikko/models"
	"schikko/schikko"
	"schikko/store"
	"schikko/utils"
)

const (
	JobAnnualReset  = "annual-reset"
	JobLogRetention = "log-retention"
	JobAutoUnset    = "auto-unset"
)

const (
	DefaultLogRetention = 30 * 24 * time.Hour
	// throttle buckets untouched for this long are dropped
	DefaultThrottleIdle = 24 * time.Hour
	jobTimeout          = time.Minute
)

type Config struct {
	Location     *time.Location
	LogRetention time.Duration
	ThrottleIdle time.Duration
}

type Jobs struct {
	store    store.Store
	ledger   *ledger.Ledger
	notifier utils.Notifier
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewJobs(s store.Store, n utils.Notifier, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Jobs {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LogRetention <= 0 {
		cfg.LogRetention = DefaultLogRetention
	}
	if cfg.ThrottleIdle <= 0 {
		cfg.ThrottleIdle = DefaultThrottleIdle
	}
	if n == nil {
		n = utils.NopNotifier{}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Jobs{
		store:    s,
		ledger:   ledger.New(s, logger, m),
		notifier: n,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Run executes the named job once.
func (j *Jobs) Run(ctx context.Context, name string) error {
	var err error
	switch name {
	case JobAnnualReset:
		_, err = j.AnnualReset(ctx)
	case JobLogRetention:
		err = j.LogRetention(ctx)
	case JobAutoUnset:
		_, err = j.AutoUnset(ctx)
	default:
		return fmt.Errorf("unknown job %q", name)
	}
	return err
}

// AnnualReset deletes the previous cycle's term. Ledger data is kept.
func (j *Jobs) AnnualReset(ctx context.Context) (bool, error) {
	year := j.now().In(j.cfg.Location).Year()
	previous := strconv.Itoa(year - 1)
	deleted, err := j.store.DeleteTerm(ctx, previous)
	j.metrics.Job(JobAnnualReset, err)
	if err != nil {
		return false, fmt.Errorf("delete term %s: %w", previous, err)
	}
	if deleted {
		j.logger.Info("previous schikko term ended", "component", "lifecycle", "job", JobAnnualReset, "cycle", previous)
	}
	return deleted, nil
}

// LogRetention prunes old activity logs, expired sessions and idle throttle
// buckets. Every step runs even if an earlier one failed.
func (j *Jobs) LogRetention(ctx context.Context) error {
	now := j.now().UTC()
	var errs []error

	logs, err := j.ledger.PruneLogs(ctx, now.Add(-j.cfg.LogRetention))
	if err != nil {
		errs = append(errs, fmt.Errorf("prune logs: %w", err))
	}
	sessions, err := j.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("prune sessions: %w", err))
	}
	buckets, err := j.store.DeleteIdleThrottles(ctx, now.Add(-j.cfg.ThrottleIdle))
	if err != nil {
		errs = append(errs, fmt.Errorf("prune throttles: %w", err))
	}

	err = errors.Join(errs...)
	j.metrics.Job(JobLogRetention, err)
	if logs+sessions+buckets > 0 {
		j.logger.Info("retention pass", "component", "lifecycle", "job", JobLogRetention,
			"logs", logs, "sessions", sessions, "throttles", buckets)
	}
	return err
}

// AutoUnset ends the current term once the configured event plus its grace
// delay is over, revokes all sessions and applies the cleanup policy, all in
// one transaction. Any verified term found past the deadline is ended, until
// the event date is cleared or moved.
func (j *Jobs) AutoUnset(ctx context.Context) (bool, error) {
	fired, policy, err := j.autoUnset(ctx)
	j.metrics.Job(JobAutoUnset, err)
	if err != nil || !fired {
		return false, err
	}
	cycle := schikko.CycleKey(j.now(), j.cfg.Location)
	j.logger.Info("schikko auto-unset", "component", "lifecycle", "job", JobAutoUnset,
		"cycle", cycle, "cleanup", policy)
	if err := j.notifier.Notify(ctx, "Schikko unset",
		fmt.Sprintf("The schikko term for %s has ended. Cleanup applied: %s.", cycle, policy)); err != nil {
		j.logger.Warn("notification failed", "component", "lifecycle", "err", err)
	}
	return true, nil
}

func (j *Jobs) autoUnset(ctx context.Context) (bool, models.CleanupPolicy, error) {
	now := j.now()
	policy, err := ledger.LoadPolicy(ctx, j.store)
	if err != nil {
		return false, "", fmt.Errorf("load settings: %w", err)
	}
	deadline, ok := policy.AutoUnsetDeadline(j.cfg.Location)
	if !ok || now.Before(deadline) {
		return false, "", nil
	}
	cycle := schikko.CycleKey(now, j.cfg.Location)

	fired := false
	err = j.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		term, err := tx.GetTerm(ctx, cycle)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !term.Verified {
			return nil
		}
		if _, err := tx.DeleteTerm(ctx, cycle); err != nil {
			return err
		}
		if _, err := tx.DeleteAllSessions(ctx); err != nil {
			return err
		}
		if err := ledger.ApplyCleanup(ctx, tx, policy.AutoUnsetCleanup); err != nil {
			return err
		}
		if policy.AutoUnsetCleanup != models.CleanupAll {
			if err := tx.AppendLog(ctx, &models.ActivityLog{
				ID:        uuid.NewString(),
				Action:    JobAutoUnset,
				Actor:     "system",
				Details:   "cleanup: " + string(policy.AutoUnsetCleanup),
				CreatedAt: now.UTC(),
			}); err != nil {
				return err
			}
		}
		fired = true
		return nil
	})
	if err != nil {
		return false, "", fmt.Errorf("auto-unset %s: %w", cycle, err)
	}
	return fired, policy.AutoUnsetCleanup, nil
}
