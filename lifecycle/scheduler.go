package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const DefaultAutoUnsetInterval = 10 * time.Minute

// Scheduler runs Jobs on gocron timers. A failing job is logged and runs
// again at its next tick.
type Scheduler struct {
	jobs   *Jobs
	cron   *gocron.Scheduler
	logger *slog.Logger
}

// NewScheduler registers the annual reset at the start of every year (and
// once at start-up), retention daily at 03:00 and auto-unset every interval.
func NewScheduler(jobs *Jobs, autoUnsetInterval time.Duration) (*Scheduler, error) {
	if autoUnsetInterval <= 0 {
		autoUnsetInterval = DefaultAutoUnsetInterval
	}
	s := &Scheduler{
		jobs:   jobs,
		cron:   gocron.NewScheduler(jobs.cfg.Location),
		logger: jobs.logger,
	}
	s.cron.SingletonModeAll()

	if _, err := s.cron.Cron("0 0 1 1 *").StartImmediately().Tag(JobAnnualReset).Do(s.run, JobAnnualReset); err != nil {
		return nil, err
	}
	if _, err := s.cron.Every(1).Day().At("03:00").Tag(JobLogRetention).Do(s.run, JobLogRetention); err != nil {
		return nil, err
	}
	if _, err := s.cron.Every(autoUnsetInterval).Tag(JobAutoUnset).Do(s.run, JobAutoUnset); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.StartAsync()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) run(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.jobs.Run(ctx, name); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("job timed out", "component", "lifecycle", "job", name)
			return
		}
		s.logger.Error("job failed", "component", "lifecycle", "job", name, "err", err)
	}
}
