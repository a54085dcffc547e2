package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"schikko/apperr"
	"schikko/models"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 500
)

// Record appends an activity log entry. A failed write is logged and does not
// fail the action it describes.
func (l *Ledger) Record(ctx context.Context, action, actor, details string) {
	entry := &models.ActivityLog{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Details:   details,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.AppendLog(ctx, entry); err != nil {
		l.logger.Error("failed to write activity log", "component", "ledger", "action", action, "err", err)
	}
}

// ListLogs returns the newest entries first.
func (l *Ledger) ListLogs(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	switch {
	case limit <= 0:
		limit = defaultLogLimit
	case limit > maxLogLimit:
		limit = maxLogLimit
	}
	logs, err := l.store.ListLogs(ctx, limit)
	if err != nil {
		return nil, l.storeErr("", err)
	}
	return logs, nil
}

func (l *Ledger) DeleteLog(ctx context.Context, id string) error {
	if id == "" {
		return apperr.InvalidArgument("id is required")
	}
	return l.storeErr("log entry not found", l.store.DeleteLog(ctx, id))
}

func (l *Ledger) ClearLogs(ctx context.Context) (int64, error) {
	n, err := l.store.DeleteAllLogs(ctx)
	if err != nil {
		return 0, l.storeErr("", err)
	}
	return n, nil
}

// PruneLogs deletes entries written before cutoff.
func (l *Ledger) PruneLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := l.store.DeleteLogsBefore(ctx, cutoff.UTC())
	if err != nil {
		return 0, l.storeErr("", err)
	}
	return n, nil
}
