package sqlstore

import (
	"context"
	"time"

	"schikko/models"
	"schikko/store"
)

func (s *Store) AppendLog(ctx context.Context, l *models.ActivityLog) error {
	row := *l
	row.CreatedAt = row.CreatedAt.UTC()
	return s.q(ctx).Create(&row).Error
}

func (s *Store) ListLogs(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	q := s.q(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, err
}

func (s *Store) DeleteLog(ctx context.Context, id string) error {
	res := s.q(ctx).Delete(&models.ActivityLog{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	res := s.q(ctx).Delete(&models.ActivityLog{}, "created_at < ?", before.UTC())
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteAllLogs(ctx context.Context) (int64, error) {
	res := s.q(ctx).Where(all).Delete(&models.ActivityLog{})
	return res.RowsAffected, res.Error
}
