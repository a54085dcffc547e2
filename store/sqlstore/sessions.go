package sqlstore

import (
	"context"
	"time"

	"schikko/models"
)

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	row := *sess
	row.CreatedAt = row.CreatedAt.UTC()
	row.ExpiresAt = row.ExpiresAt.UTC()
	return s.q(ctx).Create(&row).Error
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := s.q(ctx).First(&sess, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := s.q(ctx).Delete(&models.Session{}, "expires_at <= ?", now.UTC())
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteAllSessions(ctx context.Context) (int64, error) {
	res := s.q(ctx).Where(all).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
