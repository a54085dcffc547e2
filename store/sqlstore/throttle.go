package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"schikko/models"
)

func (s *Store) RecordAttempt(ctx context.Context, key string, at, windowStart time.Time, limit int) (bool, error) {
	recorded := false
	err := s.q(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bucket_key = ? AND at < ?", key, windowStart.UTC()).
			Delete(&models.ThrottleAttempt{}).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.ThrottleAttempt{}).Where("bucket_key = ?", key).Count(&n).Error; err != nil {
			return err
		}
		if n >= int64(limit) {
			return nil
		}
		if err := tx.Create(&models.ThrottleAttempt{BucketKey: key, At: at.UTC()}).Error; err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return recorded, nil
}

func (s *Store) DeleteIdleThrottles(ctx context.Context, before time.Time) (int64, error) {
	res := s.q(ctx).Delete(&models.ThrottleAttempt{}, "at < ?", before.UTC())
	return res.RowsAffected, res.Error
}
