package sqlstore

import (
	"context"
	"time"

	"schikko/models"
	"schikko/store"
)

func (s *Store) CreateDrinkRequest(ctx context.Context, r *models.DrinkRequest) error {
	row := *r
	row.CreatedAt = row.CreatedAt.UTC()
	if row.ProcessedAt != nil {
		at := row.ProcessedAt.UTC()
		row.ProcessedAt = &at
	}
	return s.q(ctx).Create(&row).Error
}

func (s *Store) GetDrinkRequest(ctx context.Context, id string) (*models.DrinkRequest, error) {
	var r models.DrinkRequest
	if err := s.q(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) ListDrinkRequests(ctx context.Context, pendingOnly bool) ([]models.DrinkRequest, error) {
	q := s.q(ctx).Order("created_at desc")
	if pendingOnly {
		q = q.Where("status = ?", models.DrinkPending)
	}
	var out []models.DrinkRequest
	err := q.Find(&out).Error
	return out, err
}

func (s *Store) ResolveDrinkRequest(ctx context.Context, id string, status models.DrinkRequestStatus, applied int, by string, at time.Time) error {
	res := s.q(ctx).Model(&models.DrinkRequest{}).
		Where("id = ? AND status = ?", id, models.DrinkPending).
		Updates(map[string]any{
			"status":       status,
			"applied":      applied,
			"processed_by": by,
			"processed_at": at.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := s.GetDrinkRequest(ctx, id); err != nil {
		return err
	}
	return store.ErrConflict
}

func (s *Store) DeleteAllDrinkRequests(ctx context.Context) (int64, error) {
	res := s.q(ctx).Where(all).Delete(&models.DrinkRequest{})
	return res.RowsAffected, res.Error
}
