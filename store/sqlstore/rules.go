package sqlstore

import (
	"context"
	"time"

	"schikko/models"
	"schikko/store"
)

func (s *Store) CreateRule(ctx context.Context, r *models.Rule) error {
	row := *r
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	return s.q(ctx).Create(&row).Error
}

func (s *Store) UpdateRule(ctx context.Context, id, text string, position int, at time.Time) error {
	res := s.q(ctx).Model(&models.Rule{}).Where("id = ?", id).
		Updates(map[string]any{"text": text, "position": position, "updated_at": at.UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	res := s.q(ctx).Delete(&models.Rule{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context) ([]models.Rule, error) {
	var rules []models.Rule
	err := s.q(ctx).Order("position asc, created_at asc").Find(&rules).Error
	return rules, err
}

func (s *Store) DeleteAllRules(ctx context.Context) (int64, error) {
	res := s.q(ctx).Where(all).Delete(&models.Rule{})
	return res.RowsAffected, res.Error
}
