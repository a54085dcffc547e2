package sqlstore

import (
	"context"

	"schikko/models"
	"schikko/store"
)

func (s *Store) GetTerm(ctx context.Context, cycle string) (*models.SchikkoTerm, error) {
	var t models.SchikkoTerm
	if err := s.q(ctx).First(&t, "cycle = ?", cycle).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Store) CreateTerm(ctx context.Context, term *models.SchikkoTerm) error {
	t := *term
	t.CreatedAt = t.CreatedAt.UTC()
	if err := s.q(ctx).Create(&t).Error; err != nil {
		if isDuplicate(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) MarkTermUsed(ctx context.Context, cycle string, step int64) error {
	q := s.q(ctx).Model(&models.SchikkoTerm{}).Where("cycle = ?", cycle)
	updates := map[string]any{"verified": true}
	if step != 0 {
		q = q.Where("last_used_step < ?", step)
		updates["last_used_step"] = step
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := s.GetTerm(ctx, cycle); err != nil {
		return err
	}
	return store.ErrConflict
}

func (s *Store) DeleteTerm(ctx context.Context, cycle string) (bool, error) {
	res := s.q(ctx).Delete(&models.SchikkoTerm{}, "cycle = ?", cycle)
	return res.RowsAffected > 0, res.Error
}
