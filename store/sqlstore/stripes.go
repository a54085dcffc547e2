package sqlstore

import (
	"context"

	"schikko/models"
)

func (s *Store) AppendStripe(ctx context.Context, ev *models.StripeEvent) error {
	row := *ev
	row.Timestamp = row.Timestamp.UTC()
	return s.q(ctx).Create(&row).Error
}

func (s *Store) CountStripes(ctx context.Context, personID string) (models.StripeCounts, error) {
	var rows []struct {
		Kind models.StripeKind
		N    int64
	}
	err := s.q(ctx).Model(&models.StripeEvent{}).
		Select("kind, count(*) AS n").
		Where("person_id = ?", personID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return models.StripeCounts{}, err
	}
	var c models.StripeCounts
	for _, r := range rows {
		switch r.Kind {
		case models.StripeNormal:
			c.Normal = r.N
		case models.StripeFulfilled:
			c.Fulfilled = r.N
		}
	}
	return c, nil
}

func (s *Store) DeleteLatestStripes(ctx context.Context, personID string, kind models.StripeKind, n int) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	var ids []string
	err := s.q(ctx).Model(&models.StripeEvent{}).
		Where("person_id = ? AND kind = ?", personID, kind).
		Order("timestamp desc, id desc").
		Limit(n).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	res := s.q(ctx).Delete(&models.StripeEvent{}, "id IN ?", ids)
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteStripesByKind(ctx context.Context, kind models.StripeKind) (int64, error) {
	res := s.q(ctx).Delete(&models.StripeEvent{}, "kind = ?", kind)
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteAllStripes(ctx context.Context) (int64, error) {
	res := s.q(ctx).Where(all).Delete(&models.StripeEvent{})
	return res.RowsAffected, res.Error
}
