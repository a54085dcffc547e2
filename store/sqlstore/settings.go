package sqlstore

import (
	"context"

	"gorm.io/gorm/clause"

	"schikko/models"
)

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var row models.Setting
	if err := s.q(ctx).First(&row, "setting_key = ?", key).Error; err != nil {
		return "", notFound(err)
	}
	return row.Value, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	return s.q(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

func (s *Store) ListSettings(ctx context.Context) ([]models.Setting, error) {
	var rows []models.Setting
	err := s.q(ctx).Order("setting_key asc").Find(&rows).Error
	return rows, err
}
