package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"schikko/models"
	"schikko/store"
)

func (s *Store) CreatePerson(ctx context.Context, p *models.Person) error {
	row := *p
	row.CreatedAt = row.CreatedAt.UTC()
	if err := s.q(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	var p models.Person
	if err := s.q(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListPeople(ctx context.Context) ([]models.Person, error) {
	var people []models.Person
	err := s.q(ctx).Order("name asc").Find(&people).Error
	return people, err
}

func (s *Store) RenamePerson(ctx context.Context, id, name string) error {
	return s.updatePerson(ctx, id, "name", name)
}

func (s *Store) SetPersonRole(ctx context.Context, id string, role models.Role) error {
	return s.updatePerson(ctx, id, "role", role)
}

func (s *Store) updatePerson(ctx context.Context, id, column string, value any) error {
	res := s.q(ctx).Model(&models.Person{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePerson(ctx context.Context, id string) error {
	return s.q(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.StripeEvent{}, "person_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.DrinkRequest{}, "person_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Person{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) DeleteAllPeople(ctx context.Context) (int64, error) {
	res := s.q(ctx).Where(all).Delete(&models.Person{})
	return res.RowsAffected, res.Error
}
