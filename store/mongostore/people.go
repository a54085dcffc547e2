package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schikko/models"
	"schikko/store"
)

func (s *Store) CreatePerson(ctx context.Context, p *models.Person) error {
	if _, err := s.people.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	var p models.Person
	if err := s.people.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListPeople(ctx context.Context) ([]models.Person, error) {
	cursor, err := s.people.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var people []models.Person
	if err := cursor.All(ctx, &people); err != nil {
		return nil, err
	}
	return people, nil
}

func (s *Store) RenamePerson(ctx context.Context, id, name string) error {
	return s.setPersonField(ctx, id, "name", name)
}

func (s *Store) SetPersonRole(ctx context.Context, id string, role models.Role) error {
	return s.setPersonField(ctx, id, "role", role)
}

func (s *Store) setPersonField(ctx context.Context, id, field string, value any) error {
	res, err := s.people.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{field: value}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePerson(ctx context.Context, id string) error {
	return s.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		t := tx.(*Store)
		if _, err := t.stripes.DeleteMany(ctx, bson.M{"person_id": id}); err != nil {
			return err
		}
		if _, err := t.requests.DeleteMany(ctx, bson.M{"person_id": id}); err != nil {
			return err
		}
		res, err := t.people.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) DeleteAllPeople(ctx context.Context) (int64, error) {
	res, err := s.people.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
