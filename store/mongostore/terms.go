package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"schikko/models"
	"schikko/store"
)

func (s *Store) GetTerm(ctx context.Context, cycle string) (*models.SchikkoTerm, error) {
	var t models.SchikkoTerm
	if err := s.terms.FindOne(ctx, bson.M{"_id": cycle}).Decode(&t); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Store) CreateTerm(ctx context.Context, term *models.SchikkoTerm) error {
	if _, err := s.terms.InsertOne(ctx, term); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) MarkTermUsed(ctx context.Context, cycle string, step int64) error {
	filter := bson.M{"_id": cycle}
	set := bson.M{"verified": true}
	if step != 0 {
		filter["last_used_step"] = bson.M{"$lt": step}
		set["last_used_step"] = step
	}
	res, err := s.terms.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return missingOrConflict(ctx, s.terms, cycle)
}

func (s *Store) DeleteTerm(ctx context.Context, cycle string) (bool, error) {
	res, err := s.terms.DeleteOne(ctx, bson.M{"_id": cycle})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
