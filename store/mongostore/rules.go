package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schikko/models"
	"schikko/store"
)

func (s *Store) CreateRule(ctx context.Context, r *models.Rule) error {
	_, err := s.rules.InsertOne(ctx, r)
	return err
}

func (s *Store) UpdateRule(ctx context.Context, id, text string, position int, at time.Time) error {
	res, err := s.rules.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"text":       text,
		"position":   position,
		"updated_at": at,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	res, err := s.rules.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context) ([]models.Rule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := s.rules.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var rules []models.Rule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Store) DeleteAllRules(ctx context.Context) (int64, error) {
	res, err := s.rules.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
