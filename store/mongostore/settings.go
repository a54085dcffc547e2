package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schikko/models"
)

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var row models.Setting
	if err := s.settings.FindOne(ctx, bson.M{"_id": key}).Decode(&row); err != nil {
		return "", notFound(err)
	}
	return row.Value, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.settings.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) ListSettings(ctx context.Context) ([]models.Setting, error) {
	cursor, err := s.settings.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var rows []models.Setting
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
