package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schikko/models"
	"schikko/store"
)

func (s *Store) AppendLog(ctx context.Context, l *models.ActivityLog) error {
	_, err := s.logs.InsertOne(ctx, l)
	return err
}

func (s *Store) ListLogs(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.logs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var logs []models.ActivityLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) DeleteLog(ctx context.Context, id string) error {
	res, err := s.logs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.logs.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteAllLogs(ctx context.Context) (int64, error) {
	res, err := s.logs.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
