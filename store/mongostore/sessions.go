package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"schikko/models"
)

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.sessions.InsertOne(ctx, sess)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.sessions.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteAllSessions(ctx context.Context) (int64, error) {
	res, err := s.sessions.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
