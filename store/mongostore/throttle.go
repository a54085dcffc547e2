package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schikko/models"
)

// RecordAttempt keeps one document per key. The push only matches while the
// attempts array has fewer than limit entries; when the bucket is full the
// upsert collides with the existing _id and the attempt is refused.
func (s *Store) RecordAttempt(ctx context.Context, key string, at, windowStart time.Time, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	var bucket models.ThrottleBucket
	err := s.throttles.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$pull": bson.M{"attempts": bson.M{"$lt": windowStart}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&bucket)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
	case err != nil:
		return false, err
	case len(bucket.Attempts) >= limit:
		return false, nil
	}
	_, err = s.throttles.UpdateOne(ctx,
		bson.M{"_id": key, fmt.Sprintf("attempts.%d", limit-1): bson.M{"$exists": false}},
		bson.M{"$push": bson.M{"attempts": at}, "$set": bson.M{"last_at": at}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteIdleThrottles(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.throttles.DeleteMany(ctx, bson.M{"last_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
