package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schikko/models"
)

func (s *Store) CreateDrinkRequest(ctx context.Context, r *models.DrinkRequest) error {
	_, err := s.requests.InsertOne(ctx, r)
	return err
}

func (s *Store) GetDrinkRequest(ctx context.Context, id string) (*models.DrinkRequest, error) {
	var r models.DrinkRequest
	if err := s.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) ListDrinkRequests(ctx context.Context, pendingOnly bool) ([]models.DrinkRequest, error) {
	filter := bson.M{}
	if pendingOnly {
		filter["status"] = models.DrinkPending
	}
	cursor, err := s.requests.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []models.DrinkRequest
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ResolveDrinkRequest(ctx context.Context, id string, status models.DrinkRequestStatus, applied int, by string, at time.Time) error {
	res, err := s.requests.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.DrinkPending},
		bson.M{"$set": bson.M{
			"status":       status,
			"applied":      applied,
			"processed_by": by,
			"processed_at": at,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return missingOrConflict(ctx, s.requests, id)
}

func (s *Store) DeleteAllDrinkRequests(ctx context.Context) (int64, error) {
	res, err := s.requests.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
