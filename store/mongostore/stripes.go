package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schikko/models"
)

func (s *Store) AppendStripe(ctx context.Context, ev *models.StripeEvent) error {
	_, err := s.stripes.InsertOne(ctx, ev)
	return err
}

func (s *Store) CountStripes(ctx context.Context, personID string) (models.StripeCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"person_id": personID}}},
		{{Key: "$group", Value: bson.M{"_id": "$kind", "n": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.stripes.Aggregate(ctx, pipeline)
	if err != nil {
		return models.StripeCounts{}, err
	}
	var rows []struct {
		Kind models.StripeKind `bson:"_id"`
		N    int64             `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.StripeCounts{}, err
	}
	var c models.StripeCounts
	for _, r := range rows {
		switch r.Kind {
		case models.StripeNormal:
			c.Normal = r.N
		case models.StripeFulfilled:
			c.Fulfilled = r.N
		}
	}
	return c, nil
}

func (s *Store) DeleteLatestStripes(ctx context.Context, personID string, kind models.StripeKind, n int) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(n)).
		SetProjection(bson.M{"_id": 1})
	cursor, err := s.stripes.Find(ctx, bson.M{"person_id": personID, "kind": kind}, opts)
	if err != nil {
		return 0, err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	res, err := s.stripes.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteStripesByKind(ctx context.Context, kind models.StripeKind) (int64, error) {
	res, err := s.stripes.DeleteMany(ctx, bson.M{"kind": kind})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteAllStripes(ctx context.Context) (int64, error) {
	res, err := s.stripes.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
