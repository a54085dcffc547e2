// Package mongostore implements store.Store on MongoDB. Transactions need a
// replica set (a single-node replica set is enough).
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schikko/store"
)

const connectTimeout = 10 * time.Second

type Store struct {
	client *mongo.Client
	inTx   bool

	people    *mongo.Collection
	stripes   *mongo.Collection
	terms     *mongo.Collection
	sessions  *mongo.Collection
	throttles *mongo.Collection
	requests  *mongo.Collection
	rules     *mongo.Collection
	logs      *mongo.Collection
	settings  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// New connects to uri, verifies the connection and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(database)
	s := &Store{
		client:    client,
		people:    db.Collection("people"),
		stripes:   db.Collection("stripe_events"),
		terms:     db.Collection("schikko_terms"),
		sessions:  db.Collection("sessions"),
		throttles: db.Collection("throttle"),
		requests:  db.Collection("drink_requests"),
		rules:     db.Collection("rules"),
		logs:      db.Collection("activity_logs"),
		settings:  db.Collection("settings"),
	}
	if err := s.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.stripes, []mongo.IndexModel{{Keys: bson.D{{Key: "person_id", Value: 1}, {Key: "kind", Value: 1}, {Key: "timestamp", Value: -1}}}}},
		{s.sessions, []mongo.IndexModel{{Keys: bson.D{{Key: "expires_at", Value: 1}}}}},
		{s.throttles, []mongo.IndexModel{{Keys: bson.D{{Key: "last_at", Value: 1}}}}},
		{s.requests, []mongo.IndexModel{{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}}, {Keys: bson.D{{Key: "person_id", Value: 1}}}}},
		{s.logs, []mongo.IndexModel{{Keys: bson.D{{Key: "created_at", Value: -1}}}}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateMany(ctx, ix.models); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	tx := *s
	tx.inTx = true
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &tx)
	})
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// missingOrConflict distinguishes a missing document from one in the wrong
// state after a conditional update matched nothing.
func missingOrConflict(ctx context.Context, coll *mongo.Collection, id string) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
