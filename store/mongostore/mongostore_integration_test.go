package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"schikko/models"
	"schikko/store"
)

// These tests need a MongoDB replica set, e.g.
// MONGO_TEST_URI="mongodb://localhost:27017/?replicaSet=rs0".
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	dbName := "schikko_test_" + uuid.NewString()[:8]
	s, err := New(ctx, uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Database(dbName).Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestMongoRecordAttemptRefusesWhenFull(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 2; i++ {
		ok, err := s.RecordAttempt(ctx, "login", now, now.Add(-time.Minute), 2)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := s.RecordAttempt(ctx, "login", now, now.Add(-time.Minute), 2)
	require.NoError(t, err)
	assert.False(t, ok)

	var bucket models.ThrottleBucket
	require.NoError(t, s.throttles.FindOne(ctx, bson.M{"_id": "login"}).Decode(&bucket))
	assert.Len(t, bucket.Attempts, 2)

	later := now.Add(2 * time.Minute)
	ok, err = s.RecordAttempt(ctx, "login", later, later.Add(-time.Minute), 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMongoTermLifecycle(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	term := &models.SchikkoTerm{Cycle: "2025", Secret: "S", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateTerm(ctx, term))
	assert.ErrorIs(t, s.CreateTerm(ctx, term), store.ErrAlreadyExists)
	require.NoError(t, s.MarkTermUsed(ctx, "2025", 5))
	assert.ErrorIs(t, s.MarkTermUsed(ctx, "2025", 5), store.ErrConflict)

	deleted, err := s.DeleteTerm(ctx, "2025")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = s.GetTerm(ctx, "2025")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMongoDeleteLatestStripesInTx(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendStripe(ctx, &models.StripeEvent{
			ID: uuid.NewString(), PersonID: "p1", Kind: models.StripeNormal,
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		_, err := tx.DeleteLatestStripes(ctx, "p1", models.StripeNormal, 1)
		return err
	})
	require.NoError(t, err)

	c, err := s.CountStripes(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.Normal)
}
