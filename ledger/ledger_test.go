package ledger

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schikko/apperr"
	"schikko/models"
	"schikko/store/sqlstore"
)

var t0 = time.Date(2025, time.May, 10, 21, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) (*Ledger, *sqlstore.Store) {
	t.Helper()
	s, err := sqlstore.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	l := New(s, nil, nil)
	l.now = func() time.Time { return t0 }
	return l, s
}

func addPerson(t *testing.T, l *Ledger, name string) *models.Person {
	t.Helper()
	p, err := l.AddPerson(context.Background(), name, models.RoleNone)
	require.NoError(t, err)
	return p
}

func TestClampBatch(t *testing.T) {
	assert.Equal(t, 1, ClampBatch(-3))
	assert.Equal(t, 1, ClampBatch(0))
	assert.Equal(t, 7, ClampBatch(7))
	assert.Equal(t, MaxBatch, ClampBatch(1000))
}

func TestRemoveLastNormalRepairsFulfilled(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	p := addPerson(t, l, "P")

	_, err := l.AddEvents(ctx, p.ID, models.StripeNormal, 5)
	require.NoError(t, err)
	_, err = l.AddEvents(ctx, p.ID, models.StripeFulfilled, 5)
	require.NoError(t, err)

	res, err := l.RemoveLastNormal(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Removed)
	assert.EqualValues(t, 1, res.Repaired)
	assert.Equal(t, models.StripeCounts{Normal: 4, Fulfilled: 4}, res.Counts)

	c, err := l.Counts(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StripeCounts{Normal: 4, Fulfilled: 4}, c)
}

func TestRemoveLastNormalWithoutExcess(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	p := addPerson(t, l, "P")

	_, err := l.AddEvents(ctx, p.ID, models.StripeNormal, 3)
	require.NoError(t, err)
	_, err = l.AddEvents(ctx, p.ID, models.StripeFulfilled, 1)
	require.NoError(t, err)

	res, err := l.RemoveLastNormal(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Repaired)
	assert.Equal(t, models.StripeCounts{Normal: 2, Fulfilled: 1}, res.Counts)

	h, err := l.Headroom(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, h)
}

func TestRemoveLastNormalOnEmptyLedger(t *testing.T) {
	l, _ := newTestLedger(t)
	p := addPerson(t, l, "P")

	res, err := l.RemoveLastNormal(context.Background(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Removed)

	_, err = l.RemoveLastNormal(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveLastFulfilledNeverTouchesNormal(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	p := addPerson(t, l, "P")

	_, err := l.AddEvents(ctx, p.ID, models.StripeNormal, 2)
	require.NoError(t, err)
	_, err = l.AddEvents(ctx, p.ID, models.StripeFulfilled, 2)
	require.NoError(t, err)

	res, err := l.RemoveLastFulfilled(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Removed)
	assert.Equal(t, models.StripeCounts{Normal: 2}, res.Counts)
}

func TestAddEventsValidation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	p := addPerson(t, l, "P")

	_, err := l.AddEvents(ctx, p.ID, "bogus", 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = l.AddEvents(ctx, p.ID, models.StripeNormal, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = l.AddEvents(ctx, "nobody", models.StripeNormal, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// Random sequences of ledger operations never leave more fulfilled than
// normal stripes behind.
func TestFulfilledNeverExceedsNormal(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	p := addPerson(t, l, "P")
	rng := rand.New(rand.NewSource(42))

	clock := t0
	l.now = func() time.Time { return clock }

	for i := 0; i < 150; i++ {
		clock = clock.Add(time.Second)
		switch rng.Intn(4) {
		case 0:
			_, err := l.AddEvents(ctx, p.ID, models.StripeNormal, 1+rng.Intn(3))
			require.NoError(t, err)
		case 1:
			h, err := l.Headroom(ctx, p.ID)
			require.NoError(t, err)
			if h > 0 {
				_, err = l.AddEvents(ctx, p.ID, models.StripeFulfilled, 1+rng.Intn(int(h)))
				require.NoError(t, err)
			}
		case 2:
			_, err := l.RemoveLastNormal(ctx, p.ID)
			require.NoError(t, err)
		case 3:
			_, err := l.RemoveLastFulfilled(ctx, p.ID, 1+rng.Intn(2))
			require.NoError(t, err)
		}
		c, err := l.Counts(ctx, p.ID)
		require.NoError(t, err)
		require.LessOrEqual(t, c.Fulfilled, c.Normal, "step %d", i)
	}
}

func TestTallies(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := addPerson(t, l, "Anna")
	addPerson(t, l, "Bram")

	_, err := l.AddEvents(ctx, a.ID, models.StripeNormal, 3)
	require.NoError(t, err)
	_, err = l.AddEvents(ctx, a.ID, models.StripeFulfilled, 1)
	require.NoError(t, err)

	tallies, err := l.Tallies(ctx)
	require.NoError(t, err)
	require.Len(t, tallies, 2)
	assert.Equal(t, "Anna", tallies[0].Name)
	assert.EqualValues(t, 2, tallies[0].Headroom)
	assert.EqualValues(t, 0, tallies[1].Normal)
}

func TestPeopleAdministration(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.AddPerson(ctx, "  ", models.RoleNone)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = l.AddPerson(ctx, "X", "king")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	p := addPerson(t, l, "Old")
	require.NoError(t, l.RenamePerson(ctx, p.ID, "New"))
	require.NoError(t, l.SetRole(ctx, p.ID, models.RoleNestor))
	assert.ErrorIs(t, l.RenamePerson(ctx, "missing", "x"), apperr.ErrNotFound)

	_, err = l.AddEvents(ctx, p.ID, models.StripeNormal, 2)
	require.NoError(t, err)
	require.NoError(t, l.DeletePerson(ctx, p.ID))
	assert.ErrorIs(t, l.DeletePerson(ctx, p.ID), apperr.ErrNotFound)

	c, err := l.Counts(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, c.Normal)
}

func TestRules(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	r1, err := l.AddRule(ctx, "first")
	require.NoError(t, err)
	r2, err := l.AddRule(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, r1.Position+1, r2.Position)

	require.NoError(t, l.UpdateRule(ctx, r1.ID, "first, amended", 5))
	rules, err := l.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "second", rules[0].Text)
	assert.Equal(t, "first, amended", rules[1].Text)

	require.NoError(t, l.DeleteRule(ctx, r2.ID))
	assert.ErrorIs(t, l.DeleteRule(ctx, r2.ID), apperr.ErrNotFound)
	_, err = l.AddRule(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestPolicySettings(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	p, err := l.Policy(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
	_, ok := p.AutoUnsetDeadline(time.UTC)
	assert.False(t, ok)

	require.NoError(t, l.SetEventDate(ctx, "2025-06-01", 3))
	require.NoError(t, l.SetAutoUnset(ctx, 6, models.CleanupFulfilled))
	require.NoError(t, l.SetApprovalRequired(ctx, false))
	require.NoError(t, l.SetCalendarURL(ctx, "https://example.org/cal.ics"))

	assert.ErrorIs(t, l.SetEventDate(ctx, "01-06-2025", 3), apperr.ErrInvalidArgument)
	assert.ErrorIs(t, l.SetAutoUnset(ctx, 1, "everything"), apperr.ErrInvalidArgument)
	assert.ErrorIs(t, l.SetCalendarURL(ctx, "javascript:alert(1)"), apperr.ErrInvalidArgument)

	p, err = l.Policy(ctx)
	require.NoError(t, err)
	assert.False(t, p.RequireApproval)
	assert.Equal(t, models.CleanupFulfilled, p.AutoUnsetCleanup)
	deadline, ok := p.AutoUnsetDeadline(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.June, 4, 6, 0, 0, 0, time.UTC), deadline)
}

func TestActivityLog(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	clock := t0
	l.now = func() time.Time { return clock }
	l.Record(ctx, "addPerson", "uid-1", "Anna")
	clock = clock.Add(40 * 24 * time.Hour)
	l.Record(ctx, "addRule", "uid-1", "no phones")

	logs, err := l.ListLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "addRule", logs[0].Action)

	n, err := l.PruneLogs(ctx, clock.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, l.DeleteLog(ctx, logs[0].ID))
	assert.ErrorIs(t, l.DeleteLog(ctx, logs[0].ID), apperr.ErrNotFound)
}

func TestFulfillCapsAtHeadroom(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	p := addPerson(t, l, "P")

	_, err := l.AddEvents(ctx, p.ID, models.StripeNormal, 2)
	require.NoError(t, err)

	n, err := l.Fulfill(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = l.Fulfill(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = l.Fulfill(ctx, "nobody", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
