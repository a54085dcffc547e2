package drinks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schikko/apperr"
	"schikko/ledger"
	"schikko/models"
	"schikko/store/sqlstore"
	"schikko/utils"
)

type recordingNotifier struct {
	subjects []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, subject, _ string) error {
	n.subjects = append(n.subjects, subject)
	return n.err
}

type fixture struct {
	wf       *Workflow
	ledger   *ledger.Ledger
	notifier *recordingNotifier
	person   *models.Person
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s, err := sqlstore.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	l := ledger.New(s, nil, nil)
	n := &recordingNotifier{}
	p, err := l.AddPerson(context.Background(), "Piet", models.RoleMember)
	require.NoError(t, err)
	return fixture{wf: New(s, l, n, nil, nil), ledger: l, notifier: n, person: p}
}

func (f fixture) stripes(t *testing.T, normal, fulfilled int) {
	t.Helper()
	ctx := context.Background()
	if normal > 0 {
		_, err := f.ledger.AddEvents(ctx, f.person.ID, models.StripeNormal, normal)
		require.NoError(t, err)
	}
	if fulfilled > 0 {
		_, err := f.ledger.AddEvents(ctx, f.person.ID, models.StripeFulfilled, fulfilled)
		require.NoError(t, err)
	}
}

func TestApproveCapsAtHeadroom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stripes(t, 3, 1)

	req, err := f.wf.Request(ctx, f.person.ID, 5, "visitor")
	require.NoError(t, err)
	assert.Equal(t, models.DrinkPending, req.Status)
	assert.Zero(t, req.Applied)
	assert.Equal(t, []string{"New drink request"}, f.notifier.subjects)

	// nothing is applied before approval
	c, err := f.ledger.Counts(ctx, f.person.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.Fulfilled)

	got, err := f.wf.Approve(ctx, req.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.DrinkApproved, got.Status)
	assert.Equal(t, 2, got.Applied)

	c, err = f.ledger.Counts(ctx, f.person.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StripeCounts{Normal: 3, Fulfilled: 3}, c)
}

func TestApproveUsesHeadroomAtApprovalTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stripes(t, 4, 0)

	req, err := f.wf.Request(ctx, f.person.ID, 3, "visitor")
	require.NoError(t, err)

	// the ledger changes while the request waits
	f.stripes(t, 0, 4)

	got, err := f.wf.Approve(ctx, req.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Applied)
	assert.Equal(t, models.DrinkApproved, got.Status)
}

func TestTerminalRequestsStayTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stripes(t, 5, 0)

	approved, err := f.wf.Request(ctx, f.person.ID, 2, "visitor")
	require.NoError(t, err)
	_, err = f.wf.Approve(ctx, approved.ID, "admin")
	require.NoError(t, err)

	rejected, err := f.wf.Request(ctx, f.person.ID, 2, "visitor")
	require.NoError(t, err)
	got, err := f.wf.Reject(ctx, rejected.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.DrinkRejected, got.Status)

	for _, id := range []string{approved.ID, rejected.ID} {
		_, err = f.wf.Approve(ctx, id, "admin")
		assert.ErrorIs(t, err, apperr.ErrFailedPrecondition)
		_, err = f.wf.Reject(ctx, id, "admin")
		assert.ErrorIs(t, err, apperr.ErrFailedPrecondition)
	}

	list, err := f.wf.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	applied := map[string]int{}
	for _, r := range list {
		applied[r.ID] = r.Applied
		assert.Equal(t, "Piet", r.PersonName)
	}
	assert.Equal(t, 2, applied[approved.ID])
	assert.Equal(t, 0, applied[rejected.ID])

	c, err := f.ledger.Counts(ctx, f.person.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.Fulfilled)
}

func TestApproveMissingRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.wf.Approve(context.Background(), "nope", "admin")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.wf.Reject(context.Background(), "", "admin")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestRequestWithoutApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.SetApprovalRequired(ctx, false))

	req, err := f.wf.Request(ctx, f.person.ID, 2, "visitor")
	require.NoError(t, err)
	assert.Equal(t, models.DrinkApproved, req.Status)
	assert.Equal(t, 2, req.Applied)
	assert.Empty(t, f.notifier.subjects)

	// auto-approval is not capped at headroom
	c, err := f.ledger.Counts(ctx, f.person.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.Fulfilled)
	assert.Greater(t, c.Fulfilled, c.Normal)

	pending, err := f.wf.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.wf.Request(ctx, "ghost", 1, "visitor")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.wf.Request(ctx, f.person.ID, 1, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	req, err := f.wf.Request(ctx, f.person.ID, -4, "visitor")
	require.NoError(t, err)
	assert.Equal(t, 1, req.Amount)
	req, err = f.wf.Request(ctx, f.person.ID, 10_000, "visitor")
	require.NoError(t, err)
	assert.Equal(t, ledger.MaxBatch, req.Amount)
}

func TestNotifierFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")

	_, err := f.wf.Request(context.Background(), f.person.ID, 1, "visitor")
	require.NoError(t, err)
}

type stalledNotifier struct{ release chan struct{} }

func (n stalledNotifier) Notify(context.Context, string, string) error {
	<-n.release
	return nil
}

func TestRequestDoesNotWaitForMailServer(t *testing.T) {
	f := newFixture(t)
	slow := stalledNotifier{release: make(chan struct{})}
	q := utils.NewQueue(slow, 8, time.Second, nil)
	defer q.Close()
	defer close(slow.release)
	f.wf.notifier = q

	done := make(chan error, 1)
	go func() {
		_, err := f.wf.Request(context.Background(), f.person.ID, 1, "visitor")
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("request blocked on notification delivery")
	}
}
