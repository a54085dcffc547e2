// Package drinks implements drink requests: a visitor asks for fulfilled
// stripes on a person and an administrator approves or rejects the request.
// Approval fulfills at most the person's headroom at that moment.
package drinks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"schikko/apperr"
	"schikko/ledger"
	"schikko/metrics"
	"schikko/models"
	"schikko/store"
	"schikko/utils"
)

type Workflow struct {
	store    store.Store
	ledger   *ledger.Ledger
	notifier utils.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(s store.Store, l *ledger.Ledger, n utils.Notifier, logger *slog.Logger, m *metrics.Metrics) *Workflow {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if n == nil {
		n = utils.NopNotifier{}
	}
	return &Workflow{store: s, ledger: l, notifier: n, logger: logger, metrics: m, now: time.Now}
}

// Request files a request for amount fulfilled stripes, clamped to a valid
// batch size. When approval is switched off the request is created approved
// and the stripes are appended right away.
func (w *Workflow) Request(ctx context.Context, personID string, amount int, requester string) (*models.DrinkRequest, error) {
	if requester == "" {
		return nil, apperr.Unauthenticated("no visitor identity")
	}
	if personID == "" {
		return nil, apperr.InvalidArgument("personId is required")
	}
	person, err := w.store.GetPerson(ctx, personID)
	if err != nil {
		return nil, w.storeErr("person not found", err)
	}
	policy, err := ledger.LoadPolicy(ctx, w.store)
	if err != nil {
		return nil, w.storeErr("", err)
	}
	amount = ledger.ClampBatch(amount)
	now := w.now().UTC()
	req := &models.DrinkRequest{
		ID:          uuid.NewString(),
		PersonID:    personID,
		Amount:      amount,
		Status:      models.DrinkPending,
		RequestedBy: requester,
		CreatedAt:   now,
	}

	if policy.RequireApproval {
		if err := w.store.CreateDrinkRequest(ctx, req); err != nil {
			return nil, w.storeErr("", err)
		}
		w.metrics.DrinkRequest(string(models.DrinkPending))
		w.logger.Info("drink request filed", "component", "drinks", "request", req.ID, "person", personID, "amount", amount)
		w.notify(ctx, "New drink request",
			fmt.Sprintf("%s asked for %d fulfilled stripe(s) on %s.", requester, amount, person.Name))
		return req, nil
	}

	req.Status = models.DrinkApproved
	req.Applied = amount
	req.ProcessedBy = requester
	req.ProcessedAt = &now
	if err := w.store.CreateDrinkRequest(ctx, req); err != nil {
		return nil, w.storeErr("", err)
	}
	// appended one by one after the request row, like any other batch
	if _, err := w.ledger.AddEventsWith(ctx, w.store, personID, models.StripeFulfilled, amount); err != nil {
		return nil, w.storeErr("", err)
	}
	w.metrics.DrinkRequest(string(models.DrinkApproved))
	w.logger.Info("drink request auto-approved", "component", "drinks", "request", req.ID, "person", personID, "amount", amount)
	return req, nil
}

// Approve applies min(headroom, amount) fulfilled stripes, with headroom
// computed now, and records the applied amount.
func (w *Workflow) Approve(ctx context.Context, id, approver string) (*models.DrinkRequest, error) {
	var out *models.DrinkRequest
	err := w.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		req, err := pending(ctx, tx, id)
		if err != nil {
			return err
		}
		counts, err := tx.CountStripes(ctx, req.PersonID)
		if err != nil {
			return err
		}
		applied := int(min(counts.Headroom(), int64(req.Amount)))
		at := w.now().UTC()
		if err := tx.ResolveDrinkRequest(ctx, id, models.DrinkApproved, applied, approver, at); err != nil {
			return err
		}
		if _, err := w.ledger.AddEventsWith(ctx, tx, req.PersonID, models.StripeFulfilled, applied); err != nil {
			return err
		}
		req.Status = models.DrinkApproved
		req.Applied = applied
		req.ProcessedBy = approver
		req.ProcessedAt = &at
		out = req
		return nil
	})
	if err != nil {
		return nil, w.storeErr("drink request not found", err)
	}
	w.metrics.DrinkRequest(string(models.DrinkApproved))
	w.logger.Info("drink request approved", "component", "drinks", "request", id, "requested", out.Amount, "applied", out.Applied)
	return out, nil
}

func (w *Workflow) Reject(ctx context.Context, id, approver string) (*models.DrinkRequest, error) {
	var out *models.DrinkRequest
	err := w.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		req, err := pending(ctx, tx, id)
		if err != nil {
			return err
		}
		at := w.now().UTC()
		if err := tx.ResolveDrinkRequest(ctx, id, models.DrinkRejected, 0, approver, at); err != nil {
			return err
		}
		req.Status = models.DrinkRejected
		req.ProcessedBy = approver
		req.ProcessedAt = &at
		out = req
		return nil
	})
	if err != nil {
		return nil, w.storeErr("drink request not found", err)
	}
	w.metrics.DrinkRequest(string(models.DrinkRejected))
	w.logger.Info("drink request rejected", "component", "drinks", "request", id)
	return out, nil
}

// List returns requests newest first, joined with the person's name. Requests
// whose person has gone keep an empty name.
func (w *Workflow) List(ctx context.Context, pendingOnly bool) ([]models.DrinkRequestView, error) {
	reqs, err := w.store.ListDrinkRequests(ctx, pendingOnly)
	if err != nil {
		return nil, w.storeErr("", err)
	}
	people, err := w.store.ListPeople(ctx)
	if err != nil {
		return nil, w.storeErr("", err)
	}
	names := make(map[string]string, len(people))
	for _, p := range people {
		names[p.ID] = p.Name
	}
	out := make([]models.DrinkRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, models.DrinkRequestView{DrinkRequest: r, PersonName: names[r.PersonID]})
	}
	return out, nil
}

func pending(ctx context.Context, s store.DrinkRequestStore, id string) (*models.DrinkRequest, error) {
	if id == "" {
		return nil, apperr.InvalidArgument("requestId is required")
	}
	req, err := s.GetDrinkRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.DrinkPending {
		return nil, store.ErrConflict
	}
	return req, nil
}

func (w *Workflow) notify(ctx context.Context, subject, body string) {
	if err := w.notifier.Notify(ctx, subject, body); err != nil {
		w.logger.Warn("notification failed", "component", "drinks", "err", err)
	}
}

func (w *Workflow) storeErr(notFoundMsg string, err error) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFoundMsg)
	case errors.Is(err, store.ErrConflict):
		return apperr.FailedPrecondition("drink request is no longer pending")
	}
	w.logger.Error("store failure", "component", "drinks", "err", err)
	return apperr.Internal(err)
}
