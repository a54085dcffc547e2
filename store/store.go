// Package store declares the persistence contract shared by the MongoDB and
// SQL backends.
package store

import (
	"context"
	"errors"
	"time"

	"schikko/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when a conditional update finds the row in an
	// unexpected state.
	ErrConflict = errors.New("conflict")
)

// Store is implemented by every backend. Methods called on the Store passed to
// a RunInTx callback take part in that transaction.
type Store interface {
	// RunInTx runs fn in a single transaction. fn must only use the Store and
	// context it is given.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	TermStore
	SessionStore
	ThrottleStore
	PersonStore
	StripeStore
	DrinkRequestStore
	RuleStore
	ActivityStore
	SettingStore

	Close(ctx context.Context) error
}

type TermStore interface {
	GetTerm(ctx context.Context, cycle string) (*models.SchikkoTerm, error)
	// CreateTerm fails with ErrAlreadyExists if a term exists for the cycle.
	CreateTerm(ctx context.Context, term *models.SchikkoTerm) error
	// MarkTermUsed sets verified. A non-zero step is recorded as the last
	// accepted time step and must be newer than the stored one, otherwise
	// ErrConflict is returned.
	MarkTermUsed(ctx context.Context, cycle string, step int64) error
	DeleteTerm(ctx context.Context, cycle string) (bool, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	DeleteAllSessions(ctx context.Context) (int64, error)
}

type ThrottleStore interface {
	// RecordAttempt prunes attempts for key older than windowStart and, if
	// fewer than limit remain, records at. It reports whether the attempt was
	// recorded.
	RecordAttempt(ctx context.Context, key string, at, windowStart time.Time, limit int) (bool, error)
	DeleteIdleThrottles(ctx context.Context, before time.Time) (int64, error)
}

type PersonStore interface {
	CreatePerson(ctx context.Context, p *models.Person) error
	GetPerson(ctx context.Context, id string) (*models.Person, error)
	ListPeople(ctx context.Context) ([]models.Person, error)
	RenamePerson(ctx context.Context, id, name string) error
	SetPersonRole(ctx context.Context, id string, role models.Role) error
	// DeletePerson removes the person together with their stripes and drink requests.
	DeletePerson(ctx context.Context, id string) error
	DeleteAllPeople(ctx context.Context) (int64, error)
}

type StripeStore interface {
	AppendStripe(ctx context.Context, ev *models.StripeEvent) error
	CountStripes(ctx context.Context, personID string) (models.StripeCounts, error)
	// DeleteLatestStripes deletes up to n most recent events of kind for the
	// person and returns how many were deleted.
	DeleteLatestStripes(ctx context.Context, personID string, kind models.StripeKind, n int) (int64, error)
	DeleteStripesByKind(ctx context.Context, kind models.StripeKind) (int64, error)
	DeleteAllStripes(ctx context.Context) (int64, error)
}

type DrinkRequestStore interface {
	CreateDrinkRequest(ctx context.Context, r *models.DrinkRequest) error
	GetDrinkRequest(ctx context.Context, id string) (*models.DrinkRequest, error)
	ListDrinkRequests(ctx context.Context, pendingOnly bool) ([]models.DrinkRequest, error)
	// ResolveDrinkRequest moves a pending request to a terminal status. It
	// fails with ErrNotFound if missing and ErrConflict if not pending.
	ResolveDrinkRequest(ctx context.Context, id string, status models.DrinkRequestStatus, applied int, by string, at time.Time) error
	DeleteAllDrinkRequests(ctx context.Context) (int64, error)
}

type RuleStore interface {
	CreateRule(ctx context.Context, r *models.Rule) error
	UpdateRule(ctx context.Context, id, text string, position int, at time.Time) error
	DeleteRule(ctx context.Context, id string) error
	ListRules(ctx context.Context) ([]models.Rule, error)
	DeleteAllRules(ctx context.Context) (int64, error)
}

type ActivityStore interface {
	AppendLog(ctx context.Context, l *models.ActivityLog) error
	ListLogs(ctx context.Context, limit int) ([]models.ActivityLog, error)
	DeleteLog(ctx context.Context, id string) error
	DeleteLogsBefore(ctx context.Context, before time.Time) (int64, error)
	DeleteAllLogs(ctx context.Context) (int64, error)
}

type SettingStore interface {
	// GetSetting returns ErrNotFound when the key has never been set.
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]models.Setting, error)
}
