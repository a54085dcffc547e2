// Package schikko grants the single administrator ("Schikko") identity of a
// cycle. Possession of a TOTP secret enrolled through Enroll and Confirm is
// the only credential; no password is ever stored.
package schikko

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"schikko/apperr"
	"schikko/metrics"
	"schikko/models"
	"schikko/session"
	"schikko/store"
	"schikko/utils"
)

const (
	period     = 30
	secretSize = 20 // 160 bits
	maxNameLen = 64
)

var validateOpts = totp.ValidateOpts{
	Period:    period,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

type Config struct {
	Issuer string
	// Override is the break-glass login value, plain or bcrypt hashed. Empty
	// disables it.
	Override string
	Location *time.Location
}

type Election struct {
	store    store.Store
	sessions *session.Manager
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Status struct {
	IsSet   bool `json:"isSet"`
	Pending bool `json:"pending"`
}

// Enrollment is handed to the prospective administrator; nothing is stored
// until it is confirmed.
type Enrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

func New(s store.Store, sessions *session.Manager, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Election {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "Schikko"
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Election{
		store:    s,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// CycleKey is the calendar year of t in loc.
func CycleKey(t time.Time, loc *time.Location) string {
	return strconv.Itoa(t.In(loc).Year())
}

func (e *Election) Cycle() string {
	return CycleKey(e.now(), e.cfg.Location)
}

func (e *Election) Status(ctx context.Context) (Status, error) {
	term, err := e.store.GetTerm(ctx, e.Cycle())
	if errors.Is(err, store.ErrNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, e.internal("failed to load term", err)
	}
	return Status{IsSet: term.Verified, Pending: !term.Verified}, nil
}

func (e *Election) Enroll(ctx context.Context, firstName, lastName string) (*Enrollment, error) {
	firstName, lastName, err := cleanNames(firstName, lastName)
	if err != nil {
		return nil, err
	}
	if err := e.ensureVacant(ctx, e.Cycle()); err != nil {
		return nil, err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.cfg.Issuer,
		AccountName: firstName + " " + lastName,
		Period:      period,
		SecretSize:  secretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, e.internal("failed to generate secret", err)
	}
	return &Enrollment{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// Confirm stores a verified term when code proves possession of secret.
func (e *Election) Confirm(ctx context.Context, firstName, lastName, secret, code string) error {
	firstName, lastName, err := cleanNames(firstName, lastName)
	if err != nil {
		return err
	}
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if secret == "" {
		return apperr.InvalidArgument("secret is required")
	}
	cycle := e.Cycle()
	if err := e.ensureVacant(ctx, cycle); err != nil {
		return err
	}
	now := e.now()
	step, ok := matchStep(secret, code, now)
	if !ok {
		return apperr.InvalidCredential()
	}
	term := &models.SchikkoTerm{
		Cycle:        cycle,
		FirstName:    firstName,
		LastName:     lastName,
		Secret:       secret,
		Verified:     true,
		LastUsedStep: step,
		CreatedAt:    now.UTC(),
	}
	if err := e.store.CreateTerm(ctx, term); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return apperr.AlreadyExists("a schikko is already set for " + cycle)
		}
		return e.internal("failed to store term", err)
	}
	e.logger.Info("schikko confirmed", "component", "schikko", "cycle", cycle)
	return nil
}

// Login exchanges a valid code for a session bound to identity. Without a
// term for the cycle only the override value is accepted.
func (e *Election) Login(ctx context.Context, code, identity string) (*models.Session, error) {
	if identity == "" {
		return nil, apperr.Unauthenticated("no visitor identity")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.InvalidArgument("code is required")
	}
	cycle := e.Cycle()
	now := e.now()

	var (
		sess   *models.Session
		method string
	)
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		term, err := tx.GetTerm(ctx, cycle)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		switch {
		case utils.MatchSecret(e.cfg.Override, code):
			method = "override"
			if term != nil && !term.Verified {
				if err := tx.MarkTermUsed(ctx, cycle, 0); err != nil {
					return err
				}
			}
		case term != nil:
			step, ok := matchStep(term.Secret, code, now)
			if !ok {
				return apperr.InvalidCredential()
			}
			if err := tx.MarkTermUsed(ctx, cycle, step); err != nil {
				if errors.Is(err, store.ErrConflict) {
					// code already used
					return apperr.InvalidCredential()
				}
				return err
			}
			method = "totp"
		default:
			return apperr.InvalidCredential()
		}
		sess, err = e.sessions.IssueWith(ctx, tx, identity)
		return err
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			e.metrics.Login("invalid")
			return nil, err
		}
		e.metrics.Login("error")
		return nil, e.internal("login failed", err)
	}
	e.metrics.Login(method)
	e.logger.Info("schikko login", "component", "schikko", "cycle", cycle, "method", method)
	return sess, nil
}

func (e *Election) ensureVacant(ctx context.Context, cycle string) error {
	_, err := e.store.GetTerm(ctx, cycle)
	switch {
	case err == nil:
		return apperr.AlreadyExists("a schikko is already set for " + cycle)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return e.internal("failed to load term", err)
	}
}

func (e *Election) internal(msg string, err error) error {
	e.logger.Error(msg, "component", "schikko", "err", err)
	return apperr.Internal(err)
}

// matchStep checks code against the steps adjacent to now and returns the
// step it belongs to.
func matchStep(secret, code string, now time.Time) (int64, bool) {
	code = strings.TrimSpace(code)
	if len(code) != otp.DigitsSix.Length() {
		return 0, false
	}
	current := now.Unix() / period
	for _, step := range []int64{current - 1, current, current + 1} {
		want, err := totp.GenerateCodeCustom(secret, time.Unix(step*period, 0), validateOpts)
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return step, true
		}
	}
	return 0, false
}

func cleanNames(firstName, lastName string) (string, string, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return "", "", apperr.InvalidArgument("firstName and lastName are required")
	}
	if len(firstName) > maxNameLen || len(lastName) > maxNameLen {
		return "", "", apperr.InvalidArgument("name too long")
	}
	return firstName, lastName, nil
}
