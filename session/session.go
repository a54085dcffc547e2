// Package session issues and validates administrator sessions. Sessions are
// bound to one anonymous identity and expire at a fixed instant; they are
// never extended.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"schikko/apperr"
	"schikko/models"
	"schikko/store"
	"schikko/utils"
)

const DefaultTTL = 12 * time.Hour

// 256 bits of entropy
const idBytes = 32

type Manager struct {
	store  store.SessionStore
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(s store.SessionStore, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Manager{store: s, logger: logger, ttl: ttl, now: time.Now}
}

// Issue creates and persists a session for identity.
func (m *Manager) Issue(ctx context.Context, identity string) (*models.Session, error) {
	return m.IssueWith(ctx, m.store, identity)
}

// IssueWith persists the session through s, so callers can issue inside a
// transaction.
func (m *Manager) IssueWith(ctx context.Context, s store.SessionStore, identity string) (*models.Session, error) {
	if identity == "" {
		return nil, apperr.Unauthenticated("no visitor identity")
	}
	id, err := utils.RandomToken(idBytes)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := m.now().UTC()
	sess := &models.Session{
		ID:        id,
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		m.logger.Error("failed to store session", "component", "session", "err", err)
		return nil, apperr.Internal(err)
	}
	return sess, nil
}

// Validate checks that sessionID names a live session owned by identity.
func (m *Manager) Validate(ctx context.Context, sessionID, identity string) (*models.Session, error) {
	if identity == "" {
		return nil, apperr.Unauthenticated("no visitor identity")
	}
	if sessionID == "" {
		return nil, apperr.PermissionDenied("invalid session")
	}
	sess, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.PermissionDenied("invalid session")
		}
		m.logger.Error("failed to load session", "component", "session", "err", err)
		return nil, apperr.Internal(err)
	}
	if sess.Identity != identity || sess.Expired(m.now()) {
		return nil, apperr.PermissionDenied("invalid session")
	}
	return sess, nil
}
