package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
	"github.com/aussiebroadwan/stocktake/pkg/idx"
	"github.com/aussiebroadwan/stocktake/pkg/slogx"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// DefaultSessionTimeout is the idle deadline; activity slides it forward.
const DefaultSessionTimeout = time.Hour

// SessionService issues opaque server-side sessions and validates the cookie
// on every authenticated request.
type SessionService struct {
	Store   store.Store
	Timeout time.Duration
}

func (s *SessionService) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultSessionTimeout
}

// Create opens a new session for an authenticated user.
func (s *SessionService) Create(ctx context.Context, userID int64, ip, userAgent string) (domain.Session, error) {
	now := time.Now().UTC()
	sess := domain.Session{
		ID:           idx.New().String(),
		UserID:       userID,
		IPAddress:    ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.timeout()),
		LastActivity: now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Resolve validates a session id, slides its expiry forward, and returns the
// session together with its owning user. Expired sessions are removed.
func (s *SessionService) Resolve(ctx context.Context, id string) (domain.Session, domain.User, error) {
	sess, err := s.Store.Sessions().GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, domain.User{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, domain.User{}, err
	}

	now := time.Now().UTC()
	if sess.ExpiredAt(now) {
		if err := s.Store.Sessions().DeleteSession(ctx, id); err != nil {
			slogx.FromContext(ctx).Warn("expired session cleanup failed",
				slog.String("session_id", id), slog.Any("error", err))
		}
		return domain.Session{}, domain.User{}, ErrSessionExpired
	}

	u, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		return domain.Session{}, domain.User{}, err
	}
	if !u.Active {
		return domain.Session{}, domain.User{}, ErrSessionNotFound
	}

	sess.LastActivity = now
	sess.ExpiresAt = now.Add(s.timeout())
	if err := s.Store.Sessions().TouchSession(ctx, id, sess.LastActivity, sess.ExpiresAt); err != nil {
		return domain.Session{}, domain.User{}, err
	}
	return sess, u, nil
}

// Destroy removes a session (logout). Unknown ids are not an error.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	return s.Store.Sessions().DeleteSession(ctx, id)
}
