package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
	"github.com/aussiebroadwan/stocktake/pkg/cryptox"
	"github.com/aussiebroadwan/stocktake/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrUserExists         = errors.New("username or email already taken")
)

// AuthService owns account registration and the login lockout state machine.
type AuthService struct {
	Store store.Store

	// MaxAttempts failed logins in a row lock the account for Lockout.
	// Zero values fall back to the domain defaults.
	MaxAttempts int
	Lockout     time.Duration
}

func (s *AuthService) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return domain.MaxLoginAttempts
}

func (s *AuthService) lockout() time.Duration {
	if s.Lockout > 0 {
		return s.Lockout
	}
	return domain.DefaultLockoutDuration
}

// Register creates a new non-admin account after validating the username,
// password strength and optional email.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if err := domain.ValidateUsername(name); err != nil {
		return domain.User{}, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return domain.User{}, err
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return domain.User{}, err
	}
	hash, err := cryptox.HashPassword(password, salt)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		Name:         name,
		PasswordHash: hash,
		Salt:         salt,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if email != "" {
		u.Email = &email
	}

	id, err := s.Store.Users().CreateUser(ctx, u)
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.User{}, ErrUserExists
	}
	if err != nil {
		return domain.User{}, err
	}
	u.ID = id

	s.audit(ctx, domain.AuditEntry{
		UserID: &id, Action: domain.AuditUserRegistered, TableName: "users", RecordID: &id,
	})
	l.Info("user registered", slog.String("name", name), slog.Int64("user_id", id))
	return u, nil
}

// Authenticate verifies credentials and drives the lockout counters. Expired
// locks are cleared lazily on the next attempt.
func (s *AuthService) Authenticate(ctx context.Context, name, password, ip string) (domain.User, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	u, err := s.Store.Users().GetUserByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		s.auditFailure(ctx, nil, name, ip)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}

	if u.LockedAt(now) {
		l.Warn("login attempt on locked account", slog.String("name", name))
		return domain.User{}, ErrAccountLocked
	}

	// Lock expired: reset counters before judging this attempt.
	if u.LockedUntil != nil {
		u.LoginAttempts = 0
		u.LockedUntil = nil
		if err := s.Store.Users().UpdateLoginState(ctx, u.ID, 0, nil, nil); err != nil {
			return domain.User{}, err
		}
	}

	if err := cryptox.VerifyPassword(password, u.Salt, u.PasswordHash); err != nil {
		attempts := u.LoginAttempts + 1
		var lockedUntil *time.Time
		if attempts >= s.maxAttempts() {
			until := now.Add(s.lockout())
			lockedUntil = &until
			l.Warn("account locked after repeated failures",
				slog.String("name", name), slog.Int("attempts", attempts))
		}
		if err := s.Store.Users().UpdateLoginState(ctx, u.ID, attempts, lockedUntil, nil); err != nil {
			return domain.User{}, err
		}
		s.auditFailure(ctx, &u.ID, name, ip)
		if lockedUntil != nil {
			return domain.User{}, ErrAccountLocked
		}
		return domain.User{}, ErrInvalidCredentials
	}

	if err := s.Store.Users().UpdateLoginState(ctx, u.ID, 0, nil, &now); err != nil {
		return domain.User{}, err
	}
	u.LoginAttempts = 0
	u.LockedUntil = nil
	u.LastLogin = &now

	s.audit(ctx, domain.AuditEntry{
		UserID: &u.ID, Action: domain.AuditLoginSuccess, TableName: "users",
		RecordID: &u.ID, IPAddress: optional(ip),
	})
	return u, nil
}

// ChangePassword re-verifies the current password, then stores a new hash
// under a freshly issued salt.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(current, u.Salt, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	if err := domain.ValidatePassword(next); err != nil {
		return err
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return err
	}
	hash, err := cryptox.HashPassword(next, salt)
	if err != nil {
		return err
	}
	return s.Store.Users().UpdateCredentials(ctx, userID, hash, salt)
}

func (s *AuthService) auditFailure(ctx context.Context, userID *int64, name, ip string) {
	detail := fmt.Sprintf("failed login for %q", name)
	s.audit(ctx, domain.AuditEntry{
		UserID: userID, Action: domain.AuditLoginFailure, TableName: "users",
		Detail: &detail, IPAddress: optional(ip),
	})
}

func (s *AuthService) audit(ctx context.Context, e domain.AuditEntry) {
	recordAudit(ctx, s.Store, e)
}

// recordAudit appends an audit row; failures are logged and swallowed so the
// calling operation still succeeds.
func recordAudit(ctx context.Context, st store.Store, e domain.AuditEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := st.Audit().Record(ctx, e); err != nil {
		slogx.FromContext(ctx).Warn("audit record failed",
			slog.String("action", e.Action), slog.Any("error", err))
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
