package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
	"github.com/aussiebroadwan/stocktake/pkg/cryptox"
	"github.com/aussiebroadwan/stocktake/pkg/slogx"
)

// Seed credentials for a fresh database. The admin password is a well-known
// default; operators must change it after first login.
const (
	seedAdminName     = "admin"
	seedAdminPassword = "admin123"
)

var seedResponsibles = []domain.Responsible{
	{Name: "Liliane", PIN: "5584"},
	{Name: "Rogerio", PIN: "9841"},
	{Name: "Celso", PIN: "2122"},
	{Name: "Marcos", PIN: "6231"},
}

// BootstrapService seeds a freshly migrated database: the default admin
// account, the responsible parties, and baseline system_config entries.
// Seeding is idempotent; existing rows are left alone.
type BootstrapService struct {
	Store store.Store

	SessionTimeout time.Duration
	MaxAttempts    int
	Lockout        time.Duration
	BackupsEnabled bool
}

func (s *BootstrapService) Run(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	admins, err := s.Store.Users().CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins == 0 {
		if err := s.seedAdmin(ctx); err != nil {
			return err
		}
		l.Warn("seeded default admin account, change the password",
			slog.String("name", seedAdminName))
	}

	count, err := s.Store.Responsibles().Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		now := time.Now().UTC()
		for _, r := range seedResponsibles {
			r.Active = true
			r.CreatedAt = now
			r.UpdatedAt = now
			if _, err := s.Store.Responsibles().CreateResponsible(ctx, r); err != nil &&
				!errors.Is(err, store.ErrAlreadyExists) {
				return err
			}
		}
		l.Info("seeded responsible parties", slog.Int("count", len(seedResponsibles)))
	}

	return s.seedConfig(ctx)
}

func (s *BootstrapService) seedAdmin(ctx context.Context) error {
	salt, err := cryptox.NewSalt()
	if err != nil {
		return err
	}
	hash, err := cryptox.HashPassword(seedAdminPassword, salt)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.Store.Users().CreateUser(ctx, domain.User{
		Name:         seedAdminName,
		PasswordHash: hash,
		Salt:         salt,
		Admin:        true,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil
	}
	return err
}

// seedConfig records the effective runtime settings so operators can inspect
// them in the database. Existing keys are overwritten with current values.
func (s *BootstrapService) seedConfig(ctx context.Context) error {
	now := time.Now().UTC()
	entries := []domain.ConfigEntry{
		{Key: "schema_version", Value: "1"},
		{Key: "backup_enabled", Value: strconv.FormatBool(s.BackupsEnabled)},
		{Key: "session_timeout", Value: s.SessionTimeout.String()},
		{Key: "max_login_attempts", Value: strconv.Itoa(s.MaxAttempts)},
		{Key: "lockout_duration", Value: s.Lockout.String()},
	}
	for _, e := range entries {
		e.UpdatedAt = now
		if err := s.Store.SystemConfig().SetConfig(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
