package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. Sub-repositories keep concerns tidy and
// make it hard to accidentally nest transactions.
type Store interface {
	Users() Users
	Products() Products
	Responsibles() Responsibles
	Sessions() Sessions
	Audit() Audit
	SystemConfig() SystemConfig

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise. Preferred over Tx for most callers.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the connection pool and the underlying database.
	Close() error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store: the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns any user row by id, active or not.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByName returns an active user by unique name.
	GetUserByName(ctx context.Context, name string) (domain.User, error)

	// GetUserByEmail returns an active user by unique email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user and returns the assigned id.
	// Unique violations surface as ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// UpdateLoginState persists the lockout state machine fields.
	UpdateLoginState(ctx context.Context, id int64, attempts int, lockedUntil, lastLogin *time.Time) error

	// UpdateCredentials sets a new hash+salt pair after a password change.
	UpdateCredentials(ctx context.Context, id int64, hash, salt string) error

	// CountAdmins reports how many active admin accounts exist.
	CountAdmins(ctx context.Context) (int64, error)
}

type Products interface {
	// GetProductByID returns a product row by id.
	GetProductByID(ctx context.Context, id int64) (domain.Product, error)

	// GetUnsentByEANAndUser returns the owner's unsent row for an EAN, if
	// any. Used for merge-on-create.
	GetUnsentByEANAndUser(ctx context.Context, ean string, userID int64) (domain.Product, error)

	// CreateProduct inserts a new unsent row and returns its id.
	CreateProduct(ctx context.Context, p domain.Product) (int64, error)

	// AddQuantity merges qty into an existing unsent row and refreshes its
	// entry timestamp. Returns rows affected (0 when the row is gone or
	// already sent).
	AddQuantity(ctx context.Context, id, qty int64, enteredAt time.Time) (int64, error)

	// ListByUser returns the user's rows newest-first, optionally only the
	// pending (unsent) ones.
	ListByUser(ctx context.Context, userID int64, pendingOnly bool) ([]domain.Product, error)

	// ListSent returns all sent rows joined with user/validator/responsible
	// names, optionally filtered to validated rows only.
	ListSent(ctx context.Context, validatedOnly bool) ([]domain.SentProduct, error)

	// SearchSent filters sent rows by a term matched against EAN, product
	// name and owner name.
	SearchSent(ctx context.Context, term string) ([]domain.SentProduct, error)

	// MarkSent stamps every unsent row owned by userID in one statement
	// and reports how many rows were affected.
	MarkSent(ctx context.Context, userID, responsibleID int64, pin string, sentAt time.Time) (int64, error)

	// MarkValidated stamps a single sent, not-yet-validated row; unsent,
	// already-validated or missing rows affect zero rows.
	MarkValidated(ctx context.Context, id, validatorID int64, notes *string, validatedAt time.Time) (int64, error)

	// DeleteProduct removes a row by id.
	DeleteProduct(ctx context.Context, id int64) (int64, error)

	// Stats aggregates counts and quantity, scoped to a user when userID
	// is non-nil.
	Stats(ctx context.Context, userID *int64) (domain.ProductStats, error)
}

type Responsibles interface {
	// GetResponsibleByID returns an active responsible party.
	GetResponsibleByID(ctx context.Context, id int64) (domain.Responsible, error)

	// ListResponsibles returns active responsible parties ordered by name.
	ListResponsibles(ctx context.Context) ([]domain.Responsible, error)

	// CreateResponsible inserts a new responsible party.
	CreateResponsible(ctx context.Context, r domain.Responsible) (int64, error)

	// Count reports how many responsible parties exist, active or not.
	Count(ctx context.Context) (int64, error)
}

type Sessions interface {
	// CreateSession stores a new login session row.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession returns a session by id regardless of expiry; callers
	// decide what an expired session means.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// TouchSession slides last_activity and the expiry deadline forward.
	TouchSession(ctx context.Context, id string, lastActivity, expiresAt time.Time) error

	// DeleteSession removes a session (logout).
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions is housekeeping; returns rows removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Audit interface {
	// Record appends one audit entry. Failures must not break the calling
	// operation; callers log and continue.
	Record(ctx context.Context, e domain.AuditEntry) error
}

type SystemConfig interface {
	// GetConfig returns one config entry by key.
	GetConfig(ctx context.Context, key string) (domain.ConfigEntry, error)

	// SetConfig inserts or replaces a config entry.
	SetConfig(ctx context.Context, e domain.ConfigEntry) error
}
