package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/store"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// querier is the query surface shared by pooled connections and open
// transactions. Both *sqlx.Conn and *sqlx.Tx satisfy it.
type querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// runner executes fn against some querier. The Store acquires and releases a
// pooled connection around fn; a transaction just hands fn its *sqlx.Tx.
type runner interface {
	run(ctx context.Context, fn func(q querier) error) error
}

// Config controls how the database and its connection pool are opened.
type Config struct {
	// DSN is the sqlite data source, e.g. "file:stocktake.db".
	DSN string

	// PoolSize is the number of pre-opened connections. Values below 1
	// collapse to 1.
	PoolSize int

	// AcquireTimeout bounds the wait for a pooled connection; zero means
	// DefaultAcquireTimeout.
	AcquireTimeout time.Duration
}

type Store struct {
	db   *sqlx.DB
	pool *Pool
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}

	pool, err := NewPool(ctx, db, cfg.PoolSize, cfg.AcquireTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return s.db.Close()
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PoolStats exposes the connection pool counters for the admin surface.
func (s *Store) PoolStats() PoolStats {
	return s.pool.Stats()
}

// run borrows a pooled connection for the duration of fn.
func (s *Store) run(ctx context.Context, fn func(q querier) error) error {
	pc, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Release(pc)
	return fn(pc.Conn)
}

// Tx starts a read/write transaction on a pooled connection and returns a
// Tx-scoped Store. The connection is released on Commit or Rollback.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	pc, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := pc.Conn.BeginTxx(ctx, nil)
	if err != nil {
		s.pool.Release(pc)
		return nil, err
	}
	return newTx(s.pool, pc, tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Ensure rollback is called if we panic or return early with error
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err // rollback happens in defer
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users               { return &usersRepo{r: s} }
func (s *Store) Products() store.Products         { return &productsRepo{r: s} }
func (s *Store) Responsibles() store.Responsibles { return &responsiblesRepo{r: s} }
func (s *Store) Sessions() store.Sessions         { return &sessionsRepo{r: s} }
func (s *Store) Audit() store.Audit               { return &auditRepo{r: s} }
func (s *Store) SystemConfig() store.SystemConfig { return &systemConfigRepo{r: s} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConflict translates sqlite unique violations. The modernc driver does
// not export a typed constraint error, so match on the message.
func mapConflict(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}
