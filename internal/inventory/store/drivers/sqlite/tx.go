package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"github.com/aussiebroadwan/stocktake/internal/inventory/store"

	"github.com/jmoiron/sqlx"
)

type txStore struct {
	pool    *Pool
	pc      *PoolConn
	tx      *sqlx.Tx
	release sync.Once
}

func newTx(pool *Pool, pc *PoolConn, tx *sqlx.Tx) *txStore {
	return &txStore{pool: pool, pc: pc, tx: tx}
}

func (t *txStore) run(ctx context.Context, fn func(q querier) error) error {
	return fn(t.tx)
}

func (t *txStore) finish() {
	t.release.Do(func() { t.pool.Release(t.pc) })
}

func (t *txStore) Commit() error {
	err := t.tx.Commit()
	t.finish()
	return err
}

func (t *txStore) Rollback() error {
	err := t.tx.Rollback()
	t.finish()
	return err
}

func (t *txStore) Close() error { return nil } // nothing to close; caller will commit/rollback and outer DB stays open

// Ping is a no-op for transactions. The connection is already established
// when the transaction is created, so we just return nil.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users               { return &usersRepo{r: t} }
func (t *txStore) Products() store.Products         { return &productsRepo{r: t} }
func (t *txStore) Responsibles() store.Responsibles { return &responsiblesRepo{r: t} }
func (t *txStore) Sessions() store.Sessions         { return &sessionsRepo{r: t} }
func (t *txStore) Audit() store.Audit               { return &auditRepo{r: t} }
func (t *txStore) SystemConfig() store.SystemConfig { return &systemConfigRepo{r: t} }

func (t *txStore) ApplyMigrations() error { return nil } // no-op; migrations should be applied before starting a tx
