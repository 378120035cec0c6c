package sqlite

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("sqlite: connection pool closed")

// DefaultAcquireTimeout bounds the wait for a pooled connection before
// falling back to a temporary one.
const DefaultAcquireTimeout = 5 * time.Second

// Pool is a fixed-capacity queue of pre-opened, pragma-configured
// connections. Acquire waits a bounded time for a pooled connection and then
// opens a temporary one instead of blocking; temporary connections are never
// pooled on release.
type Pool struct {
	db             *sqlx.DB
	conns          chan *PoolConn
	size           int
	acquireTimeout time.Duration

	closed atomic.Bool

	// Cumulative counters, exposed for observability only.
	created atomic.Int64
	hits    atomic.Int64
	misses  atomic.Int64
	reuses  atomic.Int64
}

// PoolConn is a pooled or temporary connection handle. Callers must return
// it via Pool.Release on every exit path.
type PoolConn struct {
	Conn *sqlx.Conn
	temp bool
}

// PoolStats is a point-in-time snapshot of the pool counters.
type PoolStats struct {
	Size      int     `json:"pool_size"`
	Available int     `json:"available"`
	Created   int64   `json:"connections_created"`
	Hits      int64   `json:"pool_hits"`
	Misses    int64   `json:"pool_misses"`
	Reuses    int64   `json:"connections_reused"`
	HitRate   float64 `json:"hit_rate"`
}

// NewPool pre-opens size connections against db. acquireTimeout <= 0 falls
// back to DefaultAcquireTimeout.
func NewPool(ctx context.Context, db *sqlx.DB, size int, acquireTimeout time.Duration) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}

	p := &Pool{
		db:             db,
		conns:          make(chan *PoolConn, size),
		size:           size,
		acquireTimeout: acquireTimeout,
	}

	for range size {
		pc, err := p.open(ctx, false)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.conns <- pc
	}
	return p, nil
}

// open creates a new connection with the session pragmas applied.
func (p *Pool) open(ctx context.Context, temp bool) (*PoolConn, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, err
	}

	// WAL improves reader/writer concurrency; NORMAL sync is the agreed
	// durability/performance trade-off for a local service database.
	pragmas := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`PRAGMA synchronous = NORMAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA temp_store = MEMORY`,
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	p.created.Add(1)
	return &PoolConn{Conn: conn, temp: temp}, nil
}

// Acquire returns a live connection. Pooled connections are probed with a
// trivial query and replaced when broken; when the pool stays empty past the
// acquire timeout a temporary connection is opened instead of blocking.
func (p *Pool) Acquire(ctx context.Context) (*PoolConn, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case pc := <-p.conns:
		p.hits.Add(1)
		if err := p.probe(ctx, pc); err != nil {
			_ = pc.Conn.Close()
			return p.open(ctx, false)
		}
		return pc, nil
	case <-timer.C:
		p.misses.Add(1)
		return p.open(ctx, true)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// probe verifies a pooled connection is still usable.
func (p *Pool) probe(ctx context.Context, pc *PoolConn) error {
	var one int
	return pc.Conn.GetContext(ctx, &one, `SELECT 1`)
}

// Release hands a connection back. Temporary connections always close;
// pooled ones re-enter the queue unless it is already full.
func (p *Pool) Release(pc *PoolConn) {
	if pc == nil {
		return
	}
	if pc.temp || p.closed.Load() {
		_ = pc.Conn.Close()
		return
	}

	select {
	case p.conns <- pc:
		p.reuses.Add(1)
	default:
		_ = pc.Conn.Close()
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	hits := p.hits.Load()
	misses := p.misses.Load()
	attempts := hits + misses
	if attempts < 1 {
		attempts = 1
	}

	return PoolStats{
		Size:      p.size,
		Available: len(p.conns),
		Created:   p.created.Load(),
		Hits:      hits,
		Misses:    misses,
		Reuses:    p.reuses.Load(),
		HitRate:   float64(hits) / float64(attempts),
	}
}

// Close drains and closes every pooled connection. In-flight connections
// are closed as they are released.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	for {
		select {
		case pc := <-p.conns:
			_ = pc.Conn.Close()
		default:
			return
		}
	}
}
