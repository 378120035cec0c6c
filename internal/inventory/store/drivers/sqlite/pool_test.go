package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, size int, acquireTimeout time.Duration) *Pool {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "pool.db")
	db, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pool, err := NewPool(context.Background(), db, size, acquireTimeout)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPoolAcquireRelease(t *testing.T) {
	pool := newTestPool(t, 2, time.Second)
	ctx := context.Background()

	stats := pool.Stats()
	require.Equal(t, 2, stats.Size)
	require.Equal(t, 2, stats.Available)
	require.Equal(t, int64(2), stats.Created)

	pc, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, pool.Stats().Available)

	pool.Release(pc)

	stats = pool.Stats()
	require.Equal(t, 2, stats.Available)
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Reuses)
	require.Zero(t, stats.Misses)
	require.InDelta(t, 1.0, stats.HitRate, 0.001)
}

func TestPoolFallsBackToTemporaryConnection(t *testing.T) {
	pool := newTestPool(t, 1, 50*time.Millisecond)
	ctx := context.Background()

	held, err := pool.Acquire(ctx)
	require.NoError(t, err)

	// Pool is empty, so this waits out the timeout and opens a temp conn.
	temp, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, temp.temp)
	require.Equal(t, int64(1), pool.Stats().Misses)

	// Temp conns never re-enter the queue.
	pool.Release(temp)
	require.Zero(t, pool.Stats().Available)

	pool.Release(held)
	require.Equal(t, 1, pool.Stats().Available)
}

func TestPoolClose(t *testing.T) {
	pool := newTestPool(t, 1, time.Second)

	pool.Close()

	_, err := pool.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolAcquireHonoursContext(t *testing.T) {
	pool := newTestPool(t, 1, time.Minute)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer pool.Release(held)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
