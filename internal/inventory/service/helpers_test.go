package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store/drivers/sqlite"

	"github.com/stretchr/testify/require"
)

// newTestStore opens a migrated temp-file store and returns it with the
// database path for the backup tests.
func newTestStore(t *testing.T) (store.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stocktake.db")
	s, err := sqlite.NewStore(context.Background(), sqlite.Config{
		DSN:      "file:" + path,
		PoolSize: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s, path
}

func registerTestUser(t *testing.T, auth *AuthService, name string) int64 {
	t.Helper()

	u, err := auth.Register(context.Background(), name, "", "Sup3rSecret!")
	require.NoError(t, err)
	return u.ID
}
