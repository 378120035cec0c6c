package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store/drivers/sqlite"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// seedBackupSource builds a database file with one user and one product,
// then closes it so the file on disk is complete.
func seedBackupSource(t *testing.T) string {
	t.Helper()

	st, path := newTestStore(t)
	ctx := context.Background()

	boot := &BootstrapService{Store: st}
	require.NoError(t, boot.Run(ctx))

	auth := &AuthService{Store: st}
	userID := registerTestUser(t, auth, "backup_owner")

	products := &ProductService{Store: st, Responsibles: &ResponsibleService{Store: st}}
	_, err := products.Create(ctx, userID, ProductInput{
		EAN: "7891234567895", Name: "Produto Protegido", Quantity: 1,
	})
	require.NoError(t, err)

	require.NoError(t, st.Close())
	return path
}

func openStore(t *testing.T, path string) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(context.Background(), sqlite.Config{
		DSN: "file:" + path, PoolSize: 1,
	})
	require.NoError(t, err)
	return s
}

func TestBackupCreateAndList(t *testing.T) {
	path := seedBackupSource(t)
	svc := &BackupService{
		Logger:       discardLogger(),
		DatabasePath: path,
		BackupDir:    t.TempDir(),
	}
	ctx := context.Background()

	artifact, err := svc.Create(ctx)
	require.NoError(t, err)
	require.FileExists(t, artifact)

	// Intermediate .db copy is cleaned up.
	entries, err := os.ReadDir(svc.BackupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	backups, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	require.Equal(t, filepath.Base(artifact), backups[0].Name)
	require.NotNil(t, backups[0].Metadata)
	require.Equal(t, path, backups[0].Metadata.DatabasePath)
	require.Positive(t, backups[0].Metadata.OriginalSize)

	stats := svc.Stats()
	require.Equal(t, int64(1), stats.Created)
	require.Zero(t, stats.Failed)
	require.NotNil(t, stats.LastBackupAt)
}

func TestBackupCreateNamesAreUnique(t *testing.T) {
	path := seedBackupSource(t)
	svc := &BackupService{
		Logger:       discardLogger(),
		DatabasePath: path,
		BackupDir:    t.TempDir(),
	}
	ctx := context.Background()

	// Back-to-back snapshots land in the same second; each must still get
	// its own artifact.
	first, err := svc.Create(ctx)
	require.NoError(t, err)
	second, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.FileExists(t, first)
	require.FileExists(t, second)
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	path := seedBackupSource(t)
	svc := &BackupService{
		Logger:       discardLogger(),
		DatabasePath: path,
		BackupDir:    t.TempDir(),
	}
	ctx := context.Background()

	artifact, err := svc.Create(ctx)
	require.NoError(t, err)

	// Mutate every guarded table after the backup was taken: drop the
	// product, add a user and a responsible party.
	st := openStore(t, path)
	owner, err := st.Users().GetUserByName(ctx, "backup_owner")
	require.NoError(t, err)
	responsiblesBefore, err := st.Responsibles().ListResponsibles(ctx)
	require.NoError(t, err)
	products, err := st.Products().ListByUser(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, products, 1)
	_, err = st.Products().DeleteProduct(ctx, products[0].ID)
	require.NoError(t, err)

	auth := &AuthService{Store: st}
	registerTestUser(t, auth, "late_user")
	_, err = st.Responsibles().CreateResponsible(ctx, domain.Responsible{
		Name: "Tardio", PIN: "0001", Active: true,
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Restore immediately, within the same second as the backup.
	require.NoError(t, svc.Restore(ctx, filepath.Base(artifact)))

	// The replaced file is kept recoverable.
	require.FileExists(t, path+".bak")

	restored := openStore(t, path)
	defer restored.Close()

	products, err = restored.Products().ListByUser(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "7891234567895", products[0].EAN)

	restoredOwner, err := restored.Users().GetUserByName(ctx, "backup_owner")
	require.NoError(t, err)
	require.Equal(t, owner.ID, restoredOwner.ID)
	_, err = restored.Users().GetUserByName(ctx, "late_user")
	require.ErrorIs(t, err, store.ErrNotFound)

	responsiblesAfter, err := restored.Responsibles().ListResponsibles(ctx)
	require.NoError(t, err)
	require.Equal(t, responsiblesBefore, responsiblesAfter)
}

func TestBackupRestoreRejectsBadArtifacts(t *testing.T) {
	path := seedBackupSource(t)
	svc := &BackupService{
		Logger:       discardLogger(),
		DatabasePath: path,
		BackupDir:    t.TempDir(),
	}
	ctx := context.Background()

	t.Run("missing artifact", func(t *testing.T) {
		err := svc.Restore(ctx, "backup_nope.zip")
		require.ErrorIs(t, err, ErrBackupNotFound)
	})

	t.Run("garbage artifact aborts before touching the live file", func(t *testing.T) {
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		bad := filepath.Join(svc.BackupDir, "backup_bad.zip")
		require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0o644))

		err = svc.Restore(ctx, "backup_bad.zip")
		require.ErrorIs(t, err, ErrBackupCorrupt)

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})
}

func TestBackupCleanupOld(t *testing.T) {
	path := seedBackupSource(t)
	svc := &BackupService{
		Logger:       discardLogger(),
		DatabasePath: path,
		BackupDir:    t.TempDir(),
		Retention:    24 * time.Hour,
	}
	ctx := context.Background()

	fresh, err := svc.Create(ctx)
	require.NoError(t, err)

	// Write a second artifact whose metadata is past the retention window.
	old := filepath.Join(svc.BackupDir, "backup_20200101_000000.zip")
	require.NoError(t, writeBackupArchive(old, path, BackupMetadata{
		CreatedAt:    time.Now().UTC().Add(-48 * time.Hour),
		DatabasePath: path,
		OriginalSize: 1,
		Version:      backupFormatVersion,
	}))

	removed, err := svc.CleanupOld(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	require.NoFileExists(t, old)
	require.FileExists(t, fresh)
}

func TestBackupSchedulerStartStop(t *testing.T) {
	path := seedBackupSource(t)
	svc := &BackupService{
		Logger:       discardLogger(),
		DatabasePath: path,
		BackupDir:    t.TempDir(),
		Interval:     time.Hour,
	}

	svc.Start()
	svc.Start() // second start is a no-op
	svc.Stop()
	svc.Stop() // stop after stop is safe too
}

func TestBackupStopDoesNotBlockOnStuckRun(t *testing.T) {
	svc := &BackupService{
		Logger:      discardLogger(),
		StopTimeout: 50 * time.Millisecond,
	}
	svc.stopCh = make(chan struct{})
	svc.doneCh = make(chan struct{}) // never closed, as if a run hung

	start := time.Now()
	svc.Stop()
	require.Less(t, time.Since(start), 5*time.Second)
	require.Nil(t, svc.stopCh)
}
