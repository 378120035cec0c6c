package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var (
	ErrBackupNotFound = errors.New("backup artifact not found")
	ErrBackupCorrupt  = errors.New("backup artifact failed verification")
	ErrSafetyBackup   = errors.New("could not take safety backup before restore")
)

const backupFormatVersion = "1"

// requiredTables must exist in a restore candidate before it may replace the
// live database.
var requiredTables = []string{"users", "products", "responsibles"}

// BackupMetadata is the metadata.json entry written into each archive.
type BackupMetadata struct {
	CreatedAt    time.Time `json:"created_at"`
	DatabasePath string    `json:"database_path"`
	OriginalSize int64     `json:"original_size"`
	Version      string    `json:"version"`
}

// BackupInfo describes one artifact on disk.
type BackupInfo struct {
	Name      string          `json:"name"`
	Size      int64           `json:"size"`
	CreatedAt time.Time       `json:"created_at"`
	Metadata  *BackupMetadata `json:"metadata,omitempty"`
}

// BackupStats is a snapshot of the service counters.
type BackupStats struct {
	Created       int64      `json:"backups_created"`
	Failed        int64      `json:"backups_failed"`
	CleanedUp     int64      `json:"backups_cleaned_up"`
	LastBackupAt  *time.Time `json:"last_backup_at,omitempty"`
	LastCleanupAt *time.Time `json:"last_cleanup_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// BackupService snapshots the live SQLite file into zipped artifacts and can
// restore a verified artifact over the live file. A background scheduler
// triggers periodic backups and a daily retention sweep.
//
// Restore replaces the database file in place; the process should be
// restarted afterwards so pooled connections reopen against the new file.
type BackupService struct {
	Store        store.Store
	Logger       *slog.Logger
	DatabasePath string
	BackupDir    string

	// Interval between automatic backups; Retention bounds artifact age.
	Interval  time.Duration
	Retention time.Duration

	// StopTimeout bounds how long Stop waits for an in-progress run; zero
	// means DefaultStopTimeout.
	StopTimeout time.Duration

	mu    sync.Mutex
	stats BackupStats

	schedMu sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Create snapshots the live database with VACUUM INTO and wraps the copy in
// a zip archive together with metadata.json. Returns the artifact path.
func (s *BackupService) Create(ctx context.Context) (string, error) {
	path, err := s.create(ctx)
	if err != nil {
		s.recordFailure(err)
		return "", err
	}

	s.recordSuccess()
	if s.Store != nil {
		detail := filepath.Base(path)
		recordAudit(ctx, s.Store, domain.AuditEntry{
			Action: domain.AuditBackupCreated, TableName: "backups", Detail: &detail,
		})
	}
	s.Logger.Info("backup created", "artifact", filepath.Base(path))
	return path, nil
}

func (s *BackupService) create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.BackupDir, 0o755); err != nil {
		return "", err
	}

	// Restore takes its safety snapshot through this same path, so names
	// must never collide with the artifact being restored.
	now := time.Now().UTC()
	stamp := fmt.Sprintf("%s_%09d", now.Format("20060102_150405"), now.Nanosecond())
	dbCopy := filepath.Join(s.BackupDir, "backup_"+stamp+".db")
	zipPath := filepath.Join(s.BackupDir, "backup_"+stamp+".zip")

	// VACUUM INTO produces a compact, consistent copy without blocking
	// writers for the whole duration.
	if err := s.vacuumInto(ctx, dbCopy); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}
	defer os.Remove(dbCopy)

	info, err := os.Stat(dbCopy)
	if err != nil {
		return "", err
	}

	meta := BackupMetadata{
		CreatedAt:    time.Now().UTC(),
		DatabasePath: s.DatabasePath,
		OriginalSize: info.Size(),
		Version:      backupFormatVersion,
	}
	if err := writeBackupArchive(zipPath, dbCopy, meta); err != nil {
		_ = os.Remove(zipPath)
		return "", fmt.Errorf("write archive: %w", err)
	}
	return zipPath, nil
}

func (s *BackupService) vacuumInto(ctx context.Context, dest string) error {
	db, err := sqlx.Open("sqlite", "file:"+s.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `VACUUM INTO ?`, dest)
	return err
}

func writeBackupArchive(zipPath, dbCopy string, meta BackupMetadata) error {
	// O_EXCL: an existing artifact is never truncated.
	out, err := os.OpenFile(zipPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	dbEntry, err := zw.Create(filepath.Base(dbCopy))
	if err != nil {
		return err
	}
	src, err := os.Open(dbCopy)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dbEntry, src); err != nil {
		_ = src.Close()
		return err
	}
	_ = src.Close()

	metaEntry, err := zw.Create("metadata.json")
	if err != nil {
		return err
	}
	if err := json.NewEncoder(metaEntry).Encode(meta); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

// List returns artifacts newest-first with their embedded metadata when
// readable.
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.BackupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "backup_") || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		b := BackupInfo{
			Name:      entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
		}
		if meta, err := readBackupMetadata(filepath.Join(s.BackupDir, entry.Name())); err == nil {
			b.Metadata = meta
			b.CreatedAt = meta.CreatedAt
		}
		backups = append(backups, b)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

func readBackupMetadata(zipPath string) (*BackupMetadata, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "metadata.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		var meta BackupMetadata
		if err := json.NewDecoder(rc).Decode(&meta); err != nil {
			return nil, err
		}
		return &meta, nil
	}
	return nil, errors.New("metadata.json missing")
}

// Restore verifies an artifact and copies it over the live database file. A
// safety backup is taken first; if that fails the restore never starts. The
// previous live file is kept alongside as a .bak.
func (s *BackupService) Restore(ctx context.Context, name string) error {
	artifact := filepath.Join(s.BackupDir, filepath.Base(name))
	if _, err := os.Stat(artifact); err != nil {
		return ErrBackupNotFound
	}

	if _, err := s.Create(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSafetyBackup, err)
	}

	scratch, err := os.MkdirTemp("", "stocktake-restore-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	candidate := filepath.Join(scratch, "restore.db")
	if strings.HasSuffix(artifact, ".zip") {
		if err := extractDatabase(artifact, candidate); err != nil {
			return fmt.Errorf("%w: %w", ErrBackupCorrupt, err)
		}
	} else if err := copyFile(artifact, candidate); err != nil {
		return err
	}

	if err := verifyDatabase(ctx, candidate); err != nil {
		return fmt.Errorf("%w: %w", ErrBackupCorrupt, err)
	}

	// Keep the current file recoverable, then swap in the candidate.
	if err := copyFile(s.DatabasePath, s.DatabasePath+".bak"); err != nil {
		return err
	}
	if err := copyFile(candidate, s.DatabasePath); err != nil {
		return err
	}

	// Stale WAL sidecars belong to the replaced file and must not be
	// replayed over the restored one.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(s.DatabasePath + suffix)
	}

	if s.Store != nil {
		detail := filepath.Base(artifact)
		recordAudit(ctx, s.Store, domain.AuditEntry{
			Action: domain.AuditBackupRestored, TableName: "backups", Detail: &detail,
		})
	}
	s.Logger.Warn("database restored from backup, restart recommended",
		"artifact", filepath.Base(artifact))
	return nil
}

func extractDatabase(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".db") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		out, err := os.Create(dest)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	}
	return errors.New("no database entry in archive")
}

// verifyDatabase runs an integrity check and confirms the schema carries the
// tables the application cannot run without.
func verifyDatabase(ctx context.Context, path string) error {
	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.GetContext(ctx, &result, `PRAGMA integrity_check`); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}

	query, args, err := sqlx.In(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?)`,
		requiredTables,
	)
	if err != nil {
		return err
	}
	var count int
	if err := db.GetContext(ctx, &count, query, args...); err != nil {
		return err
	}
	if count != len(requiredTables) {
		return fmt.Errorf("missing required tables: have %d of %d", count, len(requiredTables))
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// CleanupOld removes artifacts older than the retention window and reports
// how many were removed.
func (s *BackupService) CleanupOld(ctx context.Context) (int, error) {
	if s.Retention <= 0 {
		return 0, nil
	}

	backups, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-s.Retention)
	removed := 0
	for _, b := range backups {
		if b.CreatedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.BackupDir, b.Name)); err != nil {
			s.Logger.Error("failed to remove expired backup", "artifact", b.Name, "error", err)
			continue
		}
		removed++
	}

	s.mu.Lock()
	s.stats.CleanedUp += int64(removed)
	now := time.Now().UTC()
	s.stats.LastCleanupAt = &now
	s.mu.Unlock()

	if removed > 0 {
		s.Logger.Info("expired backups removed", "count", removed)
	}
	return removed, nil
}

// Stats returns a snapshot of the service counters.
func (s *BackupService) Stats() BackupStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *BackupService) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Created++
	now := time.Now().UTC()
	s.stats.LastBackupAt = &now
	s.stats.LastError = ""
}

func (s *BackupService) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Failed++
	s.stats.LastError = err.Error()
	s.Logger.Error("backup failed", "error", err)
}

// Start launches the scheduler: a one-minute ticker that triggers a backup
// whenever Interval has elapsed since the last run, and a retention sweep
// once a day after 02:00. Calling Start twice is a no-op.
func (s *BackupService) Start() {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(s.stopCh, s.doneCh)
	s.Logger.Info("backup scheduler started",
		"interval", s.Interval, "retention", s.Retention)
}

// Stop shuts the scheduler down and waits for any in-progress run, giving
// up after StopTimeout so a slow backup cannot stall shutdown.
func (s *BackupService) Stop() {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)

	timer := time.NewTimer(s.stopTimeout())
	defer timer.Stop()
	select {
	case <-s.doneCh:
		s.Logger.Info("backup scheduler stopped")
	case <-timer.C:
		s.Logger.Warn("backup scheduler still busy, abandoning wait")
	}
	s.stopCh = nil
	s.doneCh = nil
}

func (s *BackupService) stopTimeout() time.Duration {
	if s.StopTimeout > 0 {
		return s.StopTimeout
	}
	return DefaultStopTimeout
}

func (s *BackupService) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	lastBackup := time.Now()
	lastCleanupDay := time.Now().Day()

	for {
		select {
		case now := <-ticker.C:
			if s.Interval > 0 && now.Sub(lastBackup) >= s.Interval {
				lastBackup = now
				if _, err := s.Create(context.Background()); err != nil {
					// Already counted and logged; keep the loop alive.
					continue
				}
			}
			if now.Hour() >= 2 && now.Day() != lastCleanupDay {
				lastCleanupDay = now.Day()
				_, _ = s.CleanupOld(context.Background())
			}
		case <-stopCh:
			return
		}
	}
}
