// Package backup snapshots the habit registry and the daily record log into
// timestamped JSON files and restores them.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/logger"
)

// SnapshotVersion is written into every snapshot file.
const SnapshotVersion = 1

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Snapshot is the on-disk backup format. Both collections are kept as the
// raw strings found in the store so a restore is byte-for-byte.
type Snapshot struct {
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	Habits       *string   `json:"habits"`
	DailyRecords *string   `json:"daily_records"`
}

// Manager handles backup operations
type Manager struct {
	store     kv.Store
	backupDir string
	keep      int
	now       func() time.Time
}

// NewManager creates a backup manager writing to dir and keeping the newest
// keep files.
func NewManager(store kv.Store, dir string, keep int) *Manager {
	if keep < 1 {
		keep = constants.MaxBackups
	}
	return &Manager{store: store, backupDir: dir, keep: keep, now: time.Now}
}

// WithClock replaces the time source used for file names.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// Keep returns the retention limit.
func (m *Manager) Keep() int {
	return m.keep
}

// CreateBackup writes a snapshot of the store and rotates old backups.
func (m *Manager) CreateBackup(ctx context.Context) (string, error) {
	return m.createBackup(ctx, false)
}

// skipRotation is set by RestoreBackup so the safety copy never evicts the
// file being restored.
func (m *Manager) createBackup(ctx context.Context, skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	snap, err := m.snapshot(ctx)
	if err != nil {
		return "", err
	}

	backupPath, err := m.nextPath()
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := writeFileAtomic(backupPath, data); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	logger.Info("Created backup", "path", backupPath)

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			// A failed rotation leaves extra files behind but the backup is good.
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	return backupPath, nil
}

func (m *Manager) snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Version: SnapshotVersion, CreatedAt: m.now().UTC().Truncate(time.Second)}
	for _, key := range []string{constants.HabitsKey, constants.DailyRecordsKey} {
		v, ok, err := m.store.Get(ctx, key)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		val := v
		if key == constants.HabitsKey {
			snap.Habits = &val
		} else {
			snap.DailyRecords = &val
		}
	}
	return snap, nil
}

// nextPath uses minute precision, then seconds, then a counter.
func (m *Manager) nextPath() (string, error) {
	now := m.now()
	timestamp := now.Format("20060102-1504")
	backupPath := m.fileName(timestamp)
	if !exists(backupPath) {
		return backupPath, nil
	}

	timestamp = now.Format("20060102-150405")
	backupPath = m.fileName(timestamp)
	for counter := 1; exists(backupPath); counter++ {
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		backupPath = m.fileName(fmt.Sprintf("%s-%d", timestamp, counter))
	}
	return backupPath, nil
}

func (m *Manager) fileName(stamp string) string {
	return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+constants.BackupFileSuffix)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListBackups returns all backups, newest first. A missing directory means
// there are none.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}

		timestamp, ok := parseStamp(strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix))
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: timestamp,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseStamp accepts YYYYMMDD-HHMM and YYYYMMDD-HHMMSS, optionally followed
// by a -N collision counter.
func parseStamp(s string) (time.Time, bool) {
	if parts := strings.Split(s, "-"); len(parts) == 3 {
		s = parts[0] + "-" + parts[1]
	}
	for _, layout := range []string{"20060102-1504", "20060102-150405"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := m.keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
		logger.Debug("Removed old backup", "path", backups[i].Path)
	}
	return nil
}

// ReadBackup loads and checks a snapshot file.
func ReadBackup(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}
	if snap.Version < 1 || snap.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported backup version %d", snap.Version)
	}
	for key, raw := range map[string]*string{constants.HabitsKey: snap.Habits, constants.DailyRecordsKey: snap.DailyRecords} {
		if raw != nil && strings.TrimSpace(*raw) != "" && !json.Valid([]byte(*raw)) {
			return Snapshot{}, fmt.Errorf("backup file has invalid %s", key)
		}
	}
	return snap, nil
}

// RestoreBackup replaces the stored collections with the ones in the backup
// at backupPath. The current data is backed up first and that path is
// returned. A collection missing from the snapshot is written as empty.
func (m *Manager) RestoreBackup(ctx context.Context, backupPath string) (string, error) {
	if !exists(backupPath) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	snap, err := ReadBackup(backupPath)
	if err != nil {
		return "", err
	}

	safety, err := m.createBackup(ctx, true)
	if err != nil {
		return "", fmt.Errorf("failed to backup current data before restore: %w", err)
	}

	habits := "[]"
	if snap.Habits != nil {
		habits = *snap.Habits
	}
	records := "{}"
	if snap.DailyRecords != nil {
		records = *snap.DailyRecords
	}
	if err := m.store.Set(ctx, constants.HabitsKey, habits); err != nil {
		return safety, fmt.Errorf("failed to restore habits: %w", err)
	}
	if err := m.store.Set(ctx, constants.DailyRecordsKey, records); err != nil {
		return safety, fmt.Errorf("failed to restore daily records: %w", err)
	}
	logger.Info("Restored backup", "path", backupPath, "safety", safety)
	return safety, nil
}

// Resolve finds name as given, relative to the working directory, or inside
// the backup directory.
func (m *Manager) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if !exists(name) {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if exists(name) {
		return filepath.Abs(name)
	}
	if p := filepath.Join(m.backupDir, name); exists(p) {
		return p, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", m.backupDir)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
