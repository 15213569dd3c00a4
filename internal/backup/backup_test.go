package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/kv/memory"
)

const (
	habitsJSON  = `[{"id":"a","name":"Read","frequency":"daily","timesPerWeek":7,"targetDays":7,"active":true}]`
	recordsJSON = `{"2024-01-10":{"a":{"completed":true,"photo":null,"timestamp":null}}}`
)

func setup(t *testing.T, keep int) (*Manager, *memory.Store, *time.Time) {
	t.Helper()
	mem := memory.New()
	ctx := context.Background()
	if err := mem.Set(ctx, constants.HabitsKey, habitsJSON); err != nil {
		t.Fatal(err)
	}
	if err := mem.Set(ctx, constants.DailyRecordsKey, recordsJSON); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 10, 9, 15, 0, 0, time.Local)
	mgr := NewManager(mem, filepath.Join(t.TempDir(), "backups"), keep).WithClock(func() time.Time { return now })
	return mgr, mem, &now
}

func TestCreateBackup(t *testing.T) {
	mgr, _, _ := setup(t, 5)

	path, err := mgr.CreateBackup(context.Background())
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if filepath.Base(path) != "habitual-20240110-0915.json" {
		t.Errorf("unexpected backup name %s", filepath.Base(path))
	}

	snap, err := ReadBackup(path)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}
	if snap.Version != SnapshotVersion {
		t.Errorf("version = %d", snap.Version)
	}
	if snap.Habits == nil || *snap.Habits != habitsJSON {
		t.Errorf("habits not captured verbatim: %v", snap.Habits)
	}
	if snap.DailyRecords == nil || *snap.DailyRecords != recordsJSON {
		t.Errorf("records not captured verbatim: %v", snap.DailyRecords)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("backup mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestCreateBackupNameCollisions(t *testing.T) {
	mgr, _, _ := setup(t, 10)
	ctx := context.Background()

	var names []string
	for i := 0; i < 3; i++ {
		path, err := mgr.CreateBackup(ctx)
		if err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
		names = append(names, filepath.Base(path))
	}

	want := []string{
		"habitual-20240110-0915.json",
		"habitual-20240110-091500.json",
		"habitual-20240110-091500-1.json",
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("backup %d = %s, want %s", i, names[i], want[i])
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 3 {
		t.Errorf("expected 3 backups listed, got %d", len(backups))
	}
}

func TestListBackupsNewestFirstAndRotation(t *testing.T) {
	mgr, _, now := setup(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := mgr.CreateBackup(ctx); err != nil {
			t.Fatalf("CreateBackup failed: %v", err)
		}
		*now = now.Add(time.Hour)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 3 {
		t.Fatalf("rotation kept %d backups, want 3", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i-1].Timestamp.After(backups[i].Timestamp) {
			t.Errorf("backups not sorted newest first: %v then %v", backups[i-1].Timestamp, backups[i].Timestamp)
		}
	}
	if filepath.Base(backups[0].Path) != "habitual-20240110-1315.json" {
		t.Errorf("newest backup = %s", filepath.Base(backups[0].Path))
	}
}

func TestListBackupsIgnoresForeignFiles(t *testing.T) {
	mgr, _, _ := setup(t, 3)
	if err := os.MkdirAll(mgr.GetBackupDir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "habitual-garbage.json", "habitual-20240110-0915.json.tmp"} {
		if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %+v", backups)
	}
}

func TestListBackupsMissingDir(t *testing.T) {
	mgr := NewManager(memory.New(), filepath.Join(t.TempDir(), "nope"), 3)
	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestRestoreBackup(t *testing.T) {
	mgr, mem, now := setup(t, 5)
	ctx := context.Background()

	path, err := mgr.CreateBackup(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := mem.Set(ctx, constants.HabitsKey, "[]"); err != nil {
		t.Fatal(err)
	}
	if err := mem.Set(ctx, constants.DailyRecordsKey, "{}"); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(time.Minute)

	safety, err := mgr.RestoreBackup(ctx, path)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	if v, _ := mem.Raw(constants.HabitsKey); v != habitsJSON {
		t.Errorf("habits after restore = %s", v)
	}
	if v, _ := mem.Raw(constants.DailyRecordsKey); v != recordsJSON {
		t.Errorf("records after restore = %s", v)
	}

	snap, err := ReadBackup(safety)
	if err != nil {
		t.Fatalf("safety backup unreadable: %v", err)
	}
	if snap.Habits == nil || *snap.Habits != "[]" {
		t.Errorf("safety backup should hold the pre-restore habits, got %v", snap.Habits)
	}
}

func TestRestoreBackupMissingCollections(t *testing.T) {
	mgr, mem, now := setup(t, 5)
	ctx := context.Background()

	empty := NewManager(memory.New(), mgr.GetBackupDir(), 5).WithClock(func() time.Time { return now.Add(-time.Hour) })
	path, err := empty.CreateBackup(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.RestoreBackup(ctx, path); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if v, _ := mem.Raw(constants.HabitsKey); v != "[]" {
		t.Errorf("habits = %s, want []", v)
	}
	if v, _ := mem.Raw(constants.DailyRecordsKey); v != "{}" {
		t.Errorf("records = %s, want {}", v)
	}
}

func TestRestoreBackupRejectsInvalidFile(t *testing.T) {
	mgr, mem, _ := setup(t, 5)
	ctx := context.Background()

	if _, err := mgr.RestoreBackup(ctx, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.RestoreBackup(ctx, bad); err == nil || !strings.Contains(err.Error(), "corrupted") {
		t.Errorf("expected corrupted error, got %v", err)
	}

	future := filepath.Join(t.TempDir(), "future.json")
	if err := os.WriteFile(future, []byte(`{"version":99}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.RestoreBackup(ctx, future); err == nil {
		t.Error("expected error for unsupported version")
	}

	if v, _ := mem.Raw(constants.HabitsKey); v != habitsJSON {
		t.Error("rejected restore must not touch the store")
	}
}

func TestCreateBackupReadFailure(t *testing.T) {
	mgr, mem, _ := setup(t, 5)
	mem.FailGet = func(key string) error { return errors.New("disk gone") }

	if _, err := mgr.CreateBackup(context.Background()); err == nil {
		t.Fatal("expected error when the store cannot be read")
	}
	backups, _ := mgr.ListBackups()
	if len(backups) != 0 {
		t.Errorf("no file should be written on failure, got %d", len(backups))
	}
}

func TestResolve(t *testing.T) {
	mgr, _, _ := setup(t, 5)
	path, err := mgr.CreateBackup(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got, err := mgr.Resolve(filepath.Base(path))
	if err != nil {
		t.Fatalf("Resolve by name failed: %v", err)
	}
	if got != path {
		t.Errorf("Resolve = %s, want %s", got, path)
	}
	if got, err := mgr.Resolve(path); err != nil || got != path {
		t.Errorf("Resolve absolute = %s, %v", got, err)
	}
	if _, err := mgr.Resolve("habitual-19990101-0000.json"); err == nil {
		t.Error("expected error for unknown backup")
	}
}
