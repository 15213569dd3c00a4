package system

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/kv/memory"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/storage"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	ctx   *cli.Context
	store *memory.Store
	out   *bytes.Buffer
	sent  *bytes.Buffer
}

func setupTestContext(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = config.BackendMemory
	cfg.DataDir = t.TempDir()
	cfg.Timezone = "UTC"
	cfg.Backups.Dir = t.TempDir()
	cfg.Reminders.Notifier = "stdout"

	env := &testEnv{store: memory.New(), out: &bytes.Buffer{}, sent: &bytes.Buffer{}}
	env.ctx = cli.NewContext(context.Background(), cfg, env.store, notifier.NewWriter(env.sent),
		storage.WithClock(func() time.Time { return testNow }))
	env.ctx.Out = env.out
	return env
}
