package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/kv/memory"
)

var fixedNow = time.Date(2024, 1, 10, 12, 30, 0, 0, time.UTC)

type fixture struct {
	mem      *memory.Store
	registry *Registry
	records  *RecordLog
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{mem: memory.New(), now: fixedNow}
	seq := 0
	clock := WithClock(func() time.Time { return f.now })
	ids := WithIDGenerator(func() (string, error) {
		seq++
		return fmt.Sprintf("habit-%d", seq), nil
	})
	f.records = NewRecordLog(f.mem, clock, WithLocation(time.UTC))
	f.registry = NewRegistry(f.mem, f.records, clock, ids)
	return f
}

func strPtr(s string) *string { return &s }
