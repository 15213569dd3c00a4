package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/julianstephens/habitual/internal/kv/memory"
)

func TestInstrumentedStore(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := InstrumentStore(mem, "test-instrumented")

	missBefore := testutil.ToFloat64(StoreOperations.WithLabelValues("test-instrumented", "get", "habits", "miss"))
	if _, ok, err := s.Get(ctx, "habits"); ok || err != nil {
		t.Fatalf("Get() = ok:%v err:%v", ok, err)
	}
	if got := testutil.ToFloat64(StoreOperations.WithLabelValues("test-instrumented", "get", "habits", "miss")); got != missBefore+1 {
		t.Errorf("miss counter = %v, want %v", got, missBefore+1)
	}

	if err := s.Set(ctx, "habits", "[]"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if got := testutil.ToFloat64(StoreOperations.WithLabelValues("test-instrumented", "set", "habits", "ok")); got < 1 {
		t.Errorf("set ok counter = %v", got)
	}
	if v, ok := mem.Raw("habits"); !ok || v != "[]" {
		t.Errorf("wrapped store value = %q ok:%v", v, ok)
	}

	mem.FailSet = func(string, string) error { return errors.New("boom") }
	if err := s.Set(ctx, "habits", "[1]"); err == nil {
		t.Fatal("Set() should propagate the wrapped error")
	}
	if got := testutil.ToFloat64(StoreOperations.WithLabelValues("test-instrumented", "set", "habits", "error")); got != 1 {
		t.Errorf("set error counter = %v, want 1", got)
	}

	if s.Unwrap() != mem {
		t.Error("Unwrap() should return the wrapped store")
	}
}

func TestIncrementReminderDelivered(t *testing.T) {
	okBefore := testutil.ToFloat64(RemindersDelivered.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(RemindersDelivered.WithLabelValues("failed"))

	IncrementReminderDelivered(nil)
	IncrementReminderDelivered(errors.New("tray offline"))

	if got := testutil.ToFloat64(RemindersDelivered.WithLabelValues("success")); got != okBefore+1 {
		t.Errorf("success = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(RemindersDelivered.WithLabelValues("failed")); got != failBefore+1 {
		t.Errorf("failed = %v, want %v", got, failBefore+1)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	SetRemindersScheduled(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "habitual_reminders_scheduled 3") {
		t.Error("scheduled gauge missing from /metrics output")
	}
}
