package redis

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"
)

func TestKeyPrefix(t *testing.T) {
	s := New(Config{Addr: "localhost:6379"})
	defer s.Close()
	if got := s.key("habits"); got != "habitual:habits" {
		t.Errorf("key() = %q, want default prefix", got)
	}

	custom := New(Config{Addr: "localhost:6379", Prefix: "test:"})
	defer custom.Close()
	if got := custom.key("daily_records"); got != "test:daily_records" {
		t.Errorf("key() = %q, want custom prefix", got)
	}
}

func TestUseAfterClose(t *testing.T) {
	s := New(Config{Addr: "localhost:6379"})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}
	if _, _, err := s.Get(context.Background(), "habits"); err == nil {
		t.Error("Get() after Close should fail")
	}
}

// Set HABITUAL_TEST_REDIS_ADDR (e.g. localhost:6379) to run against a real server.
func TestStore_Integration(t *testing.T) {
	addr := os.Getenv("HABITUAL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HABITUAL_TEST_REDIS_ADDR not set, skipping Redis integration test")
	}

	ctx := context.Background()
	prefix := "habitual-test-" + strconv.FormatInt(time.Now().UnixNano(), 36) + ":"
	s := New(Config{Addr: addr, Prefix: prefix})
	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer func() {
		s.rdb.Del(ctx, s.key("habits"))
		s.Close()
	}()

	if _, ok, err := s.Get(ctx, "habits"); err != nil || ok {
		t.Fatalf("Get() of missing key = ok:%v err:%v", ok, err)
	}
	if err := s.Set(ctx, "habits", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, ok, err := s.Get(ctx, "habits")
	if err != nil || !ok || got != `[{"id":"1"}]` {
		t.Errorf("Get() = %q ok:%v err:%v", got, ok, err)
	}
}
