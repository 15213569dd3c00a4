package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetGetDelete(t *testing.T) {
	gokeyring.MockInit()

	tests := []struct {
		name  string
		value string
	}{
		{name: PostgresURL, value: "postgres://habitual@localhost:5432/habitual?sslmode=disable"},
		{name: RedisPassword, value: "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Set(tt.name, tt.value); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}
			got, err := Get(tt.name)
			if err != nil || got != tt.value {
				t.Fatalf("Get() = %q, %v; want %q", got, err, tt.value)
			}
			if err := Delete(tt.name); err != nil {
				t.Fatalf("Delete() failed: %v", err)
			}
			if _, err := Get(tt.name); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
			}
			if err := Delete(tt.name); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConnectionString() error = %v, want ErrNotFound", err)
	}
	want := "postgres://habitual@db:5432/habitual"
	if err := Set(PostgresURL, want); err != nil {
		t.Fatal(err)
	}
	if got, err := GetConnectionString(); err != nil || got != want {
		t.Errorf("GetConnectionString() = %q, %v", got, err)
	}
}

func TestRejectsBadInput(t *testing.T) {
	gokeyring.MockInit()

	if err := Set(PostgresURL, ""); err == nil {
		t.Error("Set() with empty value should fail")
	}
	if err := Set("api-token", "x"); !errors.Is(err, ErrUnknownSecret) {
		t.Errorf("Set() unknown name error = %v, want ErrUnknownSecret", err)
	}
	if _, err := Get("api-token"); !errors.Is(err, ErrUnknownSecret) {
		t.Errorf("Get() unknown name error = %v, want ErrUnknownSecret", err)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() = false, want true in mock mode")
	}
}
