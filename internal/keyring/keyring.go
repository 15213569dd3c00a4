// Package keyring keeps backend secrets in the OS keyring so they never have
// to appear in the config file or a connection string.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitual/internal/constants"
)

// Secret names stored under the habitual service.
const (
	PostgresURL   = constants.DefaultKeyringUser
	RedisPassword = "redis-password"
)

var (
	// ErrNotFound is returned when no secret is stored under the name.
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
	// ErrUnknownSecret is returned for names other than the ones above.
	ErrUnknownSecret = errors.New("unknown secret name")
)

// Names lists the secrets the keyring commands accept.
func Names() []string {
	return []string{PostgresURL, RedisPassword}
}

func checkName(name string) error {
	for _, n := range Names() {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSecret, name)
}

// Get retrieves a secret. It returns ErrNotFound if nothing is stored.
func Get(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	v, err := keyring.Get(constants.AppName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func Set(name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if err := keyring.Set(constants.AppName, name, value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := keyring.Delete(constants.AppName, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// GetConnectionString returns the stored PostgreSQL connection string.
func GetConnectionString() (string, error) {
	return Get(PostgresURL)
}

// IsAvailable checks if the OS keyring is available on the current system.
// A not-found read still means the keyring itself works.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
