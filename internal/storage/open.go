// Package storage holds the habit registry and the daily record log, and
// opens the key-value backend they persist to.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/kv/memory"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/storage/jsonfile"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/redis"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

// ErrNoConnectionString is returned when the postgres backend is selected
// but no connection string is configured.
var ErrNoConnectionString = errors.New("no PostgreSQL connection string configured")

type opener interface {
	kv.Store
	Open(ctx context.Context) error
}

// Open creates the configured backend, opens it and wraps it with metrics.
func Open(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	var s opener
	switch cfg.Backend {
	case config.BackendSQLite:
		s = sqlite.NewStore(cfg.SQLite.Path)
	case config.BackendJSON:
		s = jsonfile.NewStore(cfg.JSON.Path)
	case config.BackendPostgres:
		connStr, err := postgresConnString(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s = postgres.New(connStr)
	case config.BackendRedis:
		s = redis.New(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: redisPassword(cfg.Redis),
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case config.BackendMemory:
		return metrics.InstrumentStore(memory.New(), cfg.Backend), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if err := s.Open(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	logger.Debug("Opened store", "backend", cfg.Backend, "location", Location(s))
	return metrics.InstrumentStore(s, cfg.Backend), nil
}

// postgresConnString resolves the connection string from the config or the
// keyring. Strings from the config file must not embed a password; the
// keyring is the place for those.
func postgresConnString(cfg config.PostgresConfig) (string, error) {
	if cfg.URL != "" && !cfg.UseKeyring {
		if postgres.HasEmbeddedCredentials(cfg.URL) {
			return "", postgres.ErrEmbeddedCredentials
		}
		if ok, err := postgres.ValidateConnString(cfg.URL); !ok {
			return "", err
		}
		return cfg.URL, nil
	}

	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoConnectionString
		}
		return "", err
	}
	return connStr, nil
}

func redisPassword(cfg config.RedisConfig) string {
	if cfg.Password != "" {
		return cfg.Password
	}
	pw, err := keyring.Get(keyring.RedisPassword)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Redis password not read from keyring", "error", err)
		}
		return ""
	}
	return pw
}

// Location describes where s keeps its data, for diagnostics.
func Location(s kv.Store) string {
	for {
		if p, ok := s.(interface{ GetConfigPath() string }); ok {
			return p.GetConfigPath()
		}
		u, ok := s.(interface{ Unwrap() kv.Store })
		if !ok {
			return "memory"
		}
		s = u.Unwrap()
	}
}
