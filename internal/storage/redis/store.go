// Package redis stores the habit collections in Redis. Each storage key maps
// to one Redis string under a common prefix.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/kv"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Store struct {
	rdb    *goredis.Client
	prefix string
}

func New(cfg Config) *Store {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = constants.RedisKeyPrefix
	}
	return &Store{
		rdb: goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
	}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Open verifies the server is reachable.
func (s *Store) Open(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s.rdb == nil {
		return "", false, kv.ErrClosed
	}
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.rdb == nil {
		return kv.ErrClosed
	}
	return s.rdb.Set(ctx, s.key(key), value, 0).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	if s.rdb == nil {
		return kv.ErrClosed
	}
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	if s.rdb == nil {
		return nil
	}
	err := s.rdb.Close()
	s.rdb = nil
	return err
}

func (s *Store) GetConfigPath() string {
	return "redis"
}
