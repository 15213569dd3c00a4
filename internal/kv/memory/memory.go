// Package memory is an in-process kv.Store. Tests use its fault hooks to
// simulate a failing device.
package memory

import (
	"context"
	"sync"

	"github.com/julianstephens/habitual/internal/kv"
)

type Store struct {
	mu     sync.Mutex
	data   map[string]string
	closed bool

	// FailGet and FailSet, when set, are consulted before every operation;
	// a non-nil return is reported as the operation's error.
	FailGet func(key string) error
	FailSet func(key, value string) error

	writes int
}

func New() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, kv.ErrClosed
	}
	if s.FailGet != nil {
		if err := s.FailGet(key); err != nil {
			return "", false, err
		}
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}
	if s.FailSet != nil {
		if err := s.FailSet(key, value); err != nil {
			return err
		}
	}
	s.data[key] = value
	s.writes++
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Writes returns the number of successful Set calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Raw returns the stored value without fault injection.
func (s *Store) Raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}
