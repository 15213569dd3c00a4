package storage

import (
	"time"

	"github.com/google/uuid"
)

type options struct {
	now   func() time.Time
	loc   *time.Location
	newID func() (string, error)
}

// Option customizes a Registry or RecordLog.
type Option func(*options)

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the timezone that decides which date "today" is.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithIDGenerator replaces the habit id generator.
func WithIDGenerator(f func() (string, error)) Option {
	return func(o *options) { o.newID = f }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		loc:   time.Local,
		newID: newHabitID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newHabitID returns a UUIDv7: a millisecond timestamp followed by random
// bits, so ids are unique and sort by creation time.
func newHabitID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
