// Package reminder schedules a daily reminder per habit and delivers it
// through a Notifier when its time of day comes around.
package reminder

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// Scheduler creates and cancels daily reminders. Handles are opaque to
// callers; an empty handle means nothing was scheduled.
type Scheduler interface {
	Schedule(ctx context.Context, habit models.Habit) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// Syncer replaces all scheduled reminders at once.
type Syncer interface {
	Sync(ctx context.Context, habits []models.Habit) (map[string]string, error)
}

// Notifier shows a reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Message is the text delivered for a habit's reminder.
func Message(habitName string) string {
	return `Time for "` + habitName + `"! Don't forget to mark it as done.`
}

// Trigger is one scheduled daily reminder.
type Trigger struct {
	Handle    string `json:"handle"`
	HabitID   string `json:"habitId"`
	HabitName string `json:"habitName"`
	Time      string `json:"time"`
	minutes   int
}

// Service is an in-process Scheduler. Run must be running for reminders to
// be delivered; triggers do not survive a restart, so callers Sync on start.
type Service struct {
	mu       sync.Mutex
	triggers map[string]Trigger
	fired    map[string]string // handle -> date last delivered

	notifier Notifier
	loc      *time.Location
	interval time.Duration
	now      func() time.Time
	source   func(ctx context.Context) []models.Habit
}

type Option func(*Service)

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSource makes Run resync from the returned habits before every tick,
// so habits added or edited by other processes are picked up.
func WithSource(source func(ctx context.Context) []models.Habit) Option {
	return func(s *Service) { s.source = source }
}

func NewService(n Notifier, opts ...Option) *Service {
	s := &Service{
		triggers: make(map[string]Trigger),
		fired:    make(map[string]string),
		notifier: n,
		loc:      time.Local,
		interval: constants.DefaultReminderInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule adds a daily trigger at the habit's reminder time. Habits with
// reminders disabled, without a time, or paused get no trigger.
func (s *Service) Schedule(ctx context.Context, habit models.Habit) (string, error) {
	t, ok, err := newTrigger(habit)
	if !ok || err != nil {
		return "", err
	}
	t.Handle = uuid.NewString()

	s.mu.Lock()
	s.triggers[t.Handle] = t
	count := len(s.triggers)
	s.mu.Unlock()

	metrics.SetRemindersScheduled(count)
	logger.Debug("Scheduled reminder", "habit", habit.ID, "time", t.Time, "handle", t.Handle)
	return t.Handle, nil
}

func newTrigger(habit models.Habit) (Trigger, bool, error) {
	n := habit.Notification
	if !n.Enabled || n.Time == "" || !habit.Active {
		return Trigger{}, false, nil
	}
	minutes, err := utils.ParseTimeToMinutes(n.Time)
	if err != nil {
		return Trigger{}, false, errors.Invalid("notification.time", "expected HH:MM, got %q", n.Time)
	}
	return Trigger{
		HabitID:   habit.ID,
		HabitName: habit.Name,
		Time:      n.Time,
		minutes:   minutes,
	}, true, nil
}

// Cancel removes a trigger. Empty and unknown handles are ignored.
func (s *Service) Cancel(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.triggers, handle)
	delete(s.fired, handle)
	count := len(s.triggers)
	s.mu.Unlock()

	metrics.SetRemindersScheduled(count)
	return nil
}

// Sync replaces the scheduled triggers with one per schedulable habit and
// returns each habit's handle. A habit keeps its stored handle, or the handle
// of a live trigger at the same time, so syncing unchanged habits yields the
// same handles and keeps today's deliveries.
func (s *Service) Sync(ctx context.Context, habits []models.Habit) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[string]string, len(s.triggers)) // habit id + time -> handle
	for handle, t := range s.triggers {
		live[t.HabitID+"@"+t.Time] = handle
	}

	triggers := make(map[string]Trigger, len(habits))
	fired := make(map[string]string)
	handles := make(map[string]string)
	for _, h := range habits {
		t, ok, err := newTrigger(h)
		if err != nil {
			logger.Warn("Skipping reminder", "habit", h.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		t.Handle = h.Notification.Handle
		if _, taken := triggers[t.Handle]; t.Handle == "" || taken {
			t.Handle = live[h.ID+"@"+t.Time]
		}
		if _, taken := triggers[t.Handle]; t.Handle == "" || taken {
			t.Handle = uuid.NewString()
		}
		triggers[t.Handle] = t
		if prev, ok := s.triggers[t.Handle]; ok && prev.Time == t.Time {
			if day, ok := s.fired[t.Handle]; ok {
				fired[t.Handle] = day
			}
		}
		handles[h.ID] = t.Handle
	}
	s.triggers = triggers
	s.fired = fired

	metrics.SetRemindersScheduled(len(triggers))
	logger.Debug("Reminders synced", "scheduled", len(triggers))
	return handles, nil
}

// Triggers lists the scheduled triggers ordered by time of day.
func (s *Service) Triggers() []Trigger {
	s.mu.Lock()
	out := make([]Trigger, 0, len(s.triggers))
	for _, t := range s.triggers {
		out = append(out, t)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].minutes != out[j].minutes {
			return out[i].minutes < out[j].minutes
		}
		return out[i].HabitName < out[j].HabitName
	})
	return out
}

// Due returns the triggers set for now's minute that have not fired today.
func (s *Service) Due(now time.Time) []Trigger {
	local := now.In(s.loc)
	minute := local.Hour()*60 + local.Minute()
	today := utils.DateKey(local)

	var due []Trigger
	for _, t := range s.Triggers() {
		s.mu.Lock()
		firedOn := s.fired[t.Handle]
		s.mu.Unlock()
		if t.minutes == minute && firedOn != today {
			due = append(due, t)
		}
	}
	return due
}

// Fire delivers every trigger due at now and returns how many were sent.
// A failed delivery is logged and retried on the next tick of the same minute.
func (s *Service) Fire(ctx context.Context, now time.Time) int {
	today := utils.DateKey(now.In(s.loc))
	sent := 0
	for _, t := range s.Due(now) {
		err := s.notifier.Notify(ctx, Message(t.HabitName))
		metrics.IncrementReminderDelivered(err)
		if err != nil {
			logger.Error("Failed to deliver reminder", "habit", t.HabitID, "error", err)
			continue
		}
		s.mu.Lock()
		if _, ok := s.triggers[t.Handle]; ok {
			s.fired[t.Handle] = today
		}
		s.mu.Unlock()
		sent++
		logger.Info("Delivered reminder", "habit", t.HabitID, "time", t.Time)
	}
	return sent
}

// Run checks for due reminders every interval until ctx is cancelled. With
// a source set, the triggers are resynced from it before each check.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	if s.source != nil {
		if _, err := s.Sync(ctx, s.source(ctx)); err != nil {
			logger.Warn("Failed to reload reminders", "error", err)
		}
	}
	s.Fire(ctx, s.now())
}
