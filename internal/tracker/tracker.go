// Package tracker is the entry point the CLI and TUI use. It keeps habit
// reminders in step with the registry: scheduling on create, rescheduling on
// edit and cancelling on delete.
package tracker

import (
	"context"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/progress"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage"
)

type Service struct {
	registry  *storage.Registry
	records   *storage.RecordLog
	progress  *progress.Aggregator
	reminders reminder.Scheduler
}

func New(registry *storage.Registry, records *storage.RecordLog, reminders reminder.Scheduler) *Service {
	return &Service{
		registry:  registry,
		records:   records,
		progress:  progress.New(registry, records),
		reminders: reminders,
	}
}

func (s *Service) Registry() *storage.Registry    { return s.registry }
func (s *Service) Records() *storage.RecordLog    { return s.records }
func (s *Service) Progress() *progress.Aggregator { return s.progress }

// HabitStatus is a habit with its completion for one day.
type HabitStatus struct {
	Habit     models.Habit             `json:"habit"`
	Completed bool                     `json:"completed"`
	Record    *models.CompletionRecord `json:"record,omitempty"`
}

// Habits lists all habits.
func (s *Service) Habits(ctx context.Context) []models.Habit {
	return s.registry.List(ctx)
}

// Find returns the habit with id or ErrHabitNotFound.
func (s *Service) Find(ctx context.Context, id string) (models.Habit, error) {
	h, ok := s.registry.Get(ctx, id)
	if !ok {
		return models.Habit{}, errors.ErrHabitNotFound
	}
	return h, nil
}

// CreateHabit stores a new habit and schedules its reminder. A reminder that
// cannot be scheduled is logged; the habit is still created.
func (s *Service) CreateHabit(ctx context.Context, draft models.HabitDraft) (models.Habit, error) {
	h, err := s.registry.Add(ctx, draft)
	if err != nil {
		return models.Habit{}, err
	}
	return s.schedule(ctx, h, "")
}

// schedule creates the reminder of h and stores its handle in place of the
// stored one.
func (s *Service) schedule(ctx context.Context, h models.Habit, stored string) (models.Habit, error) {
	handle, err := s.reminders.Schedule(ctx, h)
	if err != nil {
		logger.Warn("Failed to schedule reminder", "habit", h.ID, "error", err)
		handle = ""
	}
	if handle == stored {
		h.Notification.Handle = handle
		return h, nil
	}

	n := h.Notification
	n.Handle = handle
	if _, err := s.registry.Update(ctx, h.ID, models.HabitPatch{Notification: &n}); err != nil {
		if cerr := s.reminders.Cancel(ctx, handle); cerr != nil {
			logger.Warn("Failed to cancel reminder", "handle", handle, "error", cerr)
		}
		return h, err
	}
	h.Notification = n
	return h, nil
}

// EditHabit applies patch and reschedules the reminder when the name, the
// reminder settings or the active flag changed.
func (s *Service) EditHabit(ctx context.Context, id string, patch models.HabitPatch) (models.Habit, error) {
	old, err := s.Find(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}
	if patch.Notification != nil {
		n := *patch.Notification
		n.Handle = old.Notification.Handle
		patch.Notification = &n
	}

	ok, err := s.registry.Update(ctx, id, patch)
	if err != nil {
		return models.Habit{}, err
	}
	if !ok {
		return models.Habit{}, errors.ErrHabitNotFound
	}
	updated := patch.Apply(old)

	if !reminderChanged(old, updated) {
		return updated, nil
	}
	if err := s.reminders.Cancel(ctx, old.Notification.Handle); err != nil {
		logger.Warn("Failed to cancel reminder", "habit", id, "error", err)
	}
	return s.schedule(ctx, updated, old.Notification.Handle)
}

func reminderChanged(a, b models.Habit) bool {
	return a.Name != b.Name || a.Active != b.Active ||
		a.Notification.Enabled != b.Notification.Enabled || a.Notification.Time != b.Notification.Time
}

// SetActive pauses or resumes a habit.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (models.Habit, error) {
	return s.EditHabit(ctx, id, models.HabitPatch{Active: &active})
}

// RemoveHabit deletes the habit and its records, then cancels its reminder.
// The reminder stays scheduled when the delete fails.
func (s *Service) RemoveHabit(ctx context.Context, id string) error {
	h, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.registry.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrHabitNotFound
	}
	if err := s.reminders.Cancel(ctx, h.Notification.Handle); err != nil {
		logger.Warn("Failed to cancel reminder", "habit", id, "error", err)
	}
	return nil
}

// Mark records completion of habit id on date; an empty date means today.
func (s *Service) Mark(ctx context.Context, id, date string, completed bool, photo *string) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	if date == "" {
		date = s.records.Today()
	}
	return s.records.MarkCompletion(ctx, id, date, completed, photo)
}

// Toggle flips today's completion of a habit and returns the new state.
func (s *Service) Toggle(ctx context.Context, id string) (bool, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return false, err
	}
	current := s.records.RecordsForDate(ctx, s.records.Today())[id]
	next := !current.Completed
	if err := s.records.MarkToday(ctx, id, next, current.Photo); err != nil {
		return current.Completed, err
	}
	return next, nil
}

// Day returns every habit with its completion on date (today when empty).
func (s *Service) Day(ctx context.Context, date string) []HabitStatus {
	if date == "" {
		date = s.records.Today()
	}
	habits := s.registry.List(ctx)
	day := s.records.RecordsForDate(ctx, date)

	out := make([]HabitStatus, 0, len(habits))
	for _, h := range habits {
		st := HabitStatus{Habit: h}
		if rec, ok := day[h.ID]; ok {
			r := rec
			st.Record = &r
			st.Completed = rec.Completed
		}
		out = append(out, st)
	}
	return out
}

// LoadReminders schedules every habit's reminder without writing to the
// store. It returns how many reminders are scheduled.
func (s *Service) LoadReminders(ctx context.Context) (int, error) {
	_, handles, err := s.syncAll(ctx)
	return len(handles), err
}

// SyncReminders reschedules every habit and stores the handles of habits
// whose handle changed. It returns how many reminders are scheduled.
func (s *Service) SyncReminders(ctx context.Context) (int, error) {
	habits, handles, err := s.syncAll(ctx)
	if err != nil {
		return 0, err
	}

	for _, h := range habits {
		handle := handles[h.ID]
		if handle == h.Notification.Handle {
			continue
		}
		n := h.Notification
		n.Handle = handle
		if _, err := s.registry.Update(ctx, h.ID, models.HabitPatch{Notification: &n}); err != nil {
			return len(handles), err
		}
	}
	return len(handles), nil
}

func (s *Service) syncAll(ctx context.Context) ([]models.Habit, map[string]string, error) {
	syncer, ok := s.reminders.(reminder.Syncer)
	if !ok {
		return nil, nil, errors.ErrSyncUnsupported
	}
	habits := s.registry.List(ctx)
	handles, err := syncer.Sync(ctx, habits)
	if err != nil {
		return nil, nil, err
	}
	return habits, handles, nil
}
