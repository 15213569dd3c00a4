package storage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

// Registry persists the habit list under the habits key, in insertion order.
type Registry struct {
	store   kv.Store
	records *RecordLog
	opts    options
}

// NewRegistry returns a registry whose Delete cascades into records.
func NewRegistry(store kv.Store, records *RecordLog, opts ...Option) *Registry {
	return &Registry{store: store, records: records, opts: buildOptions(opts)}
}

func (r *Registry) load(ctx context.Context) ([]models.Habit, error) {
	raw, ok, err := r.store.Get(ctx, constants.HabitsKey)
	if err != nil {
		return nil, errors.Persistence("read", constants.HabitsKey, err)
	}
	habits := []models.Habit{}
	if !ok || strings.TrimSpace(raw) == "" {
		return habits, nil
	}
	if err := json.Unmarshal([]byte(raw), &habits); err != nil {
		return nil, errors.Persistence("decode", constants.HabitsKey, err)
	}
	if habits == nil {
		habits = []models.Habit{}
	}
	return habits, nil
}

func (r *Registry) save(ctx context.Context, habits []models.Habit) error {
	data, err := json.Marshal(habits)
	if err != nil {
		return errors.Persistence("encode", constants.HabitsKey, err)
	}
	if err := r.store.Set(ctx, constants.HabitsKey, string(data)); err != nil {
		return errors.Persistence("write", constants.HabitsKey, err)
	}
	return nil
}

// List returns every habit. Read failures are logged and yield an empty list.
func (r *Registry) List(ctx context.Context) []models.Habit {
	habits, err := r.load(ctx)
	if err != nil {
		logger.Error("Failed to load habits", "error", err)
		return []models.Habit{}
	}
	return habits
}

// Get returns the habit with the given id.
func (r *Registry) Get(ctx context.Context, id string) (models.Habit, bool) {
	for _, h := range r.List(ctx) {
		if h.ID == id {
			return h, true
		}
	}
	return models.Habit{}, false
}

// Add stores a new active habit built from draft. Nothing is stored if the
// current list cannot be read.
func (r *Registry) Add(ctx context.Context, draft models.HabitDraft) (models.Habit, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return models.Habit{}, err
	}

	habits, err := r.load(ctx)
	if err != nil {
		logger.Error("Failed to load habits", "error", err)
		return models.Habit{}, err
	}

	id, err := r.opts.newID()
	if err != nil {
		return models.Habit{}, err
	}
	h := models.Habit{
		ID:           id,
		Name:         draft.Name,
		Frequency:    draft.Frequency,
		TimesPerWeek: draft.TimesPerWeek,
		TargetDays:   draft.TargetDays,
		Notification: draft.Notification,
		CreatedAt:    r.opts.now().UTC().Truncate(time.Millisecond),
		Active:       true,
	}

	if err := r.save(ctx, append(habits, h)); err != nil {
		logger.Error("Failed to save habit", "name", h.Name, "error", err)
		return models.Habit{}, err
	}
	logger.Info("Added habit", "id", h.ID, "name", h.Name)
	return h, nil
}

// Update merges patch into the habit with the given id. It reports false,
// without writing, when no such habit exists.
func (r *Registry) Update(ctx context.Context, id string, patch models.HabitPatch) (bool, error) {
	habits, err := r.load(ctx)
	if err != nil {
		logger.Error("Failed to load habits", "error", err)
		return false, err
	}

	idx := indexOf(habits, id)
	if idx < 0 {
		return false, nil
	}

	merged := patch.Apply(habits[idx])
	if err := merged.Validate(); err != nil {
		return false, err
	}
	habits[idx] = merged

	if err := r.save(ctx, habits); err != nil {
		logger.Error("Failed to save habit", "id", id, "error", err)
		return false, err
	}
	logger.Debug("Updated habit", "id", id)
	return true, nil
}

// Delete removes the habit and then its records. The two writes are not
// atomic: if the second fails the habit is gone, true is returned with the
// error, and the orphaned records stay until validate --fix removes them.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	habits, err := r.load(ctx)
	if err != nil {
		logger.Error("Failed to load habits", "error", err)
		return false, err
	}

	idx := indexOf(habits, id)
	if idx < 0 {
		return false, nil
	}
	remaining := append(habits[:idx:idx], habits[idx+1:]...)

	if err := r.save(ctx, remaining); err != nil {
		logger.Error("Failed to delete habit", "id", id, "error", err)
		return false, err
	}
	logger.Info("Deleted habit", "id", id)

	if r.records != nil {
		if err := r.records.RemoveHabitRecords(ctx, id); err != nil {
			return true, err
		}
	}
	return true, nil
}

func indexOf(habits []models.Habit, id string) int {
	for i, h := range habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
