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
	"github.com/julianstephens/habitual/internal/utils"
)

// RecordLog persists completion records under the daily_records key. Every
// call reads the whole log, changes it and writes it back.
type RecordLog struct {
	store kv.Store
	opts  options
}

func NewRecordLog(store kv.Store, opts ...Option) *RecordLog {
	return &RecordLog{store: store, opts: buildOptions(opts)}
}

// Location returns the timezone used for "today".
func (l *RecordLog) Location() *time.Location {
	return l.opts.loc
}

// Now returns the current time in the log's timezone.
func (l *RecordLog) Now() time.Time {
	return l.opts.now().In(l.opts.loc)
}

// Today returns today's date key.
func (l *RecordLog) Today() string {
	return utils.DateKey(l.Now())
}

// LoadAll returns the complete log. A log that was never written is empty.
func (l *RecordLog) LoadAll(ctx context.Context) (models.DailyRecords, error) {
	raw, ok, err := l.store.Get(ctx, constants.DailyRecordsKey)
	if err != nil {
		return nil, errors.Persistence("read", constants.DailyRecordsKey, err)
	}
	records := make(models.DailyRecords)
	if !ok || strings.TrimSpace(raw) == "" {
		return records, nil
	}
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, errors.Persistence("decode", constants.DailyRecordsKey, err)
	}
	if records == nil {
		records = make(models.DailyRecords)
	}
	return records, nil
}

func (l *RecordLog) save(ctx context.Context, records models.DailyRecords) error {
	data, err := json.Marshal(records)
	if err != nil {
		return errors.Persistence("encode", constants.DailyRecordsKey, err)
	}
	if err := l.store.Set(ctx, constants.DailyRecordsKey, string(data)); err != nil {
		return errors.Persistence("write", constants.DailyRecordsKey, err)
	}
	return nil
}

// RecordsForDate returns the records of one day keyed by habit id. Unknown
// dates and read failures yield an empty map; failures are logged.
func (l *RecordLog) RecordsForDate(ctx context.Context, date string) models.DayRecords {
	records, err := l.LoadAll(ctx)
	if err != nil {
		logger.Error("Failed to load daily records", "date", date, "error", err)
		return models.DayRecords{}
	}
	day := records[date]
	out := make(models.DayRecords, len(day))
	for id, r := range day {
		out[id] = r
	}
	return out
}

// MarkCompletion sets the record of habitID on date, replacing any previous
// one. Completed records are stamped with the current time.
func (l *RecordLog) MarkCompletion(ctx context.Context, habitID, date string, completed bool, photo *string) error {
	if strings.TrimSpace(habitID) == "" {
		return errors.Invalid("habitId", "must not be empty")
	}
	if _, err := utils.ParseDateKey(date); err != nil {
		return errors.Invalid("date", "expected YYYY-MM-DD, got %q", date)
	}

	records, err := l.LoadAll(ctx)
	if err != nil {
		logger.Error("Failed to load daily records", "habit", habitID, "date", date, "error", err)
		return err
	}

	rec := models.CompletionRecord{
		Completed: completed,
		Photo:     photo,
		Extra:     records[date][habitID].Extra,
	}
	if completed {
		ts := l.opts.now().UTC().Truncate(time.Millisecond)
		rec.Timestamp = &ts
	}

	if records[date] == nil {
		records[date] = make(models.DayRecords)
	}
	records[date][habitID] = rec

	if err := l.save(ctx, records); err != nil {
		logger.Error("Failed to save completion", "habit", habitID, "date", date, "error", err)
		return err
	}
	logger.Debug("Marked completion", "habit", habitID, "date", date, "completed", completed)
	return nil
}

// MarkToday marks habitID for today's date.
func (l *RecordLog) MarkToday(ctx context.Context, habitID string, completed bool, photo *string) error {
	return l.MarkCompletion(ctx, habitID, l.Today(), completed, photo)
}

// RemoveHabitRecords deletes every record of habitID and drops dates left
// without records. Nothing is written when no date changes.
func (l *RecordLog) RemoveHabitRecords(ctx context.Context, habitID string) error {
	records, err := l.LoadAll(ctx)
	if err != nil {
		logger.Error("Failed to load daily records", "habit", habitID, "error", err)
		return err
	}

	changed := false
	for date, day := range records {
		if _, ok := day[habitID]; ok {
			delete(day, habitID)
			changed = true
		}
		if len(day) == 0 {
			delete(records, date)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := l.save(ctx, records); err != nil {
		logger.Error("Failed to remove habit records", "habit", habitID, "error", err)
		return err
	}
	return nil
}

// PruneEmptyDates drops dates that hold no records and returns how many were
// removed.
func (l *RecordLog) PruneEmptyDates(ctx context.Context) (int, error) {
	records, err := l.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for date, day := range records {
		if len(day) == 0 {
			delete(records, date)
			pruned++
		}
	}
	if pruned == 0 {
		return 0, nil
	}
	if err := l.save(ctx, records); err != nil {
		return 0, err
	}
	logger.Debug("Pruned empty dates", "count", pruned)
	return pruned, nil
}
