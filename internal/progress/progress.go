// Package progress computes completion statistics from the habit registry
// and the daily record log. Nothing is cached: every call reloads both.
package progress

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// HabitLister is the part of storage.Registry the aggregator reads.
type HabitLister interface {
	List(ctx context.Context) []models.Habit
}

// RecordLoader is the part of storage.RecordLog the aggregator reads.
type RecordLoader interface {
	LoadAll(ctx context.Context) (models.DailyRecords, error)
	Now() time.Time
}

// Progress is a completed/total ratio. Percentage is 0 when Total is 0.
type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

func newProgress(completed, total int) Progress {
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Percentage = float64(completed) / float64(total) * 100
	}
	return p
}

// DayStatus is one bar of the weekly chart.
type DayStatus struct {
	Date      string       `json:"date"`
	Weekday   time.Weekday `json:"weekday"`
	Completed bool         `json:"completed"`
}

type Aggregator struct {
	habits  HabitLister
	records RecordLoader
}

func New(habits HabitLister, records RecordLoader) *Aggregator {
	return &Aggregator{habits: habits, records: records}
}

func (a *Aggregator) load(ctx context.Context) models.DailyRecords {
	all, err := a.records.LoadAll(ctx)
	if err != nil {
		logger.Error("Failed to load daily records for progress", "error", err)
		return models.DailyRecords{}
	}
	return all
}

// WeeklyProgress looks at the 7 days ending today. Only days that have a
// record for the habit count toward the total.
func (a *Aggregator) WeeklyProgress(ctx context.Context, habitID string) Progress {
	return weekly(a.load(ctx), habitID, a.records.Now())
}

func weekly(all models.DailyRecords, habitID string, today time.Time) Progress {
	completed, total := 0, 0
	for _, date := range utils.LastNDays(today, constants.ProgressWeekDays) {
		rec, ok := all[date][habitID]
		if !ok {
			continue
		}
		total++
		if rec.Completed {
			completed++
		}
	}
	return newProgress(completed, total)
}

// MonthlyStats counts every logged date of the month toward the total.
// Unlike WeeklyProgress, dates without a record for the habit are included.
func (a *Aggregator) MonthlyStats(ctx context.Context, habitID string, year int, month time.Month) Progress {
	completed, total := 0, 0
	for date, day := range a.load(ctx) {
		y, m, ok := yearMonth(date)
		if !ok || y != year || m != month {
			continue
		}
		total++
		if day[habitID].Completed {
			completed++
		}
	}
	return newProgress(completed, total)
}

// yearMonth reads the first two dash separated fields of a date key.
func yearMonth(date string) (int, time.Month, bool) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return y, time.Month(m), true
}

// DailyCompletionRate is the share of habits completed on one day.
func DailyCompletionRate(day models.DayRecords, habitCount int) float64 {
	if habitCount <= 0 {
		return 0
	}
	return float64(day.CompletedCount()) / float64(habitCount) * 100
}

// Streak walks the dates with at least one completed record from newest to
// oldest. A date extends the streak only when its distance in calendar days
// from the previously accepted date (today, to start) equals the current
// streak length. The walk stops at the first date that does not.
//
// As a result today alone gives 1, today and yesterday give 2, and a third
// consecutive day does not extend the streak further; a streak that did not
// include today is 0.
func Streak(records models.DailyRecords, today time.Time) int {
	dates := make([]string, 0, len(records))
	for date, day := range records {
		if day.AnyCompleted() {
			dates = append(dates, date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	streak := 0
	current := today
	for _, date := range dates {
		recordDate, err := utils.ParseDateInLocation(date, today.Location())
		if err != nil {
			break
		}
		diff := utils.DaysBetween(current, recordDate)
		if diff < 0 {
			diff = -diff
		}
		if diff != streak {
			break
		}
		streak++
		current = recordDate
	}
	return streak
}

// Streak computes the streak over the current log, ignoring records of
// habits that no longer exist.
func (a *Aggregator) Streak(ctx context.Context) int {
	all := withoutOrphans(a.load(ctx), a.habits.List(ctx))
	return Streak(all, a.records.Now())
}

// WeekDays returns the last 7 days with whether the habit was completed.
func (a *Aggregator) WeekDays(ctx context.Context, habitID string) []DayStatus {
	all := a.load(ctx)
	today := a.records.Now()
	out := make([]DayStatus, 0, constants.ProgressWeekDays)
	for i := constants.ProgressWeekDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		date := utils.DateKey(d)
		out = append(out, DayStatus{
			Date:      date,
			Weekday:   d.Weekday(),
			Completed: all[date][habitID].Completed,
		})
	}
	return out
}

// withoutOrphans drops records of habit ids that are not in habits. Such
// records remain when a cascading delete was interrupted.
func withoutOrphans(all models.DailyRecords, habits []models.Habit) models.DailyRecords {
	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
	}
	out := make(models.DailyRecords, len(all))
	for date, day := range all {
		kept := make(models.DayRecords, len(day))
		for id, rec := range day {
			if known[id] {
				kept[id] = rec
			}
		}
		if len(kept) > 0 {
			out[date] = kept
		}
	}
	return out
}
