package progress

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

type fakeHabits []models.Habit

func (f fakeHabits) List(ctx context.Context) []models.Habit { return f }

type fakeRecords struct {
	all models.DailyRecords
	err error
	now time.Time
}

func (f *fakeRecords) LoadAll(ctx context.Context) (models.DailyRecords, error) {
	return f.all, f.err
}

func (f *fakeRecords) Now() time.Time { return f.now }

var today = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

func done() models.CompletionRecord    { return models.CompletionRecord{Completed: true} }
func notDone() models.CompletionRecord { return models.CompletionRecord{} }

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestWeeklyProgress(t *testing.T) {
	ctx := context.Background()
	recs := &fakeRecords{now: today, all: models.DailyRecords{
		"2024-01-10": {"h": done()},
		"2024-01-08": {"h": notDone()},
		"2024-01-05": {"h": done()},
		"2024-01-03": {"h": done()},   // outside the window
		"2024-01-09": {"other": done()}, // no record for h
	}}
	agg := New(fakeHabits{}, recs)

	got := agg.WeeklyProgress(ctx, "h")
	if got.Completed != 2 || got.Total != 3 || !approx(got.Percentage, 66.67) {
		t.Errorf("WeeklyProgress() = %+v, want 2/3 66.67", got)
	}
}

func TestWeeklyProgressNoRecords(t *testing.T) {
	ctx := context.Background()
	agg := New(fakeHabits{}, &fakeRecords{now: today, all: models.DailyRecords{}})
	if got := agg.WeeklyProgress(ctx, "h"); got != (Progress{}) {
		t.Errorf("WeeklyProgress() = %+v, want zero", got)
	}
}

func TestWeeklyProgressReadFault(t *testing.T) {
	ctx := context.Background()
	agg := New(fakeHabits{}, &fakeRecords{now: today, err: errors.New("boom")})
	if got := agg.WeeklyProgress(ctx, "h"); got != (Progress{}) {
		t.Errorf("WeeklyProgress() on read fault = %+v, want zero", got)
	}
}

func TestMonthlyStatsCountsDatesNotEntries(t *testing.T) {
	ctx := context.Background()
	all := models.DailyRecords{}
	for day := 1; day <= 10; day++ {
		date := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		if day <= 4 {
			all[date] = models.DayRecords{"h": done()}
		} else {
			all[date] = models.DayRecords{"other": done()}
		}
	}
	all["2024-02-01"] = models.DayRecords{"h": done()}
	all["2023-01-15"] = models.DayRecords{"h": done()}
	all["garbage"] = models.DayRecords{"h": done()}

	agg := New(fakeHabits{}, &fakeRecords{now: today, all: all})
	got := agg.MonthlyStats(ctx, "h", 2024, time.January)
	if got.Completed != 4 || got.Total != 10 || got.Percentage != 40 {
		t.Errorf("MonthlyStats() = %+v, want 4/10 40", got)
	}

	if got := agg.MonthlyStats(ctx, "h", 2024, time.March); got != (Progress{}) {
		t.Errorf("MonthlyStats() for empty month = %+v", got)
	}
}

func TestMonthlyAndWeeklyDisagreeOnTotals(t *testing.T) {
	ctx := context.Background()
	all := models.DailyRecords{
		"2024-01-09": {"other": done()},
		"2024-01-10": {"h": done()},
	}
	agg := New(fakeHabits{}, &fakeRecords{now: today, all: all})

	if w := agg.WeeklyProgress(ctx, "h"); w.Total != 1 || w.Percentage != 100 {
		t.Errorf("WeeklyProgress() = %+v, want 1/1", w)
	}
	if m := agg.MonthlyStats(ctx, "h", 2024, time.January); m.Total != 2 || m.Percentage != 50 {
		t.Errorf("MonthlyStats() = %+v, want 1/2", m)
	}
}

func TestDailyCompletionRate(t *testing.T) {
	day := models.DayRecords{"a": done(), "b": notDone(), "c": done()}
	tests := []struct {
		name  string
		count int
		want  float64
	}{
		{name: "four habits", count: 4, want: 50},
		{name: "no habits", count: 0, want: 0},
		{name: "negative count", count: -1, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyCompletionRate(day, tt.count); got != tt.want {
				t.Errorf("DailyCompletionRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates map[string]bool // date -> completed
		want  int
	}{
		{name: "no records", dates: map[string]bool{}, want: 0},
		{name: "today only", dates: map[string]bool{"2024-01-10": true}, want: 1},
		{name: "today and yesterday", dates: map[string]bool{"2024-01-10": true, "2024-01-09": true}, want: 2},
		{
			name:  "three consecutive days stop at two",
			dates: map[string]bool{"2024-01-10": true, "2024-01-09": true, "2024-01-08": true},
			want:  2,
		},
		{name: "yesterday only", dates: map[string]bool{"2024-01-09": true}, want: 0},
		{name: "today not completed", dates: map[string]bool{"2024-01-10": false, "2024-01-09": true}, want: 0},
		{name: "gap after today", dates: map[string]bool{"2024-01-10": true, "2024-01-07": true}, want: 1},
		{name: "future date breaks", dates: map[string]bool{"2024-01-11": true, "2024-01-10": true}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := models.DailyRecords{}
			for date, completed := range tt.dates {
				all[date] = models.DayRecords{"h": {Completed: completed}}
			}
			if got := Streak(all, today); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreakUsesCalendarDaysInLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 23:30 UTC on Jan 9 is Jan 10 in Tokyo.
	now := time.Date(2024, 1, 9, 23, 30, 0, 0, time.UTC).In(tokyo)
	all := models.DailyRecords{"2024-01-10": {"h": done()}, "2024-01-09": {"h": done()}}
	if got := Streak(all, now); got != 2 {
		t.Errorf("Streak() = %d, want 2", got)
	}
}

func TestAggregatorStreakIgnoresOrphans(t *testing.T) {
	ctx := context.Background()
	habits := fakeHabits{{ID: "h"}}
	all := models.DailyRecords{
		"2024-01-10": {"gone": done(), "h": notDone()},
	}
	agg := New(habits, &fakeRecords{now: today, all: all})
	if got := agg.Streak(ctx); got != 0 {
		t.Errorf("Streak() = %d, orphaned completions must not count", got)
	}
}

func TestWeekDays(t *testing.T) {
	ctx := context.Background()
	all := models.DailyRecords{
		"2024-01-04": {"h": done()},
		"2024-01-10": {"h": done()},
		"2024-01-09": {"h": notDone()},
	}
	agg := New(fakeHabits{}, &fakeRecords{now: today, all: all})
	days := agg.WeekDays(ctx, "h")
	if len(days) != 7 {
		t.Fatalf("WeekDays() len = %d, want 7", len(days))
	}
	if days[0].Date != "2024-01-04" || !days[0].Completed || days[0].Weekday != time.Thursday {
		t.Errorf("first day = %+v", days[0])
	}
	if days[5].Completed {
		t.Errorf("2024-01-09 should not be completed: %+v", days[5])
	}
	if days[6].Date != "2024-01-10" || !days[6].Completed {
		t.Errorf("last day = %+v", days[6])
	}
}
