package stats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
)

type StatsCmd struct {
	Week     StatsWeekCmd     `cmd:"" help:"Show the last seven days of a habit."`
	Month    StatsMonthCmd    `cmd:"" help:"Show a habit's completion for a month."`
	Streak   StatsStreakCmd   `cmd:"" help:"Show the current streak across all habits."`
	Overview StatsOverviewCmd `cmd:"" help:"Show today's summary." default:"1"`
}

type StatsWeekCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

func (c *StatsWeekCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	agg := ctx.Tracker.Progress()
	p := agg.WeeklyProgress(ctx.Context(), h.ID)

	ctx.Printf("%s, last 7 days\n\n", h.Name)
	for _, d := range agg.WeekDays(ctx.Context(), h.ID) {
		mark := "·"
		if d.Completed {
			mark = "✓"
		}
		ctx.Printf("  %s %s  %s\n", d.Weekday.String()[:3], d.Date, mark)
	}
	ctx.Printf("\n%d/%d days (%.0f%%)\n", p.Completed, p.Total, p.Percentage)
	return nil
}

type StatsMonthCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Month string `help:"Month in YYYY-MM format (default: this month)."`
}

func (c *StatsMonthCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	year, month := ctx.Tracker.Records().Now().Year(), ctx.Tracker.Records().Now().Month()
	if c.Month != "" {
		t, err := time.Parse("2006-01", c.Month)
		if err != nil {
			return fmt.Errorf("invalid month %q (expected YYYY-MM)", c.Month)
		}
		year, month = t.Year(), t.Month()
	}

	p := ctx.Tracker.Progress().MonthlyStats(ctx.Context(), h.ID, year, month)
	ctx.Printf("%s, %s %d: %d/%d days recorded as done (%.0f%%)\n",
		h.Name, month, year, p.Completed, p.Total, p.Percentage)
	return nil
}

type StatsStreakCmd struct{}

func (c *StatsStreakCmd) Run(ctx *cli.Context) error {
	n := ctx.Tracker.Progress().Streak(ctx.Context())
	unit := "days"
	if n == 1 {
		unit = "day"
	}
	ctx.Printf("Current streak: %d %s\n", n, unit)
	return nil
}

type StatsOverviewCmd struct {
	JSON bool `help:"Print the overview as JSON."`
}

func (c *StatsOverviewCmd) Run(ctx *cli.Context) error {
	o := ctx.Tracker.Progress().Overview(ctx.Context())

	if c.JSON {
		data, err := json.MarshalIndent(o, "", "  ")
		if err != nil {
			return err
		}
		ctx.Println(string(data))
		return nil
	}

	ctx.Printf("Today (%s)\n", o.Date)
	ctx.Printf("  Done:     %d/%d (%.0f%%)\n", o.CompletedToday, o.HabitCount, o.CompletionRate)
	ctx.Printf("  Streak:   %d\n", o.Streak)
	if o.Best != nil {
		ctx.Printf("  Best:     %s (%.0f%%)\n", o.Best.Habit.Name, o.Best.Rate)
	}
	if w := o.Improve(); w != nil {
		ctx.Printf("  Weakest:  %s (%.0f%%)\n", w.Habit.Name, w.Rate)
	}
	if len(o.Habits) > 0 {
		ctx.Println()
		ctx.Println("Weekly rates")
		for _, hr := range o.Habits {
			bar := strings.Repeat("█", int(hr.Rate/10))
			ctx.Printf("  %-20s %-10s %3.0f%%\n", hr.Habit.Name, bar, hr.Rate)
		}
	}
	return nil
}
