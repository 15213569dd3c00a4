package habits

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and all of its records."`
	Mark   HabitMarkCmd   `cmd:"" help:"Mark a habit as done for a day."`
	Today  HabitTodayCmd  `cmd:"" help:"Show today's habit status."`
}

type HabitAddCmd struct {
	Name   string `arg:"" help:"Habit name."`
	Weekly int    `short:"w" help:"Make the habit weekly with this many days per week (1-7)."`
	Target int    `short:"t" help:"Target days per week (defaults to the weekly count)."`
	Remind string `short:"r" help:"Daily reminder time (HH:MM)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	draft := models.HabitDraft{
		Name:       c.Name,
		Frequency:  models.FrequencyDaily,
		TargetDays: c.Target,
	}
	if c.Weekly > 0 {
		draft.Frequency = models.FrequencyWeekly
		draft.TimesPerWeek = c.Weekly
	}
	if c.Remind != "" {
		draft.Notification = models.Notification{Enabled: true, Time: c.Remind}
	}

	for _, h := range ctx.Tracker.Habits(ctx.Context()) {
		if strings.EqualFold(h.Name, strings.TrimSpace(c.Name)) {
			return fmt.Errorf("habit with name %q already exists", h.Name)
		}
	}

	h, err := ctx.Tracker.CreateHabit(ctx.Context(), draft)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added habit: %s (%s)\n", h.Name, h.ID)
	return nil
}

type HabitListCmd struct {
	JSON   bool `help:"Print habits as JSON."`
	Active bool `help:"Only list active habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits := ctx.Tracker.Habits(ctx.Context())
	if c.Active {
		habits = activeOnly(habits)
	}

	if c.JSON {
		data, err := json.MarshalIndent(habits, "", "  ")
		if err != nil {
			return err
		}
		ctx.Println(string(data))
		return nil
	}

	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	agg := ctx.Tracker.Progress()
	for _, h := range habits {
		status := ""
		if !h.Active {
			status = " [PAUSED]"
		}
		week := agg.WeeklyProgress(ctx.Context(), h.ID)
		ctx.Printf("%-36s  %-20s  %-9s  remind %-5s  week %d/%d%s\n",
			h.ID, h.Name, cli.FormatFrequency(h), cli.FormatReminder(h), week.Completed, week.Total, status)
	}
	return nil
}

func activeOnly(habits []models.Habit) []models.Habit {
	out := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		if h.Active {
			out = append(out, h)
		}
	}
	return out
}

type HabitEditCmd struct {
	Habit    string  `arg:"" help:"Habit id or name."`
	Name     *string `help:"New habit name."`
	Daily    bool    `help:"Switch to a daily habit." xor:"freq"`
	Weekly   *int    `short:"w" help:"Switch to weekly with this many days per week." xor:"freq"`
	Target   *int    `short:"t" help:"New target days per week."`
	Remind   *string `short:"r" help:"New reminder time (HH:MM)." xor:"remind"`
	NoRemind bool    `help:"Turn the reminder off." xor:"remind"`
	Active   *bool   `help:"Pause (false) or resume (true) the habit."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	patch := models.HabitPatch{
		Name:       c.Name,
		TargetDays: c.Target,
		Active:     c.Active,
	}
	if c.Daily {
		f := models.FrequencyDaily
		patch.Frequency = &f
	}
	if c.Weekly != nil {
		f := models.FrequencyWeekly
		patch.Frequency = &f
		patch.TimesPerWeek = c.Weekly
	}
	if c.Remind != nil {
		if !utils.ValidateTimeFormat(*c.Remind) {
			return fmt.Errorf("invalid reminder time %q (expected HH:MM)", *c.Remind)
		}
		n := models.Notification{Enabled: true, Time: *c.Remind}
		patch.Notification = &n
	}
	if c.NoRemind {
		n := h.Notification
		n.Enabled = false
		patch.Notification = &n
	}

	if patch.IsEmpty() {
		return fmt.Errorf("nothing to change")
	}

	updated, err := ctx.Tracker.EditHabit(ctx.Context(), h.ID, patch)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Updated habit: %s\n", updated.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete %q and all of its records?", h.Name))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}

	if err := ctx.Tracker.RemoveHabit(ctx.Context(), h.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted habit: %s\n", h.Name)
	return nil
}

type HabitMarkCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Date  string `short:"d" help:"Date in YYYY-MM-DD format (default: today)."`
	Undo  bool   `short:"u" help:"Mark as not done instead."`
	Photo string `help:"Photo URI to attach to the record."`
}

func (c *HabitMarkCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	var photo *string
	if c.Photo != "" {
		photo = &c.Photo
	}
	if err := ctx.Tracker.Mark(ctx.Context(), h.ID, c.Date, !c.Undo, photo); err != nil {
		return err
	}

	day := c.Date
	if day == "" {
		day = ctx.Tracker.Records().Today()
	}
	if c.Undo {
		ctx.Printf("Unmarked habit %q for %s\n", h.Name, day)
	} else {
		ctx.Printf("✓ Marked habit %q for %s\n", h.Name, day)
	}
	return nil
}

type HabitTodayCmd struct {
	Date string `short:"d" help:"Show another day (YYYY-MM-DD)."`
}

func (c *HabitTodayCmd) Run(ctx *cli.Context) error {
	day := c.Date
	if day == "" {
		day = ctx.Tracker.Records().Today()
	} else if _, err := utils.ParseDateKey(day); err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", day)
	}

	statuses := ctx.Tracker.Day(ctx.Context(), day)
	if len(statuses) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	ctx.Printf("Habits for %s:\n", day)
	done := 0
	for _, st := range statuses {
		mark := "[ ]"
		if st.Completed {
			mark = "[x]"
			done++
		}
		paused := ""
		if !st.Habit.Active {
			paused = " (paused)"
		}
		ctx.Printf("  %s %s%s\n", mark, st.Habit.Name, paused)
	}
	ctx.Printf("\n%d/%d done\n", done, len(statuses))
	return nil
}
