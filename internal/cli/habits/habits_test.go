package habits

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/kv/memory"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/storage"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Backend = config.BackendMemory
	cfg.Timezone = "UTC"
	cfg.Backups.Dir = t.TempDir()

	var out bytes.Buffer
	ctx := cli.NewContext(context.Background(), cfg, memory.New(), notifier.NewWriter(&out),
		storage.WithClock(func() time.Time { return testNow }))
	ctx.Out = &out
	return ctx, &out
}

func addHabit(t *testing.T, ctx *cli.Context, cmd HabitAddCmd) models.Habit {
	t.Helper()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("habit add %q failed: %v", cmd.Name, err)
	}
	h, err := ctx.ResolveHabit(cmd.Name)
	if err != nil {
		t.Fatalf("added habit not found: %v", err)
	}
	return h
}

func TestHabitAddCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	h := addHabit(t, ctx, HabitAddCmd{Name: "Gym", Weekly: 3, Remind: "18:00"})
	if h.Frequency != models.FrequencyWeekly || h.TimesPerWeek != 3 || h.TargetDays != 3 {
		t.Errorf("weekly habit = %+v", h)
	}
	if !h.Notification.Enabled || h.Notification.Time != "18:00" || h.Notification.Handle == "" {
		t.Errorf("reminder not scheduled: %+v", h.Notification)
	}
	if !strings.Contains(out.String(), "Added habit: Gym") {
		t.Errorf("output = %q", out.String())
	}

	daily := addHabit(t, ctx, HabitAddCmd{Name: "Read", Target: 5})
	if daily.Frequency != models.FrequencyDaily || daily.TimesPerWeek != 7 || daily.TargetDays != 5 {
		t.Errorf("daily habit = %+v", daily)
	}
}

func TestHabitAddCmd_Rejects(t *testing.T) {
	ctx, _ := setupTestContext(t)
	addHabit(t, ctx, HabitAddCmd{Name: "Read"})

	tests := []struct {
		name string
		cmd  HabitAddCmd
	}{
		{"duplicate name ignoring case", HabitAddCmd{Name: " read "}},
		{"empty name", HabitAddCmd{Name: "  "}},
		{"bad reminder", HabitAddCmd{Name: "Walk", Remind: "7pm"}},
		{"too many days", HabitAddCmd{Name: "Walk", Weekly: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected error")
			}
		})
	}
	if n := len(ctx.Tracker.Habits(ctx.Context())); n != 1 {
		t.Errorf("rejected adds stored habits: %d", n)
	}
}

func TestHabitListCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&HabitListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No habits found.") {
		t.Errorf("empty list output = %q", out.String())
	}

	h := addHabit(t, ctx, HabitAddCmd{Name: "Read"})
	if err := ctx.Tracker.Mark(ctx.Context(), h.ID, "", true, nil); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := (&HabitListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Read") || !strings.Contains(out.String(), "week 1/1") {
		t.Errorf("list output = %q", out.String())
	}

	out.Reset()
	if err := (&HabitListCmd{JSON: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	var habits []models.Habit
	if err := json.Unmarshal(out.Bytes(), &habits); err != nil {
		t.Fatalf("list --json is not valid JSON: %v\n%s", err, out.String())
	}
	if len(habits) != 1 || habits[0].ID != h.ID {
		t.Errorf("json habits = %+v", habits)
	}
}

func TestHabitListCmd_Active(t *testing.T) {
	ctx, out := setupTestContext(t)
	addHabit(t, ctx, HabitAddCmd{Name: "Read"})
	paused := addHabit(t, ctx, HabitAddCmd{Name: "Swim"})
	if _, err := ctx.Tracker.SetActive(ctx.Context(), paused.ID, false); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cmd  HabitListCmd
		want []string
	}{
		{name: "all", cmd: HabitListCmd{}, want: []string{"Read", "Swim"}},
		{name: "active", cmd: HabitListCmd{Active: true}, want: []string{"Read"}},
		{name: "active json", cmd: HabitListCmd{Active: true, JSON: true}, want: []string{"Read"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			if err := tt.cmd.Run(ctx); err != nil {
				t.Fatal(err)
			}
			var names []string
			if tt.cmd.JSON {
				var habits []models.Habit
				if err := json.Unmarshal(out.Bytes(), &habits); err != nil {
					t.Fatalf("invalid JSON: %v\n%s", err, out.String())
				}
				for _, h := range habits {
					names = append(names, h.Name)
				}
			} else {
				for _, name := range []string{"Read", "Swim"} {
					if strings.Contains(out.String(), name) {
						names = append(names, name)
					}
				}
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("listed %v, want %v", names, tt.want)
			}
		})
	}

	if _, err := ctx.Tracker.SetActive(ctx.Context(), paused.ID, true); err != nil {
		t.Fatal(err)
	}
	all := ctx.Tracker.Habits(ctx.Context())
	if _, err := ctx.Tracker.SetActive(ctx.Context(), all[0].ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Tracker.SetActive(ctx.Context(), all[1].ID, false); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := (&HabitListCmd{Active: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No habits found.") {
		t.Errorf("output with no active habits = %q", out.String())
	}
}

func TestHabitEditCmd(t *testing.T) {
	ctx, _ := setupTestContext(t)
	h := addHabit(t, ctx, HabitAddCmd{Name: "Read", Remind: "21:00"})

	name := "Read a book"
	weekly := 4
	if err := (&HabitEditCmd{Habit: h.ID, Name: &name, Weekly: &weekly}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	got, _ := ctx.Tracker.Find(ctx.Context(), h.ID)
	if got.Name != name || got.Frequency != models.FrequencyWeekly || got.TimesPerWeek != 4 {
		t.Errorf("edited habit = %+v", got)
	}

	if err := (&HabitEditCmd{Habit: "read a book", NoRemind: true}).Run(ctx); err != nil {
		t.Fatalf("edit by name failed: %v", err)
	}
	got, _ = ctx.Tracker.Find(ctx.Context(), h.ID)
	if got.Notification.Enabled || got.Notification.Handle != "" {
		t.Errorf("reminder still on: %+v", got.Notification)
	}
	if len(ctx.Reminders.Triggers()) != 0 {
		t.Errorf("trigger left behind: %+v", ctx.Reminders.Triggers())
	}

	if err := (&HabitEditCmd{Habit: h.ID}).Run(ctx); err == nil {
		t.Error("empty edit should fail")
	}
	bad := "25:00"
	if err := (&HabitEditCmd{Habit: h.ID, Remind: &bad}).Run(ctx); err == nil {
		t.Error("invalid reminder time should fail")
	}
	if err := (&HabitEditCmd{Habit: "missing", Name: &name}).Run(ctx); err == nil {
		t.Error("unknown habit should fail")
	}
}

func TestHabitDeleteCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	h := addHabit(t, ctx, HabitAddCmd{Name: "Read"})
	if err := ctx.Tracker.Mark(ctx.Context(), h.ID, "2024-01-09", true, nil); err != nil {
		t.Fatal(err)
	}

	ctx.In = strings.NewReader("n\n")
	if err := (&HabitDeleteCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Delete cancelled.") {
		t.Errorf("output = %q", out.String())
	}
	if len(ctx.Tracker.Habits(ctx.Context())) != 1 {
		t.Fatal("habit deleted without confirmation")
	}

	ctx.In = strings.NewReader("yes\n")
	if err := (&HabitDeleteCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Tracker.Habits(ctx.Context())) != 0 {
		t.Error("habit not deleted")
	}
	if recs := ctx.Tracker.Records().RecordsForDate(ctx.Context(), "2024-01-09"); len(recs) != 0 {
		t.Errorf("records not removed: %+v", recs)
	}
}

func TestHabitMarkCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	h := addHabit(t, ctx, HabitAddCmd{Name: "Read"})

	if err := (&HabitMarkCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !ctx.Tracker.Records().RecordsForDate(ctx.Context(), "2024-01-10")[h.ID].Completed {
		t.Error("today not marked")
	}
	if !strings.Contains(out.String(), `Marked habit "Read" for 2024-01-10`) {
		t.Errorf("output = %q", out.String())
	}

	if err := (&HabitMarkCmd{Habit: h.ID, Date: "2024-01-05", Photo: "file:///p.jpg"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	rec := ctx.Tracker.Records().RecordsForDate(ctx.Context(), "2024-01-05")[h.ID]
	if !rec.Completed || rec.Photo == nil || *rec.Photo != "file:///p.jpg" {
		t.Errorf("record = %+v", rec)
	}

	if err := (&HabitMarkCmd{Habit: h.ID, Undo: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.Tracker.Records().RecordsForDate(ctx.Context(), "2024-01-10")[h.ID].Completed {
		t.Error("undo did not clear today")
	}

	if err := (&HabitMarkCmd{Habit: h.ID, Date: "10/01/2024"}).Run(ctx); err == nil {
		t.Error("bad date should fail")
	}
}

func TestHabitTodayCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	read := addHabit(t, ctx, HabitAddCmd{Name: "Read"})
	addHabit(t, ctx, HabitAddCmd{Name: "Run"})
	if err := ctx.Tracker.Mark(ctx.Context(), read.ID, "", true, nil); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := (&HabitTodayCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{"Habits for 2024-01-10", "[x] Read", "[ ] Run", "1/2 done"} {
		if !strings.Contains(s, want) {
			t.Errorf("today output missing %q:\n%s", want, s)
		}
	}

	if err := (&HabitTodayCmd{Date: "yesterday"}).Run(ctx); err == nil {
		t.Error("bad date should fail")
	}
}
