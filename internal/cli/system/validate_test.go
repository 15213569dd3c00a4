package system

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

func TestValidateCmd_Clean(t *testing.T) {
	env := setupTestContext(t)
	if _, err := env.ctx.Tracker.CreateHabit(env.ctx.Context(), models.HabitDraft{Name: "Read"}); err != nil {
		t.Fatal(err)
	}

	if err := (&ValidateCmd{}).Run(env.ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.out.String(), "✓ No conflicts detected.") {
		t.Errorf("output = %q", env.out.String())
	}
}

func TestValidateCmd_ReportsWithoutFix(t *testing.T) {
	env := setupTestContext(t)
	raw := `{"2024-01-09":{},"2024-01-10":{"ghost":{"completed":true}}}`
	env.store.Set(env.ctx.Context(), constants.DailyRecordsKey, raw)

	if err := (&ValidateCmd{}).Run(env.ctx); err == nil {
		t.Fatal("expected conflicts to fail validation")
	}
	s := env.out.String()
	if !strings.Contains(s, "Records for deleted habit ghost") || !strings.Contains(s, "2 conflict(s) can be fixed with --fix") {
		t.Errorf("report:\n%s", s)
	}
	if v, _ := env.store.Raw(constants.DailyRecordsKey); v != raw {
		t.Error("validate without --fix changed the data")
	}
}

func TestValidateCmd_Fix(t *testing.T) {
	env := setupTestContext(t)
	h, err := env.ctx.Tracker.CreateHabit(env.ctx.Context(), models.HabitDraft{Name: "Read"})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.ctx.Tracker.Mark(env.ctx.Context(), h.ID, "2024-01-10", true, nil); err != nil {
		t.Fatal(err)
	}
	records, err := env.ctx.Tracker.Records().LoadAll(env.ctx.Context())
	if err != nil {
		t.Fatal(err)
	}
	records["2024-01-10"]["ghost"] = models.CompletionRecord{Completed: true}
	records["2024-01-08"] = models.DayRecords{}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	env.store.Set(env.ctx.Context(), constants.DailyRecordsKey, string(data))

	if err := (&ValidateCmd{Fix: true}).Run(env.ctx); err != nil {
		t.Fatalf("fix failed: %v\n%s", err, env.out.String())
	}
	s := env.out.String()
	if !strings.Contains(s, "Removed records for deleted habit ghost") || !strings.Contains(s, "✓ All conflicts fixed.") {
		t.Errorf("fix output:\n%s", s)
	}

	after, err := env.ctx.Tracker.Records().LoadAll(env.ctx.Context())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := after["2024-01-08"]; ok {
		t.Error("empty date not pruned")
	}
	if !after["2024-01-10"][h.ID].Completed {
		t.Error("valid record lost")
	}

	backups, err := env.ctx.Backups.ListBackups()
	if err != nil || len(backups) != 1 {
		t.Errorf("expected one automatic backup, got %d (%v)", len(backups), err)
	}
}
