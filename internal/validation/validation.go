// Package validation checks the stored habits and daily records for
// inconsistencies and repairs the ones that can be fixed safely.
package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictInvalidHabit       ConflictType = "invalid_habit"
	ConflictDuplicateHabitID   ConflictType = "duplicate_habit_id"
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictInvalidDate        ConflictType = "invalid_date"
	ConflictEmptyDate          ConflictType = "empty_date"
	ConflictOrphanedRecords    ConflictType = "orphaned_records"
)

// Conflict represents a detected problem in the stored data
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD key (if applicable)
	Items       []string // habit names involved
	HabitIDs    []string // ids involved (for auto-fixing)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Fixable returns the conflicts AutoFix can repair.
func (vr *ValidationResult) Fixable() []Conflict {
	var out []Conflict
	for _, c := range vr.Conflicts {
		if c.Type == ConflictOrphanedRecords || c.Type == ConflictEmptyDate {
			out = append(out, c)
		}
	}
	return out
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator validates habits and records for conflicts
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// Validate checks habits and records together. Conflicts are ordered by
// type and then by the data they concern, so reports are stable.
func (v *Validator) Validate(habits []models.Habit, records models.DailyRecords) ValidationResult {
	result := v.ValidateHabits(habits)
	result.Conflicts = append(result.Conflicts, v.ValidateRecords(records, habits).Conflicts...)
	return result
}

// ValidateHabits checks each habit against the data model and looks for
// duplicated ids and names. Names are compared case-insensitively.
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	for _, h := range habits {
		if err := h.Validate(); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidHabit,
				Description: fmt.Sprintf("Habit %q (%s) is invalid: %v", h.Name, h.ID, err),
				Items:       []string{h.Name},
				HabitIDs:    []string{h.ID},
			})
		}
	}

	idCount := make(map[string][]string)
	nameIDs := make(map[string][]string)
	nameDisplay := make(map[string]string)
	for _, h := range habits {
		if h.ID != "" {
			idCount[h.ID] = append(idCount[h.ID], h.Name)
		}
		key := strings.ToLower(strings.TrimSpace(h.Name))
		if key == "" {
			continue
		}
		nameIDs[key] = append(nameIDs[key], h.ID)
		if _, ok := nameDisplay[key]; !ok {
			nameDisplay[key] = h.Name
		}
	}

	for _, id := range sortedKeys(idCount) {
		names := idCount[id]
		if len(names) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitID,
				Description: fmt.Sprintf("Habit id %s is used by %d habits: %v", id, len(names), names),
				Items:       names,
				HabitIDs:    []string{id},
			})
		}
	}

	for _, key := range sortedKeys(nameIDs) {
		ids := nameIDs[key]
		if len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateHabitName,
				Description: fmt.Sprintf("Duplicate habit name: %q (IDs: %v)", nameDisplay[key], ids),
				Items:       []string{nameDisplay[key]},
				HabitIDs:    ids,
			})
		}
	}

	return result
}

// ValidateRecords checks date keys and looks for records whose habit is no
// longer in habits.
func (v *Validator) ValidateRecords(records models.DailyRecords, habits []models.Habit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
	}

	orphans := make(map[string][]string) // habit id -> dates
	for _, date := range sortedKeys(records) {
		day := records[date]
		if _, err := utils.ParseDateKey(date); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDate,
				Description: fmt.Sprintf("Records stored under invalid date %q", date),
				Date:        date,
			})
		}
		if len(day) == 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictEmptyDate,
				Description: fmt.Sprintf("%s: no records", date),
				Date:        date,
			})
			continue
		}
		for id := range day {
			if !known[id] {
				orphans[id] = append(orphans[id], date)
			}
		}
	}

	for _, id := range sortedKeys(orphans) {
		dates := orphans[id]
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictOrphanedRecords,
			Description: fmt.Sprintf("Records for deleted habit %s on %d day(s)", id, len(dates)),
			HabitIDs:    []string{id},
			Date:        dates[0],
		})
	}

	return result
}

// RecordFixer is the part of the record log AutoFix needs.
type RecordFixer interface {
	RemoveHabitRecords(ctx context.Context, habitID string) error
	PruneEmptyDates(ctx context.Context) (int, error)
}

// AutoFix removes orphaned records and empty dates. Other conflicts need a
// decision from the user and are left alone. A failed repair is reported in
// its FixAction and does not stop the others.
func AutoFix(ctx context.Context, conflicts []Conflict, fixer RecordFixer) []FixAction {
	actions := []FixAction{}
	pruneFor := -1

	for i, conflict := range conflicts {
		switch conflict.Type {
		case ConflictOrphanedRecords:
			for _, id := range conflict.HabitIDs {
				if err := fixer.RemoveHabitRecords(ctx, id); err != nil {
					actions = append(actions, FixAction{
						Action:         fmt.Sprintf("Failed to remove records for deleted habit %s: %v", id, err),
						SourceConflict: conflict,
					})
					continue
				}
				actions = append(actions, FixAction{
					Action:         fmt.Sprintf("Removed records for deleted habit %s", id),
					SourceConflict: conflict,
				})
			}
		case ConflictEmptyDate:
			if pruneFor < 0 {
				pruneFor = i
			}
		}
	}

	// Removing orphans may already have pruned the empty dates.
	if pruneFor >= 0 {
		n, err := fixer.PruneEmptyDates(ctx)
		switch {
		case err != nil:
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Failed to prune empty dates: %v", err),
				SourceConflict: conflicts[pruneFor],
			})
		case n > 0:
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Pruned %d empty date(s)", n),
				SourceConflict: conflicts[pruneFor],
			})
		}
	}

	return actions
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
