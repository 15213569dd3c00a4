package state

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/validation"
)

// UpdateValidationStatus runs validation and updates the warning message
func (m *Model) UpdateValidationStatus() {
	records, err := m.Tracker.Records().LoadAll(m.Ctx)
	if err != nil {
		m.ValidationWarning = "⚠ Validation unavailable"
		m.ValidationConflicts = nil
		return
	}

	result := validation.New().Validate(m.Tracker.Habits(m.Ctx), records)
	m.ValidationConflicts = result.Conflicts

	if result.HasConflicts() {
		m.ValidationWarning = fmt.Sprintf("⚠ %d validation warning(s), run 'habitual validate'", len(result.Conflicts))
	} else {
		m.ValidationWarning = ""
	}
}
