package handlers

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/tui/state"
)

// HandleConfirmDeleteState handles the delete confirmation state
func HandleConfirmDeleteState(m *state.Model, msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		if m.HabitToDeleteID != "" {
			if err := m.Tracker.RemoveHabit(m.Ctx, m.HabitToDeleteID); err != nil {
				m.StatusMessage = fmt.Sprintf("Failed to delete habit: %v", err)
			} else {
				m.StatusMessage = "Deleted " + m.HabitToDeleteName
			}
			m.Refresh()
		}
	case "n", "N", "esc":
	default:
		return nil
	}
	m.HabitToDeleteID = ""
	m.HabitToDeleteName = ""
	m.State = constants.StateHabits
	return nil
}
