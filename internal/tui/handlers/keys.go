package handlers

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/tui/state"
)

// HandleGlobalKeys handles global key presses
func HandleGlobalKeys(m *state.Model, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.Quitting = true
		return true, tea.Quit
	case "?":
		m.Help.ShowAll = !m.Help.ShowAll
		return true, nil
	case "tab", "shift+tab":
		// Only two main views, so both directions swap them.
		switch m.State {
		case constants.StateHabits:
			m.State = constants.StateProgress
			m.Refresh()
		case constants.StateProgress:
			m.State = constants.StateHabits
		}
		return true, nil
	}
	return false, nil
}
