package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/tui/handlers"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.SetSize(msg.Width, msg.Height)
		m.Help.Width = msg.Width
		return m, nil
	}

	switch m.State {
	case constants.StateAddHabit:
		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		return m, handlers.HandleAddHabitState(m.Model, msg)
	case constants.StateConfirmDelete:
		return m, handlers.HandleConfirmDeleteState(m.Model, msg)
	}

	if handled, cmd := handlers.HandleHabitMessages(m.Model, msg); handled {
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		// Keys go to the list while it is filtering.
		if !m.HabitsModel.Filtering() {
			if handled, cmd := handlers.HandleGlobalKeys(m.Model, msg); handled {
				return m, cmd
			}
		}
		m.StatusMessage = ""
	}

	var cmd tea.Cmd
	switch m.State {
	case constants.StateHabits:
		m.HabitsModel, cmd = m.HabitsModel.Update(msg)
	case constants.StateProgress:
		m.StatsModel, cmd = m.StatsModel.Update(msg)
	}
	return m, cmd
}
