package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
)

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var content string
	switch m.State {
	case constants.StateHabits:
		content = docStyle.Render(m.HabitsModel.View())
	case constants.StateProgress:
		content = docStyle.Render(m.StatsModel.View())
	case constants.StateAddHabit:
		content = m.viewForm()
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	var banner string
	if m.ValidationWarning != "" && m.State == constants.StateProgress {
		banner = bannerStyle.Render(m.ValidationWarning)
	}

	var status string
	if m.StatusMessage != "" {
		status = statusStyle.Render(m.StatusMessage)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		banner,
		content,
		status,
		m.Help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for _, tab := range []struct {
		title string
		state constants.SessionState
	}{
		{"Habits", constants.StateHabits},
		{"Progress", constants.StateProgress},
	} {
		active := m.State == tab.state ||
			(tab.state == constants.StateHabits && (m.State == constants.StateAddHabit || m.State == constants.StateConfirmDelete))
		if active {
			tabs = append(tabs, activeTabStyle.Render(tab.title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(tab.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewForm() string {
	if m.Form == nil {
		return ""
	}
	view := m.Form.View()
	if m.FormError != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, dangerStyle.Render(m.FormError))
	}
	return docStyle.Render(view)
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.Width, m.Height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q and all of its records?", m.HabitToDeleteName)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}

func habitsHelp() []key.Binding {
	k := habits.DefaultKeyMap()
	return []key.Binding{k.Add, k.Toggle, k.Pause, k.Delete}
}
