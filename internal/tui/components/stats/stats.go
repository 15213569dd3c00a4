package stats

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/progress"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(10)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Width(22)

	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)
)

type Model struct {
	viewport viewport.Model
	Overview progress.Overview
	// Week holds the last seven days per habit id, oldest first.
	Week map[string][]progress.DayStatus
}

func New(width, height int) Model {
	return Model{
		viewport: viewport.New(width, height),
		Week:     make(map[string][]progress.DayStatus),
	}
}

func (m *Model) SetData(ov progress.Overview, week map[string][]progress.DayStatus) {
	m.Overview = ov
	m.Week = week
	m.viewport.SetContent(m.render())
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(m.render())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m Model) render() string {
	ov := m.Overview
	if ov.HabitCount == 0 {
		return "No habits yet. Add one on the Habits tab."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Today, "+ov.Date) + "\n\n")
	b.WriteString(labelStyle.Render("Done") + fmt.Sprintf("%d/%d (%.0f%%)\n", ov.CompletedToday, ov.HabitCount, ov.CompletionRate))
	b.WriteString(labelStyle.Render("Streak") + fmt.Sprintf("%d\n", ov.Streak))
	if ov.Best != nil {
		b.WriteString(labelStyle.Render("Best") + highlightStyle.Render(fmt.Sprintf("%s (%.0f%%)", ov.Best.Habit.Name, ov.Best.Rate)) + "\n")
	}
	if w := ov.Improve(); w != nil {
		b.WriteString(labelStyle.Render("Improve") + highlightStyle.Render(fmt.Sprintf("%s (%.0f%%)", w.Habit.Name, w.Rate)) + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("Last 7 days") + "\n\n")
	for _, hr := range ov.Habits {
		b.WriteString(nameStyle.Render(hr.Habit.Name))
		for _, d := range m.Week[hr.Habit.ID] {
			if d.Completed {
				b.WriteString(doneStyle.Render("■ "))
			} else {
				b.WriteString(missStyle.Render("□ "))
			}
		}
		b.WriteString(fmt.Sprintf(" %3.0f%%\n", hr.Rate))
	}
	return b.String()
}
