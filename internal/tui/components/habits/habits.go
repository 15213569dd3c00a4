package habits

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/progress"
	"github.com/julianstephens/habitual/internal/tracker"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID string
}

type PauseHabitMsg struct {
	ID     string
	Active bool
}

type DeleteHabitMsg struct {
	ID   string
	Name string
}

type Item struct {
	Status tracker.HabitStatus
	Week   progress.Progress
}

func (i Item) Title() string {
	h := i.Status.Habit
	switch {
	case !h.Active:
		return "[PAUSED] " + h.Name
	case i.Status.Completed:
		return "✓ " + h.Name
	default:
		return "○ " + h.Name
	}
}

func (i Item) Description() string {
	h := i.Status.Habit
	desc := fmt.Sprintf("%s · week %d/%d", frequency(h), i.Week.Completed, i.Week.Total)
	if h.Notification.Enabled && h.Notification.Time != "" {
		desc += " · ⏰ " + h.Notification.Time
	}
	return desc
}

func (i Item) FilterValue() string { return i.Status.Habit.Name }

func frequency(h models.Habit) string {
	if h.Frequency == models.FrequencyWeekly {
		return fmt.Sprintf("%dx/week", h.TimesPerWeek)
	}
	return "daily"
}

type KeyMap struct {
	Add    key.Binding
	Toggle key.Binding
	Pause  key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "m"),
			key.WithHelp("space/m", "toggle done"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause/resume"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
	date string
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Pause, keys.Delete}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{list: l, keys: keys}
}

// SetHabits replaces the list with today's statuses. weekly holds the
// weekly progress per habit id.
func (m *Model) SetHabits(date string, statuses []tracker.HabitStatus, weekly map[string]progress.Progress) {
	m.date = date
	items := make([]list.Item, len(statuses))
	for i, st := range statuses {
		items[i] = Item{Status: st, Week: weekly[st.Habit.ID]}
	}
	m.list.SetItems(items)
}

// Selected returns the highlighted item, if any.
func (m Model) Selected() (Item, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Toggle):
			if i, ok := m.Selected(); ok && i.Status.Habit.Active {
				return m, func() tea.Msg { return ToggleHabitMsg{ID: i.Status.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Pause):
			if i, ok := m.Selected(); ok {
				h := i.Status.Habit
				return m, func() tea.Msg { return PauseHabitMsg{ID: h.ID, Active: !h.Active} }
			}
		case key.Matches(msg, m.keys.Delete):
			if i, ok := m.Selected(); ok {
				h := i.Status.Habit
				return m, func() tea.Msg { return DeleteHabitMsg{ID: h.ID, Name: h.Name} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return fmt.Sprintf("Today, %s\n\n%s", m.date, m.list.View())
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height-2)
}

// Filtering reports whether the list is taking filter input.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
