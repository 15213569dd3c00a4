package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/tui/state"
)

// Model is the root bubbletea model. Shared state lives in state.Model so
// the handlers can mutate it.
type Model struct {
	*state.Model
}

func NewModel(ctx context.Context, svc *tracker.Service) Model {
	return Model{Model: state.New(ctx, svc)}
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.Keys.Tab, m.Keys.Quit, m.Keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.Keys.Tab, m.Keys.ShiftTab, m.Keys.Quit, m.Keys.Help}
	navigation := []key.Binding{m.Keys.Up, m.Keys.Down}
	if m.State == constants.StateHabits {
		return [][]key.Binding{global, navigation, habitsHelp()}
	}
	return [][]key.Binding{global, navigation}
}

func (m Model) Init() tea.Cmd {
	return nil
}
