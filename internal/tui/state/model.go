package state

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/progress"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
	"github.com/julianstephens/habitual/internal/tui/components/stats"
	"github.com/julianstephens/habitual/internal/validation"
)

// HabitFormModel represents the form model for habit creation
type HabitFormModel struct {
	Name         string
	Frequency    string
	TimesPerWeek string
	TargetDays   string
	ReminderTime string
}

// Model represents the shared state for the TUI
type Model struct {
	Ctx                 context.Context
	Tracker             *tracker.Service
	State               constants.SessionState
	Keys                KeyMap
	Help                help.Model
	HabitsModel         habits.Model
	StatsModel          stats.Model
	Form                *huh.Form
	HabitForm           *HabitFormModel
	HabitToDeleteID     string
	HabitToDeleteName   string
	Quitting            bool
	Width               int
	Height              int
	ValidationWarning   string
	ValidationConflicts []validation.Conflict
	FormError           string
	StatusMessage       string
}

// New creates a new state Model
func New(ctx context.Context, svc *tracker.Service) *Model {
	m := &Model{
		Ctx:         ctx,
		Tracker:     svc,
		State:       constants.StateHabits,
		Keys:        DefaultKeyMap(),
		Help:        help.New(),
		HabitsModel: habits.New(0, 0),
		StatsModel:  stats.New(0, 0),
	}
	m.Refresh()
	return m
}

// Refresh reloads habits, today's records and the progress overview.
func (m *Model) Refresh() {
	agg := m.Tracker.Progress()
	statuses := m.Tracker.Day(m.Ctx, "")

	weekly := make(map[string]progress.Progress, len(statuses))
	week := make(map[string][]progress.DayStatus, len(statuses))
	for _, st := range statuses {
		weekly[st.Habit.ID] = agg.WeeklyProgress(m.Ctx, st.Habit.ID)
		week[st.Habit.ID] = agg.WeekDays(m.Ctx, st.Habit.ID)
	}

	m.HabitsModel.SetHabits(m.Tracker.Records().Today(), statuses, weekly)
	m.StatsModel.SetData(agg.Overview(m.Ctx), week)
	m.UpdateValidationStatus()
}

// SetSize resizes the components to the area left by tabs and help.
func (m *Model) SetSize(width, height int) {
	m.Width = width
	m.Height = height
	m.HabitsModel.SetSize(width-4, height-6)
	m.StatsModel.SetSize(width-4, height-6)
}
