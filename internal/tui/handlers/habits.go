package handlers

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
	"github.com/julianstephens/habitual/internal/tui/state"
)

// HandleAddHabitState handles the add habit state
func HandleAddHabitState(m *state.Model, msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.FormError = ""
		m.State = constants.StateHabits
		return nil
	}

	form, cmd := m.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.Form = f
	}
	cmds = append(cmds, cmd)

	switch m.Form.State {
	case huh.StateCompleted:
		h, err := m.Tracker.CreateHabit(m.Ctx, HabitDraft(m.HabitForm))
		if err != nil {
			// Stay in the form so the user can fix the input or cancel with ESC.
			m.FormError = fmt.Sprintf("Failed to add habit: %v", err)
			m.Form.State = huh.StateNormal
			return tea.Batch(cmds...)
		}
		m.FormError = ""
		m.StatusMessage = "Added " + h.Name
		m.Refresh()
		m.State = constants.StateHabits
	case huh.StateAborted:
		m.FormError = ""
		m.State = constants.StateHabits
	}
	return tea.Batch(cmds...)
}

// HandleHabitMessages handles messages from the habits component
func HandleHabitMessages(m *state.Model, msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case habits.AddHabitMsg:
		m.HabitForm = &state.HabitFormModel{
			Frequency:    string(models.FrequencyDaily),
			TimesPerWeek: "3",
		}
		m.Form = NewHabitForm(m.HabitForm)
		m.FormError = ""
		m.State = constants.StateAddHabit
		return true, m.Form.Init()

	case habits.ToggleHabitMsg:
		done, err := m.Tracker.Toggle(m.Ctx, msg.ID)
		if err != nil {
			m.StatusMessage = fmt.Sprintf("Failed to update habit: %v", err)
			return true, nil
		}
		m.StatusMessage = "Marked not done"
		if done {
			m.StatusMessage = "Marked done"
		}
		m.Refresh()
		return true, nil

	case habits.PauseHabitMsg:
		h, err := m.Tracker.SetActive(m.Ctx, msg.ID, msg.Active)
		if err != nil {
			m.StatusMessage = fmt.Sprintf("Failed to update habit: %v", err)
			return true, nil
		}
		m.StatusMessage = "Paused " + h.Name
		if h.Active {
			m.StatusMessage = "Resumed " + h.Name
		}
		m.Refresh()
		return true, nil

	case habits.DeleteHabitMsg:
		m.HabitToDeleteID = msg.ID
		m.HabitToDeleteName = msg.Name
		m.State = constants.StateConfirmDelete
		return true, nil
	}
	return false, nil
}
