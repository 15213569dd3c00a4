package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tui/state"
	"github.com/julianstephens/habitual/internal/utils"
)

// NewHabitForm creates a new form for adding habits
func NewHabitForm(fm *state.HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					if len(s) > constants.MaxHabitNameLen {
						return fmt.Errorf("habit name must be at most %d characters", constants.MaxHabitNameLen)
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Frequency").
				Options(
					huh.NewOption("Daily", string(models.FrequencyDaily)),
					huh.NewOption("Weekly", string(models.FrequencyWeekly)),
				).
				Value(&fm.Frequency),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Times per week (1-7)").
				Value(&fm.TimesPerWeek).
				Validate(validateDays),
			huh.NewInput().
				Title("Target days per week (blank = same)").
				Value(&fm.TargetDays).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validateDays(s)
				}),
		).WithHideFunc(func() bool {
			return fm.Frequency != string(models.FrequencyWeekly)
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("Reminder time (HH:MM, blank for none)").
				Value(&fm.ReminderTime).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := utils.ParseTimeToMinutes(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("expected HH:MM")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

func validateDays(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < constants.MinDaysPerWeek || n > constants.MaxDaysPerWeek {
		return fmt.Errorf("enter a number from %d to %d", constants.MinDaysPerWeek, constants.MaxDaysPerWeek)
	}
	return nil
}

// HabitDraft converts the submitted form into a draft.
func HabitDraft(fm *state.HabitFormModel) models.HabitDraft {
	d := models.HabitDraft{
		Name:      fm.Name,
		Frequency: models.Frequency(fm.Frequency),
	}
	if d.Frequency == models.FrequencyWeekly {
		d.TimesPerWeek, _ = strconv.Atoi(strings.TrimSpace(fm.TimesPerWeek))
		d.TargetDays, _ = strconv.Atoi(strings.TrimSpace(fm.TargetDays))
	}
	if t := strings.TrimSpace(fm.ReminderTime); t != "" {
		d.Notification = models.Notification{Enabled: true, Time: t}
	}
	return d
}
