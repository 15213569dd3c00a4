package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// Notification holds the reminder settings of a habit. Handle is the opaque
// reference returned by the reminder scheduler; it is never inspected here.
type Notification struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time,omitempty"`           // HH:MM format
	Handle  string `json:"notificationId,omitempty"` // scheduler handle

	Extra map[string]json.RawMessage `json:"-"`
}

var notificationFields = []string{"enabled", "time", "notificationId"}

type notificationAlias Notification

func (n Notification) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(notificationAlias(n), n.Extra)
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var a notificationAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, _, err := splitExtra(data, notificationFields)
	if err != nil {
		return err
	}
	a.Extra = extra
	*n = Notification(a)
	return nil
}

// Habit represents a recurring practice to track
type Habit struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Frequency    Frequency    `json:"frequency"`
	TimesPerWeek int          `json:"timesPerWeek"`
	TargetDays   int          `json:"targetDays"`
	Notification Notification `json:"notification"`
	CreatedAt    time.Time    `json:"createdAt"`
	Active       bool         `json:"active"`

	// Extra keeps members written by other versions of the app so that a
	// load/save cycle does not drop them.
	Extra map[string]json.RawMessage `json:"-"`
}

var habitFields = []string{"id", "name", "frequency", "timesPerWeek", "targetDays", "notification", "createdAt", "active"}

type habitAlias Habit

func (h Habit) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(habitAlias(h), h.Extra)
}

func (h *Habit) UnmarshalJSON(data []byte) error {
	var a habitAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, present, err := splitExtra(data, habitFields)
	if err != nil {
		return err
	}
	// Habits saved before the active flag existed count as active.
	if !present["active"] {
		a.Active = true
	}
	a.Extra = extra
	*h = Habit(a)
	return nil
}

// Validate checks the data model invariants of a stored habit.
func (h Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return errors.Invalid("id", "must not be empty")
	}
	return validateFields(h.Name, h.Frequency, h.TimesPerWeek, h.TargetDays, h.Notification)
}

// HabitDraft is the user supplied part of a new habit.
type HabitDraft struct {
	Name         string
	Frequency    Frequency
	TimesPerWeek int
	TargetDays   int
	Notification Notification
}

// Normalize trims the name and fills the fields the form would have fixed:
// daily habits always run 7 times a week, and a missing target defaults to
// the weekly count.
func (d HabitDraft) Normalize() HabitDraft {
	d.Name = strings.TrimSpace(d.Name)
	if d.Frequency == "" {
		d.Frequency = FrequencyDaily
	}
	if d.Frequency == FrequencyDaily {
		d.TimesPerWeek = constants.MaxDaysPerWeek
	}
	if d.TargetDays == 0 {
		d.TargetDays = d.TimesPerWeek
	}
	d.Notification.Handle = ""
	return d
}

func (d HabitDraft) Validate() error {
	return validateFields(d.Name, d.Frequency, d.TimesPerWeek, d.TargetDays, d.Notification)
}

// HabitPatch is a partial update. Nil fields are left untouched; id and
// createdAt cannot be changed.
type HabitPatch struct {
	Name         *string
	Frequency    *Frequency
	TimesPerWeek *int
	TargetDays   *int
	Notification *Notification
	Active       *bool
}

func (p HabitPatch) IsEmpty() bool {
	return p.Name == nil && p.Frequency == nil && p.TimesPerWeek == nil &&
		p.TargetDays == nil && p.Notification == nil && p.Active == nil
}

// Apply merges the patch into h and returns the result.
func (p HabitPatch) Apply(h Habit) Habit {
	if p.Name != nil {
		h.Name = strings.TrimSpace(*p.Name)
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.TimesPerWeek != nil {
		h.TimesPerWeek = *p.TimesPerWeek
	}
	if p.TargetDays != nil {
		h.TargetDays = *p.TargetDays
	}
	if p.Notification != nil {
		extra := h.Notification.Extra
		h.Notification = *p.Notification
		if h.Notification.Extra == nil {
			h.Notification.Extra = extra
		}
	}
	if p.Active != nil {
		h.Active = *p.Active
	}
	if h.Frequency == FrequencyDaily {
		h.TimesPerWeek = constants.MaxDaysPerWeek
	}
	return h
}

func validateFields(name string, freq Frequency, timesPerWeek, targetDays int, n Notification) error {
	if strings.TrimSpace(name) == "" {
		return errors.Invalid("name", "must not be empty")
	}
	if l := utf8.RuneCountInString(name); l > constants.MaxHabitNameLen {
		return errors.Invalid("name", "must be at most %d characters, got %d", constants.MaxHabitNameLen, l)
	}
	if !freq.Valid() {
		return errors.Invalid("frequency", "must be %q or %q, got %q", FrequencyDaily, FrequencyWeekly, freq)
	}
	if freq == FrequencyDaily && timesPerWeek != constants.MaxDaysPerWeek {
		return errors.Invalid("timesPerWeek", "daily habits run %d times per week", constants.MaxDaysPerWeek)
	}
	if timesPerWeek < constants.MinDaysPerWeek || timesPerWeek > constants.MaxDaysPerWeek {
		return errors.Invalid("timesPerWeek", "must be between %d and %d, got %d", constants.MinDaysPerWeek, constants.MaxDaysPerWeek, timesPerWeek)
	}
	if targetDays < constants.MinDaysPerWeek || targetDays > constants.MaxDaysPerWeek {
		return errors.Invalid("targetDays", "must be between %d and %d, got %d", constants.MinDaysPerWeek, constants.MaxDaysPerWeek, targetDays)
	}
	if n.Time != "" {
		if _, err := time.Parse(constants.TimeFormat, n.Time); err != nil {
			return errors.Invalid("notification.time", "expected HH:MM, got %q", n.Time)
		}
	}
	return nil
}
