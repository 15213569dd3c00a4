package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/tracker"
)

// Context is handed to every command's Run method.
type Context struct {
	Ctx       context.Context
	Config    *config.Config
	Store     kv.Store
	Tracker   *tracker.Service
	Reminders *reminder.Service
	Notifier  reminder.Notifier
	Backups   *backup.Manager
	Out       io.Writer
	In        io.Reader
}

// NewContext wires the registry, record log, reminders and backups on top of
// an opened store.
func NewContext(ctx context.Context, cfg *config.Config, store kv.Store, n reminder.Notifier, opts ...storage.Option) *Context {
	loc := cfg.Location()
	opts = append([]storage.Option{storage.WithLocation(loc)}, opts...)

	records := storage.NewRecordLog(store, opts...)
	registry := storage.NewRegistry(store, records, opts...)
	reminders := reminder.NewService(n,
		reminder.WithLocation(loc),
		reminder.WithInterval(cfg.Reminders.Interval),
		reminder.WithSource(registry.List),
	)

	return &Context{
		Ctx:       ctx,
		Config:    cfg,
		Store:     store,
		Tracker:   tracker.New(registry, records, reminders),
		Reminders: reminders,
		Notifier:  n,
		Backups:   backup.NewManager(store, cfg.Backups.Dir, cfg.Backups.Keep),
		Out:       os.Stdout,
		In:        os.Stdin,
	}
}

// Context returns the command's context, never nil.
func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Print(s string) {
	fmt.Fprint(c.out(), s)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if c.Backups == nil {
		return
	}
	if _, err := c.Backups.CreateBackup(c.Context()); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveHabit finds a habit by id, or by name ignoring case.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	habits := c.Tracker.Habits(c.Context())
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
	}
	var match *models.Habit
	for i, h := range habits {
		if strings.EqualFold(h.Name, ref) {
			if match != nil {
				return models.Habit{}, fmt.Errorf("%q matches more than one habit; use the id", ref)
			}
			match = &habits[i]
		}
	}
	if match == nil {
		return models.Habit{}, fmt.Errorf("%w: %q", errors.ErrHabitNotFound, ref)
	}
	return *match, nil
}

// FormatFrequency formats a habit's schedule for display.
func FormatFrequency(h models.Habit) string {
	if h.Frequency == models.FrequencyWeekly {
		return fmt.Sprintf("%dx/week", h.TimesPerWeek)
	}
	return "daily"
}

// FormatReminder describes a habit's reminder for display.
func FormatReminder(h models.Habit) string {
	if !h.Notification.Enabled || h.Notification.Time == "" {
		return "-"
	}
	return h.Notification.Time
}

// Confirm asks a yes/no question on In and reports whether the answer was yes.
func (c *Context) Confirm(prompt string) (bool, error) {
	c.Printf("%s [y/N]: ", prompt)
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
