package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/reminder"
)

// NotifyCmd delivers the reminders due this minute and exits. It is meant
// for cron or a systemd timer when 'remind run' is not kept alive.
type NotifyCmd struct {
	DryRun bool `help:"Print due reminders to stdout instead of sending them."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Tracker.LoadReminders(ctx.Context()); err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}

	now := time.Now()
	if c.DryRun {
		due := ctx.Reminders.Due(now)
		if len(due) == 0 {
			ctx.Println("No reminders due.")
			return nil
		}
		for _, t := range due {
			ctx.Println("[DryRun] " + reminder.Message(t.HabitName))
		}
		return nil
	}

	sent := ctx.Reminders.Fire(ctx.Context(), now)
	if due := len(ctx.Reminders.Due(now)); due > 0 {
		return fmt.Errorf("%d reminder(s) could not be delivered", due)
	}
	if sent > 0 {
		ctx.Printf("Sent %d reminder(s)\n", sent)
	}
	return nil
}
