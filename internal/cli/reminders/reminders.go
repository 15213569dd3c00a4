package reminders

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/reminder"
)

type RemindCmd struct {
	Sync RemindSyncCmd `cmd:"" help:"Reschedule every habit's reminder and store the new handles."`
	List RemindListCmd `cmd:"" help:"List scheduled reminders."`
	Run  RemindRunCmd  `cmd:"" help:"Deliver reminders until interrupted, picking up habit changes as they happen."`
	Test RemindTestCmd `cmd:"" help:"Send a test notification."`
}

type RemindSyncCmd struct{}

func (c *RemindSyncCmd) Run(ctx *cli.Context) error {
	n, err := ctx.Tracker.SyncReminders(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to sync reminders: %w", err)
	}
	ctx.Printf("✓ %d reminder(s) scheduled\n", n)
	return nil
}

type RemindListCmd struct{}

func (c *RemindListCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Tracker.LoadReminders(ctx.Context()); err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}
	triggers := ctx.Reminders.Triggers()
	if len(triggers) == 0 {
		ctx.Println("No reminders scheduled.")
		return nil
	}
	for _, t := range triggers {
		ctx.Printf("  %s  %s\n", t.Time, t.HabitName)
	}
	return nil
}

type RemindRunCmd struct {
	MetricsAddr string `help:"Serve Prometheus metrics on this address (e.g. :9090)."`
}

func (c *RemindRunCmd) Run(ctx *cli.Context) error {
	runCtx, cancel := context.WithCancel(ctx.Context())
	defer cancel()

	n, err := ctx.Tracker.SyncReminders(runCtx)
	if err != nil {
		return fmt.Errorf("failed to sync reminders: %w", err)
	}
	ctx.Printf("Delivering %d reminder(s). Press Ctrl+C to stop.\n", n)

	addr := c.MetricsAddr
	if addr == "" && ctx.Config != nil {
		addr = ctx.Config.Reminders.MetricsAddr
	}
	if addr != "" {
		go func() {
			if err := metrics.Serve(runCtx, addr); err != nil {
				logger.Error("Metrics server stopped", "addr", addr, "error", err)
			}
		}()
		logger.Info("Serving metrics", "addr", addr)
	}

	return ctx.Reminders.Run(runCtx)
}

type RemindTestCmd struct {
	Habit string `arg:"" optional:"" help:"Habit whose reminder text to send."`
}

func (c *RemindTestCmd) Run(ctx *cli.Context) error {
	name := "habitual"
	if c.Habit != "" {
		h, err := ctx.ResolveHabit(c.Habit)
		if err != nil {
			return err
		}
		name = h.Name
	}
	if ctx.Notifier == nil {
		return fmt.Errorf("no notifier configured")
	}
	if err := ctx.Notifier.Notify(ctx.Context(), reminder.Message(name)); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	ctx.Println("✓ Notification sent")
	return nil
}
