package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/tui"
)

type TuiCmd struct {
	NoReminders bool `help:"Do not deliver reminders while the TUI is open."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// Perform automatic backup on TUI startup
	ctx.PerformAutomaticBackup()

	runCtx, cancel := context.WithCancel(ctx.Context())
	defer cancel()

	if !c.NoReminders && ctx.Reminders != nil {
		if _, err := ctx.Tracker.SyncReminders(runCtx); err != nil {
			logger.Warn("Reminders not synced", "error", err)
		} else {
			go func() {
				if err := ctx.Reminders.Run(runCtx); err != nil {
					logger.Error("Reminder loop stopped", "error", err)
				}
			}()
		}
	}

	p := tea.NewProgram(tui.NewModel(runCtx, ctx.Tracker), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
