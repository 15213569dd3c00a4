package system

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Remove orphaned records and empty dates."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Tracker.Records().LoadAll(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	result := validation.New().Validate(ctx.Tracker.Habits(ctx.Context()), records)

	if !result.HasConflicts() {
		ctx.Println("✓ No conflicts detected.")
		return nil
	}
	ctx.Print(result.FormatReport())

	if !c.Fix {
		if n := len(result.Fixable()); n > 0 {
			ctx.Printf("\n%d conflict(s) can be fixed with --fix\n", n)
		}
		return fmt.Errorf("%d conflict(s) found", len(result.Conflicts))
	}

	ctx.PerformAutomaticBackup()
	actions := validation.AutoFix(ctx.Context(), result.Fixable(), ctx.Tracker.Records())
	if len(actions) > 0 {
		ctx.Println()
		ctx.Println("Fixes applied:")
		for _, a := range actions {
			ctx.Printf("- %s\n", a.Action)
		}
	}

	records, err = ctx.Tracker.Records().LoadAll(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to reload records: %w", err)
	}
	remaining := validation.New().Validate(ctx.Tracker.Habits(ctx.Context()), records)
	if remaining.HasConflicts() {
		return fmt.Errorf("%d conflict(s) remain and need manual attention", len(remaining.Conflicts))
	}
	ctx.Println("✓ All conflicts fixed.")
	return nil
}
