package system

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/kv"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

type DoctorCmd struct{}

// check is one diagnostic. needsStore checks are skipped once a gate check
// has failed; warnOnly checks never fail the run.
type check struct {
	name       string
	gate       bool
	needsStore bool
	warnOnly   bool
	run        func(ctx *cli.Context) error
}

var doctorChecks = []check{
	{name: "Store reachable", gate: true, run: checkStoreReachable},
	{name: "Habits readable", needsStore: true, run: checkHabitsReadable},
	{name: "Records readable", needsStore: true, run: checkRecordsReadable},
	{name: "Data validation", needsStore: true, run: checkValidation},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Keyring", warnOnly: true, run: checkKeyring},
	{name: "Notifier", warnOnly: true, run: checkNotifier},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	storeReachable := true

	for _, c := range doctorChecks {
		if c.needsStore && !storeReachable {
			ctx.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if c.gate {
				storeReachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if ctx.Store == nil {
		return fmt.Errorf("no store configured")
	}
	if err := kv.Ping(ctx.Context(), ctx.Store); err != nil {
		return fmt.Errorf("failed to reach store: %w", err)
	}
	return nil
}

func checkHabitsReadable(ctx *cli.Context) error {
	raw, ok, err := ctx.Store.Get(ctx.Context(), constants.HabitsKey)
	if err != nil {
		return fmt.Errorf("failed to read habits: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var habits []models.Habit
	if err := json.Unmarshal([]byte(raw), &habits); err != nil {
		return fmt.Errorf("habits are not valid JSON: %w", err)
	}
	return nil
}

func checkRecordsReadable(ctx *cli.Context) error {
	_, err := ctx.Tracker.Records().LoadAll(ctx.Context())
	return err
}

func checkValidation(ctx *cli.Context) error {
	records, err := ctx.Tracker.Records().LoadAll(ctx.Context())
	if err != nil {
		return err
	}
	result := validation.New().Validate(ctx.Tracker.Habits(ctx.Context()), records)
	if result.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found - run 'habitual validate' for details", len(result.Conflicts))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if ctx.Backups == nil {
		return fmt.Errorf("backups are not configured")
	}
	backups, err := ctx.Backups.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'habitual backup create'")
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Config != nil && !utils.ValidateTimezone(ctx.Config.Timezone) {
		return fmt.Errorf("invalid timezone %q", ctx.Config.Timezone)
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if ctx.Config == nil {
		return nil
	}
	switch ctx.Config.Backend {
	case config.BackendPostgres:
		if ctx.Config.Postgres.URL != "" && !ctx.Config.Postgres.UseKeyring {
			return nil
		}
	case config.BackendRedis:
		if ctx.Config.Redis.Password != "" {
			return nil
		}
	default:
		return nil
	}
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available but the %s backend reads its secret from it", ctx.Config.Backend)
	}
	return nil
}

func checkNotifier(ctx *cli.Context) error {
	if ctx.Config == nil || ctx.Config.Reminders.Notifier != "tray" {
		return nil
	}
	if err := notifier.NewTray().Check(); err != nil {
		return fmt.Errorf("reminders will not be shown: %w", err)
	}
	return nil
}
