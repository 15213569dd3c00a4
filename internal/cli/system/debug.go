package system

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

type DebugCmd struct {
	StorePath  *DebugStorePathCmd  `cmd:"" help:"Show where the data is stored."`
	DumpHabit  *DebugDumpHabitCmd  `cmd:"" help:"Dump habit data as JSON."`
	DumpDay    *DebugDumpDayCmd    `cmd:"" help:"Dump one day's records as JSON."`
	DumpRaw    *DebugDumpRawCmd    `cmd:"" help:"Dump a raw storage key."`
	DumpConfig *DebugDumpConfigCmd `cmd:"" help:"Dump the effective configuration as JSON."`
}

func printJSON(ctx *cli.Context, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugStorePathCmd struct{}

func (cmd *DebugStorePathCmd) Run(ctx *cli.Context) error {
	backend := ""
	if ctx.Config != nil {
		backend = ctx.Config.Backend
	}
	return printJSON(ctx, map[string]string{
		"backend": backend,
		"path":    storage.Location(ctx.Store),
	})
}

type DebugDumpHabitCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	h, err := ctx.ResolveHabit(cmd.Habit)
	if err != nil {
		return err
	}
	return printJSON(ctx, h)
}

type DebugDumpDayCmd struct {
	Date string `arg:"" help:"Date to dump (YYYY-MM-DD or 'today')."`
}

func (cmd *DebugDumpDayCmd) Run(ctx *cli.Context) error {
	date := cmd.Date
	if date == "today" {
		date = ctx.Tracker.Records().Today()
	}
	if _, err := utils.ParseDateKey(date); err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or 'today')", date)
	}
	return printJSON(ctx, ctx.Tracker.Records().RecordsForDate(ctx.Context(), date))
}

type DebugDumpRawCmd struct {
	Key string `arg:"" enum:"habits,daily_records" help:"Storage key (habits or daily_records)."`
}

func (cmd *DebugDumpRawCmd) Run(ctx *cli.Context) error {
	v, ok, err := ctx.Store.Get(ctx.Context(), cmd.Key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.Key, err)
	}
	if !ok {
		ctx.Printf("%s has never been written\n", cmd.Key)
		return nil
	}
	ctx.Println(v)
	return nil
}

type DebugDumpConfigCmd struct{}

func (cmd *DebugDumpConfigCmd) Run(ctx *cli.Context) error {
	if ctx.Config == nil {
		return fmt.Errorf("no configuration loaded")
	}
	out := *ctx.Config
	if out.Redis.Password != "" {
		out.Redis.Password = "****"
	}
	return printJSON(ctx, map[string]interface{}{
		"version": constants.Version,
		"config":  out,
	})
}
