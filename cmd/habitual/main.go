package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/reminders"
	"github.com/julianstephens/habitual/internal/cli/stats"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path (default: ~/.config/habitual/config.yaml)." type:"path"`
	EnvFile string `help:"Dotenv file with HABITUAL_* overrides." default:".env"`
	Backend string `help:"Storage backend, overriding the config file." enum:",sqlite,json,postgres,redis" default:""`
	Debug   bool   `help:"Log debug output to stderr."`

	Init     system.InitCmd      `cmd:"" help:"Initialize habitual storage and write a config file."`
	Doctor   system.DoctorCmd    `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd       `cmd:"" help:"Launch the interactive TUI." default:"1"`
	DebugCmd system.DebugCmd     `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Validate system.ValidateCmd  `cmd:"" help:"Check habits and records for inconsistencies."`
	Backup   backups.BackupCmd   `cmd:"" help:"Manage data backups."`
	Habit    habits.HabitCmd     `cmd:"" help:"Manage habits and mark completions."`
	Stats    stats.StatsCmd      `cmd:"" help:"Show progress and streaks."`
	Remind   reminders.RemindCmd `cmd:"" help:"Manage and deliver habit reminders."`
	Keyring  system.KeyringCmd   `cmd:"" help:"Manage backend secrets in the OS keyring."`
	Notify   system.NotifyCmd    `cmd:"" hidden:"" help:"Deliver due reminders once (for cron)."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with daily records, progress and reminders"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(config.Options{ConfigFile: CLI.Config, EnvFile: CLI.EnvFile})
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.Backend != "" {
		cfg.Backend = CLI.Backend
	}
	cfg.Debug = cfg.Debug || CLI.Debug

	if err := logger.Init(logger.Options{
		Dir:        cfg.Log.Dir,
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Debug:      cfg.Debug,
	}); err != nil {
		errors.Fatal(err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		errors.Fatal(err)
	}

	var n reminder.Notifier = notifier.NewTray()
	if cfg.Reminders.Notifier == "stdout" {
		n = notifier.NewWriter(os.Stdout)
	}

	appCtx := cli.NewContext(ctx, cfg, store, n)
	err = kctx.Run(appCtx)
	if cerr := store.Close(); cerr != nil {
		logger.Warn("Failed to close store", "error", cerr)
	}
	errors.Fatal(err)
}
