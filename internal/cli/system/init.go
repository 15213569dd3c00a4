package system

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Overwrite an existing config file."`
	Source string `help:"Copy habits and records from another backend (sqlite, json, postgres, redis)." enum:",sqlite,json,postgres,redis" default:""`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	cfgPath := filepath.Join(cfg.DataDir, constants.DefaultConfigFile)
	if _, err := os.Stat(cfgPath); err == nil && !c.Force {
		ctx.Printf("Config file already exists: %s (use --force to overwrite)\n", cfgPath)
	} else {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := os.WriteFile(cfgPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		ctx.Printf("Wrote config file: %s\n", cfgPath)
	}

	if c.Source != "" {
		if c.Source == cfg.Backend {
			return fmt.Errorf("source and destination backend are both %s", c.Source)
		}
		if err := c.copyFrom(ctx, cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	for key, empty := range map[string]string{constants.HabitsKey: "[]", constants.DailyRecordsKey: "{}"} {
		_, ok, err := ctx.Store.Get(ctx.Context(), key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			if err := ctx.Store.Set(ctx.Context(), key, empty); err != nil {
				return fmt.Errorf("failed to initialize %s: %w", key, err)
			}
		}
	}

	ctx.Printf("Initialized habitual storage at: %s\n", storage.Location(ctx.Store))
	return nil
}

// copyFrom copies both collections verbatim from the Source backend.
func (c *InitCmd) copyFrom(ctx *cli.Context, cfg *config.Config) error {
	srcCfg := *cfg
	srcCfg.Backend = c.Source
	src, err := storage.Open(ctx.Context(), &srcCfg)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	ctx.Printf("Migrating data from %s (%s)\n", c.Source, storage.Location(src))
	for _, key := range []string{constants.HabitsKey, constants.DailyRecordsKey} {
		v, ok, err := src.Get(ctx.Context(), key)
		if err != nil {
			return fmt.Errorf("failed to read %s from source: %w", key, err)
		}
		if !ok {
			ctx.Printf("  %s: nothing to copy\n", key)
			continue
		}
		if err := ctx.Store.Set(ctx.Context(), key, v); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		ctx.Printf("  %s: copied %d bytes\n", key, len(v))
	}
	ctx.Println("Migration completed successfully!")
	return nil
}
