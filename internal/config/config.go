// Package config loads runtime settings. Sources are applied in order, each
// overriding the previous one: built-in defaults, the YAML config file, a
// .env file, then HABITUAL_* environment variables. CLI flags are applied by
// the caller afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/utils"
)

// Backend names accepted in Config.Backend.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendJSON     = "json"
	BackendMemory   = "memory"
)

type Config struct {
	Backend  string `yaml:"backend" env:"BACKEND"`
	DataDir  string `yaml:"data_dir" env:"DATA_DIR"`
	Timezone string `yaml:"timezone" env:"TIMEZONE"`
	Debug    bool   `yaml:"debug" env:"DEBUG"`

	SQLite    SQLiteConfig   `yaml:"sqlite" envPrefix:"SQLITE_"`
	JSON      JSONConfig     `yaml:"json" envPrefix:"JSON_"`
	Postgres  PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
	Redis     RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Reminders ReminderConfig `yaml:"reminders" envPrefix:"REMINDERS_"`
	Backups   BackupConfig   `yaml:"backups" envPrefix:"BACKUPS_"`
	Log       LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type JSONConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// PostgresConfig never carries a password. Use .pgpass, PGPASSWORD or the
// OS keyring (see internal/keyring) instead.
type PostgresConfig struct {
	URL        string `yaml:"url" env:"URL"`
	UseKeyring bool   `yaml:"use_keyring" env:"USE_KEYRING"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"-" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Prefix   string `yaml:"prefix" env:"PREFIX"`
}

type ReminderConfig struct {
	Interval    time.Duration `yaml:"interval" env:"INTERVAL"`
	Notifier    string        `yaml:"notifier" env:"NOTIFIER"` // tray or stdout
	MetricsAddr string        `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

type BackupConfig struct {
	Dir  string `yaml:"dir" env:"DIR"`
	Keep int    `yaml:"keep" env:"KEEP"`
}

// LogConfig controls the log file. Dir defaults to <data_dir>/logs.
type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL"`
	Format     string `yaml:"format" env:"FORMAT"` // text, json or logfmt
	Dir        string `yaml:"dir" env:"DIR"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
}

// Options controls where Load looks for its sources. Empty fields mean the
// default locations.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := ExpandHome(constants.DefaultConfigDir)
	return &Config{
		Backend:  constants.DefaultBackend,
		DataDir:  dataDir,
		Timezone: constants.DefaultTimezone,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: constants.RedisKeyPrefix,
		},
		Reminders: ReminderConfig{
			Interval: constants.DefaultReminderInterval,
			Notifier: "tray",
		},
		Backups: BackupConfig{
			Keep: constants.MaxBackups,
		},
		Log: LogConfig{
			Level:      "warn",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from all sources. Without an explicit
// config file, the file is looked up in HABITUAL_DATA_DIR when that is set
// (in the environment or the .env file) and in the default data directory
// otherwise.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	configFile := opts.ConfigFile
	explicit := configFile != ""
	if !explicit {
		dir := cfg.DataDir
		if v := os.Getenv(constants.EnvPrefix + "DATA_DIR"); v != "" {
			dir = ExpandHome(v)
		}
		configFile = filepath.Join(dir, constants.DefaultConfigFile)
	}
	if err := cfg.loadYAML(ExpandHome(configFile), explicit); err != nil {
		return nil, err
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: constants.EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.fillPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// fillPaths derives file locations that were not set explicitly.
func (c *Config) fillPaths() {
	c.DataDir = ExpandHome(c.DataDir)
	if c.SQLite.Path == "" {
		c.SQLite.Path = filepath.Join(c.DataDir, constants.DefaultDataFile)
	}
	if c.JSON.Path == "" {
		c.JSON.Path = filepath.Join(c.DataDir, constants.AppName+".json")
	}
	if c.Backups.Dir == "" {
		c.Backups.Dir = filepath.Join(c.DataDir, constants.BackupDirName)
	}
	if c.Log.Dir == "" {
		c.Log.Dir = filepath.Join(c.DataDir, "logs")
	}
	c.SQLite.Path = ExpandHome(c.SQLite.Path)
	c.JSON.Path = ExpandHome(c.JSON.Path)
	c.Backups.Dir = ExpandHome(c.Backups.Dir)
	c.Log.Dir = ExpandHome(c.Log.Dir)
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendPostgres, BackendRedis, BackendJSON, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, postgres, redis, json or memory)", c.Backend)
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.Reminders.Interval <= 0 {
		return fmt.Errorf("reminder interval must be positive, got %s", c.Reminders.Interval)
	}
	switch c.Reminders.Notifier {
	case "tray", "stdout":
	default:
		return fmt.Errorf("unknown notifier %q (want tray or stdout)", c.Reminders.Notifier)
	}
	if c.Backups.Keep < 1 {
		return fmt.Errorf("backups.keep must be at least 1, got %d", c.Backups.Keep)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (want debug, info, warn or error)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log format %q (want text, json or logfmt)", c.Log.Format)
	}
	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
