// Package logger is the process-wide structured logger. Entries go to a
// rotating file under the log directory; debug runs mirror them on stderr.
// Until Init or UseWriter is called every call is a no-op.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/habitual/internal/constants"
)

var (
	Logger *log.Logger
	file   *lumberjack.Logger
)

// Options describes where and how much to log. Zero rotation limits fall
// back to 10 MB per file, 3 old files and 28 days.
type Options struct {
	Dir        string
	Level      string // debug, info, warn or error; empty means warn
	Format     string // text, json or logfmt; empty means text
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Debug forces the debug level, reports callers and copies entries to stderr.
	Debug bool
}

// Init replaces the global logger. A previously opened log file is closed.
func Init(opts Options) error {
	level, err := parseLevel(opts)
	if err != nil {
		return err
	}
	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, constants.AppName+".log"),
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
		Compress:   true,
	}

	var w io.Writer = rotating
	if opts.Debug {
		w = io.MultiWriter(os.Stderr, rotating)
	}

	_ = Close()
	file = rotating
	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    opts.Debug,
		ReportTimestamp: true,
		Level:           level,
		Formatter:       formatter,
		Prefix:          constants.AppName,
	})
	return nil
}

// Close flushes and closes the log file opened by Init.
func Close() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// UseWriter points the global logger at w. Tests use it to capture output.
func UseWriter(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: constants.AppName,
	})
}

func parseLevel(opts Options) (log.Level, error) {
	if opts.Debug {
		return log.DebugLevel, nil
	}
	if opts.Level == "" {
		return log.WarnLevel, nil
	}
	level, err := log.ParseLevel(opts.Level)
	if err != nil || level == log.FatalLevel {
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", opts.Level)
	}
	return level, nil
}

func parseFormat(name string) (log.Formatter, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return 0, fmt.Errorf("unknown log format %q (want text, json or logfmt)", name)
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
