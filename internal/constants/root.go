package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/habitual"
	DefaultConfigFile  = "config.yaml"
	DefaultDataFile    = "habitual.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Storage keys. Both collections are stored as one JSON document each.
	HabitsKey        = "habits"
	DailyRecordsKey  = "daily_records"
	RedisKeyPrefix   = "habitual:"
	SQLiteTableName  = "kv"
	PostgresSchema   = AppName
	PostgresKVTable  = "kv"
	EnvPrefix        = "HABITUAL_"
	DefaultTimezone  = "Local"
	DefaultBackend   = "sqlite"
	MaxHabitNameLen  = 50
	MinDaysPerWeek   = 1
	MaxDaysPerWeek   = 7
	ProgressWeekDays = 7

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".json"

	// Reminder constants
	DefaultReminderInterval = 30 * time.Second
	NotifierLockfileName    = "habitual-notifier.lock"
	NotificationDurationMs  = 5000
	TrayAppIdentifier       = "com.julianstephens.habitual"
	TrayExecutablePrefix    = "habitual-tray"
	TraySecretHeader        = "X-Habitual-Secret"
)

// Session States
const (
	StateHabits SessionState = iota
	StateProgress
	StateAddHabit
	StateConfirmDelete
)
