// Package config loads gigcal configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MissingError reports a required configuration resource that is absent.
// These are fatal: validation happens before any store is touched, so a
// missing resource never leaves a half-applied run behind.
type MissingError struct {
	Resource string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Resource)
}

// Missing returns a MissingError for the named resource.
func Missing(resource string) error {
	return &MissingError{Resource: resource}
}

// Config holds all gigcal settings.
type Config struct {
	// CalendarID names the calendar the reconciler writes to. For the ICS
	// backend this is the path of the calendar file. Required.
	CalendarID string `mapstructure:"calendar_id"`

	// ActiveSheet and ArchiveSheet are the CSV paths for upcoming and past
	// shows.
	ActiveSheet  string `mapstructure:"active_sheet"`
	ArchiveSheet string `mapstructure:"archive_sheet"`

	// VenueTable is the path of the venue alias/rule table (.toml or .yaml).
	VenueTable string `mapstructure:"venue_table"`

	// StateDB is the SQLite file holding run summaries, the purge cursor,
	// and the last-edit timestamp.
	StateDB string `mapstructure:"state_db"`

	// Timezone for date interpretation, e.g. "America/Los_Angeles".
	Timezone string `mapstructure:"timezone"`

	// HorizonYears bounds the forward reconciliation window.
	HorizonYears int `mapstructure:"horizon_years"`

	// DebounceDelay is how long after the last edit a reconciliation fires;
	// DebounceGuard is the minimum quiet period it requires when it does.
	// Guard must be shorter than delay.
	DebounceDelay time.Duration `mapstructure:"debounce_delay"`
	DebounceGuard time.Duration `mapstructure:"debounce_guard"`

	// DailyHour is the local hour (0-23) of the daily archive+reconcile run.
	DailyHour int `mapstructure:"daily_hour"`

	// LockWait bounds how long a run waits for the serial lock before
	// silently standing down.
	LockWait time.Duration `mapstructure:"lock_wait"`

	// DashboardPort is the port for the optional daemon dashboard; 0
	// disables it.
	DashboardPort int `mapstructure:"dashboard_port"`

	// LogFile enables rotated file logging when set; empty logs to stderr.
	LogFile string `mapstructure:"log_file"`
}

// Load reads configuration from the given file (optional; searched in the
// working directory and ~/.config/gigcal when empty) plus GIGCAL_* env vars.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("gigcal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/gigcal")
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("GIGCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("active_sheet", "shows.csv")
	v.SetDefault("archive_sheet", "shows-archive.csv")
	v.SetDefault("venue_table", "venues.toml")
	v.SetDefault("state_db", ".gigcal/state.db")
	v.SetDefault("timezone", "Local")
	v.SetDefault("horizon_years", 2)
	v.SetDefault("debounce_delay", 30*time.Second)
	v.SetDefault("debounce_guard", 25*time.Second)
	v.SetDefault("daily_hour", 4)
	v.SetDefault("lock_wait", 10*time.Second)
	v.SetDefault("dashboard_port", 0)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants a run depends on. Called before any store
// is opened.
func (c *Config) Validate() error {
	if c.CalendarID == "" {
		return Missing("calendar_id")
	}
	if c.ActiveSheet == "" {
		return Missing("active_sheet")
	}
	if c.ArchiveSheet == "" {
		return Missing("archive_sheet")
	}
	if c.HorizonYears <= 0 {
		return fmt.Errorf("horizon_years must be positive (got %d)", c.HorizonYears)
	}
	if c.DebounceGuard >= c.DebounceDelay {
		return fmt.Errorf("debounce_guard (%s) must be shorter than debounce_delay (%s)",
			c.DebounceGuard, c.DebounceDelay)
	}
	if c.DailyHour < 0 || c.DailyHour > 23 {
		return fmt.Errorf("daily_hour must be 0-23 (got %d)", c.DailyHour)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
