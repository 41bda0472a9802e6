package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gigcal.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "calendar_id: shows.ics\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CalendarID != "shows.ics" {
		t.Errorf("CalendarID = %q", cfg.CalendarID)
	}
	if cfg.HorizonYears != 2 {
		t.Errorf("HorizonYears = %d, want default 2", cfg.HorizonYears)
	}
	if cfg.DebounceDelay != 30*time.Second {
		t.Errorf("DebounceDelay = %s, want default 30s", cfg.DebounceDelay)
	}
	if cfg.DebounceGuard >= cfg.DebounceDelay {
		t.Error("default guard must be shorter than default delay")
	}
}

// TestLoad_MissingCalendarID verifies the calendar identifier is required
// and fatal when absent.
func TestLoad_MissingCalendarID(t *testing.T) {
	path := writeConfig(t, "horizon_years: 1\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing calendar_id")
	}
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T, want *MissingError", err)
	}
	if missing.Resource != "calendar_id" {
		t.Errorf("Resource = %q, want calendar_id", missing.Resource)
	}
}

func TestValidate_GuardVersusDelay(t *testing.T) {
	cfg := &Config{
		CalendarID:    "shows.ics",
		ActiveSheet:   "shows.csv",
		ArchiveSheet:  "archive.csv",
		HorizonYears:  2,
		DebounceDelay: 10 * time.Second,
		DebounceGuard: 10 * time.Second,
		DailyHour:     4,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when guard >= delay")
	}

	cfg.DebounceGuard = 5 * time.Second
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{Timezone: "America/Los_Angeles"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location failed: %v", err)
	}
	if loc.String() != "America/Los_Angeles" {
		t.Errorf("Location = %s", loc)
	}

	cfg.Timezone = "Not/AZone"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for bad timezone")
	}
}
