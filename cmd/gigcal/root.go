package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gigcal/gigcal/internal/archive"
	"github.com/gigcal/gigcal/internal/calendar"
	"github.com/gigcal/gigcal/internal/config"
	"github.com/gigcal/gigcal/internal/engine"
	"github.com/gigcal/gigcal/internal/lock"
	"github.com/gigcal/gigcal/internal/logging"
	"github.com/gigcal/gigcal/internal/sheet"
	"github.com/gigcal/gigcal/internal/state"
	"github.com/gigcal/gigcal/internal/venues"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gigcal",
	Short: "Keep a concert calendar in sync with a show-tracking sheet",
	Long: `gigcal treats a sheet of upcoming shows as the source of truth for a
calendar: every actionable row becomes an all-day event, edits rewrite the
matching event in place, and removed rows delete it. Events gigcal did not
create are never touched.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: gigcal.yaml in . or ~/.config/gigcal)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "advanced", Title: "Advanced Commands:"},
	)
}

// app bundles the stores and services a command needs, opened from config.
type app struct {
	cfg    *config.Config
	loc    *time.Location
	active *sheet.FileStore
	cal    *calendar.ICSStore
	state  *state.Store
	venues *venues.Normalizer
	table  *venues.Table
	lock   *lock.SerialLock
}

// openApp loads config and opens every store except the archive sheet,
// which only the archive path needs.
func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	active, err := sheet.OpenFile(cfg.ActiveSheet, cfg.ActiveSheet)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.OpenICS(cfg.CalendarID)
	if err != nil {
		return nil, err
	}
	st, err := state.Open(cfg.StateDB)
	if err != nil {
		return nil, err
	}

	table, err := venues.LoadTable(cfg.VenueTable)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		loc:    loc,
		active: active,
		cal:    cal,
		state:  st,
		venues: venues.NewNormalizer(table),
		table:  table,
		lock:   lock.New(),
	}, nil
}

func (a *app) Close() {
	if a.state != nil {
		_ = a.state.Close()
	}
}

func (a *app) reconciler(logFile string) *engine.Reconciler {
	return &engine.Reconciler{
		Sheet:        a.active,
		Calendar:     a.cal,
		State:        a.state,
		Venues:       a.venues,
		Lock:         a.lock,
		Loc:          a.loc,
		HorizonYears: a.cfg.HorizonYears,
		LockWait:     a.cfg.LockWait,
		Backoff:      engine.DefaultBackoff(),
		Logger:       logging.New("[reconcile] ", logFile),
	}
}

func (a *app) mover(logFile string) (*archive.Mover, error) {
	archiveSheet, err := sheet.OpenFile(a.cfg.ArchiveSheet, a.cfg.ArchiveSheet)
	if err != nil {
		return nil, err
	}
	return &archive.Mover{
		Active:   a.active,
		Archive:  archiveSheet,
		Lock:     a.lock,
		Loc:      a.loc,
		LockWait: a.cfg.LockWait,
		Logger:   logging.New("[archive] ", logFile),
	}, nil
}

func printSummary(summary *engine.RunSummary) {
	if summary == nil {
		fmt.Println("Another run holds the lock; nothing done")
		return
	}
	for _, line := range summary.Lines() {
		fmt.Println(line)
	}
}
