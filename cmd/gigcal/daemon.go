package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/gigcal/gigcal/internal/archive"
	"github.com/gigcal/gigcal/internal/calendar"
	"github.com/gigcal/gigcal/internal/config"
	"github.com/gigcal/gigcal/internal/dashboard"
	"github.com/gigcal/gigcal/internal/debounce"
	"github.com/gigcal/gigcal/internal/engine"
	"github.com/gigcal/gigcal/internal/lock"
	"github.com/gigcal/gigcal/internal/logging"
	"github.com/gigcal/gigcal/internal/sheet"
	"github.com/gigcal/gigcal/internal/state"
	"github.com/gigcal/gigcal/internal/venues"
	"github.com/gigcal/gigcal/internal/watch"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Watch the sheet and keep the calendar in sync continuously",
	Long: `Run gigcal as a long-lived process:

  - Edits to the active sheet trigger a debounced reconciliation, so a
    burst of edits produces a single run after things settle.
  - A daily job archives past rows and reconciles at the configured hour.
  - With dashboard_port set, a WebSocket dashboard broadcasts run
    summaries, archive results, and edit notifications.

Stop with Ctrl+C; an in-flight run completes before shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		logger := logging.New("[daemon] ", cfg.LogFile)

		st, err := state.Open(cfg.StateDB)
		if err != nil {
			return err
		}
		defer st.Close()

		serialLock := lock.New()

		// Optional dashboard.
		var handler *dashboard.Handler
		if cfg.DashboardPort > 0 {
			server := dashboard.NewServer(cfg.DashboardPort, logging.New("[dashboard] ", cfg.LogFile))
			if err := server.Start(); err != nil {
				return err
			}
			defer func() {
				if err := server.Stop(); err != nil {
					logger.Printf("Dashboard shutdown error: %v", err)
				}
			}()
			handler = dashboard.NewHandler(server, logger)
			fmt.Printf("Dashboard: http://localhost:%d (ws://localhost:%d/ws)\n",
				cfg.DashboardPort, cfg.DashboardPort)
		}

		// Stores are reopened per run so the daemon always reads the sheet
		// and calendar as they are on disk, not as they were at startup.
		runReconcile := func() {
			r, err := daemonReconciler(cfg, loc, st, serialLock)
			if err != nil {
				logger.Printf("Reconcile setup failed: %v", err)
				return
			}
			if handler != nil {
				r.OnComplete = handler.OnRunComplete
			}
			if _, err := r.Run(false); err != nil {
				logger.Printf("Reconcile failed: %v", err)
			}
		}

		runArchive := func() {
			m, err := daemonMover(cfg, loc, serialLock)
			if err != nil {
				logger.Printf("Archive setup failed: %v", err)
				return
			}
			moved, err := m.Run()
			if err != nil {
				logger.Printf("Archive failed: %v", err)
				return
			}
			if handler != nil {
				handler.OnArchiveComplete(moved)
			}
		}

		scheduler, err := debounce.New(cfg.DebounceDelay, cfg.DebounceGuard, st,
			runReconcile, logging.New("[debounce] ", cfg.LogFile))
		if err != nil {
			return err
		}
		defer scheduler.Stop()

		watcher, err := watch.NewSheetWatcher(cfg.ActiveSheet)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()

		go func() {
			for range watcher.Edits() {
				logger.Println("Sheet edit observed")
				if handler != nil {
					handler.OnEdit()
				}
				scheduler.NotifyEdit()
			}
		}()
		go func() {
			for err := range watcher.Errors() {
				logger.Printf("Watcher error: %v", err)
			}
		}()

		// Daily archive + reconcile at the configured local hour.
		c := cron.New(cron.WithLocation(loc))
		spec := fmt.Sprintf("0 %d * * *", cfg.DailyHour)
		if _, err := c.AddFunc(spec, func() {
			logger.Println("Daily maintenance starting")
			runArchive()
			runReconcile()
		}); err != nil {
			return fmt.Errorf("failed to schedule daily run: %w", err)
		}
		c.Start()
		defer c.Stop()

		fmt.Printf("Watching %s (debounce %s, daily run at %02d:00)\n",
			cfg.ActiveSheet, cfg.DebounceDelay, cfg.DailyHour)
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nShutting down...")
		return nil
	},
}

// daemonReconciler opens fresh stores and builds a reconciler around the
// daemon's shared state and lock.
func daemonReconciler(cfg *config.Config, loc *time.Location, st *state.Store, l *lock.SerialLock) (*engine.Reconciler, error) {
	active, err := sheet.OpenFile(cfg.ActiveSheet, cfg.ActiveSheet)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.OpenICS(cfg.CalendarID)
	if err != nil {
		return nil, err
	}
	table, err := venues.LoadTable(cfg.VenueTable)
	if err != nil {
		return nil, err
	}
	return &engine.Reconciler{
		Sheet:        active,
		Calendar:     cal,
		State:        st,
		Venues:       venues.NewNormalizer(table),
		Lock:         l,
		Loc:          loc,
		HorizonYears: cfg.HorizonYears,
		LockWait:     cfg.LockWait,
		Backoff:      engine.DefaultBackoff(),
		Logger:       logging.New("[reconcile] ", cfg.LogFile),
	}, nil
}

func daemonMover(cfg *config.Config, loc *time.Location, l *lock.SerialLock) (*archive.Mover, error) {
	active, err := sheet.OpenFile(cfg.ActiveSheet, cfg.ActiveSheet)
	if err != nil {
		return nil, err
	}
	archiveSheet, err := sheet.OpenFile(cfg.ArchiveSheet, cfg.ArchiveSheet)
	if err != nil {
		return nil, err
	}
	return &archive.Mover{
		Active:   active,
		Archive:  archiveSheet,
		Lock:     l,
		Loc:      loc,
		LockWait: cfg.LockWait,
		Logger:   logging.New("[archive] ", cfg.LogFile),
	}, nil
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
