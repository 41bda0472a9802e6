package engine

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gigcal/gigcal/internal/calendar"
	"github.com/gigcal/gigcal/internal/config"
	"github.com/gigcal/gigcal/internal/dates"
	"github.com/gigcal/gigcal/internal/identity"
	"github.com/gigcal/gigcal/internal/lock"
	"github.com/gigcal/gigcal/internal/sheet"
	"github.com/gigcal/gigcal/internal/state"
	"github.com/gigcal/gigcal/internal/venues"
)

// Reconciler drives one full sheet-to-calendar reconciliation.
//
// The sheet is the single source of truth: tagged calendar events are
// created, rewritten, or deleted to match it, and calendar-side edits are
// always overwritten on the next run.
type Reconciler struct {
	Sheet    sheet.Store
	Calendar calendar.Store
	State    *state.Store
	Venues   *venues.Normalizer
	Lock     *lock.SerialLock

	Loc          *time.Location
	HorizonYears int
	LockWait     time.Duration

	// HeaderScan and FallbackHeaderRow control header discovery; zero
	// values mean the defaults (scan 10 rows, no fallback).
	HeaderScan        int
	FallbackHeaderRow int

	Backoff Backoff
	Logger  *log.Logger

	// OnComplete, when set, receives the summary of every finished run.
	// The daemon wires this to the dashboard.
	OnComplete func(*RunSummary)

	// today overrides the clock in tests.
	today string
}

// Run executes one reconciliation. In dry-run mode every mutation is
// computed and logged but nothing is written: not the calendar, and not
// the sheet's identity/venue write-backs either, which run against a
// throwaway copy.
//
// Returns (nil, nil) when the serial lock could not be acquired within
// LockWait; the next scheduled run retries naturally.
func (r *Reconciler) Run(dryRun bool) (*RunSummary, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[reconcile] ", log.LstdFlags)
	}

	if !r.Lock.TryAcquire(r.LockWait) {
		logger.Println("Another run holds the lock, standing down")
		return nil, nil
	}
	defer r.Lock.Release()

	if r.Calendar == nil {
		return nil, config.Missing("calendar store")
	}

	st := r.Sheet
	if dryRun {
		// All sheet mutations (normalize, write-backs) land on a copy.
		st = sheet.NewMemStore(r.Sheet.Name(), r.Sheet.Rows())
	}

	// Validation happens before any mutation: a missing column aborts with
	// both stores untouched.
	headerIdx, cols, err := r.detectHeader(st)
	if err != nil {
		return nil, err
	}

	if err := sheet.Normalize(st, headerIdx+1, cols.Date, r.Loc); err != nil {
		return nil, fmt.Errorf("failed to normalize sheet %q: %w", st.Name(), err)
	}

	summary := NewRunSummary(dryRun)
	today := r.today
	if today == "" {
		today = dates.Today(r.Loc)
	}

	desired := BuildDesired(st.Rows(), cols, headerIdx, today, r.HorizonYears, r.Venues, r.Loc, logger)
	summary.Skipped = desired.Skipped
	summary.Addf("Desired state: %d events in window, %d pending sheet writes",
		len(desired.Events), len(desired.Writes))

	// Identity and venue write-backs land before the calendar is queried,
	// so the diff never runs against stale identity.
	for _, w := range desired.Writes {
		if err := st.SetCell(w.Row, w.Col, w.Value); err != nil {
			return nil, fmt.Errorf("failed to write back cell: %w", err)
		}
	}
	if err := st.Flush(); err != nil {
		return nil, err
	}

	horizon := dates.AddYears(today, r.HorizonYears)
	events, err := r.Calendar.List(today, horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	existing := calendar.Tagged(events)

	actions := Diff(desired.Events, existing)
	summary.Addf("Diff: %d to create, %d to update, %d to delete",
		len(actions.Creates), len(actions.Updates), len(actions.Deletes))

	if dryRun {
		r.logActions(logger, actions)
	} else if err := r.apply(logger, summary, actions); err != nil {
		return nil, err
	}

	summary.Finish()
	if err := r.State.SetLastSummary(summary.String()); err != nil {
		logger.Printf("Failed to persist run summary: %v", err)
	}
	if r.OnComplete != nil {
		r.OnComplete(summary)
	}
	return summary, nil
}

func (r *Reconciler) detectHeader(st sheet.Store) (int, sheet.Columns, error) {
	scan := r.HeaderScan
	if scan <= 0 {
		scan = sheet.DefaultHeaderScan
	}
	fallback := r.FallbackHeaderRow
	if fallback == 0 {
		fallback = -1
	}
	return sheet.DetectHeader(st.Rows(), scan, fallback)
}

// apply pushes the classified actions to the calendar, retrying individual
// mutations on rate limiting.
func (r *Reconciler) apply(logger *log.Logger, summary *RunSummary, actions Actions) error {
	for _, c := range actions.Creates {
		ev := c.Want
		ev.Description = identity.AppendMarker(ev.Description, c.Identity)
		err := r.Backoff.Do("create", logger, func() error {
			_, err := r.Calendar.Create(ev)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to create event %q: %w", ev.Title, err)
		}
		summary.Created++
		summary.Addf("Created %s: %s", ev.Day, ev.Title)
	}

	for _, c := range actions.Updates {
		ev := c.Want
		ev.Description = identity.AppendMarker(ev.Description, c.Identity)
		id := c.Existing.ID
		err := r.Backoff.Do("update", logger, func() error {
			return r.Calendar.Update(id, ev)
		})
		if err != nil {
			return fmt.Errorf("failed to update event %q: %w", ev.Title, err)
		}
		summary.Updated++
		summary.Addf("Updated %s: %s", ev.Day, ev.Title)
	}

	for _, ev := range actions.Deletes {
		id := ev.ID
		err := r.Backoff.Do("delete", logger, func() error {
			return r.Calendar.Delete(id)
		})
		if err != nil {
			return fmt.Errorf("failed to delete event %q: %w", ev.Title, err)
		}
		summary.Deleted++
		summary.Addf("Deleted %s: %s", ev.Day, ev.Title)
	}

	if err := r.Calendar.Flush(); err != nil {
		return fmt.Errorf("failed to flush calendar: %w", err)
	}
	return nil
}

func (r *Reconciler) logActions(logger *log.Logger, actions Actions) {
	for _, c := range actions.Creates {
		logger.Printf("Would create %s: %s", c.Want.Day, c.Want.Title)
	}
	for _, c := range actions.Updates {
		logger.Printf("Would update %s: %s", c.Want.Day, c.Want.Title)
	}
	for _, ev := range actions.Deletes {
		logger.Printf("Would delete %s: %s", ev.Day, ev.Title)
	}
}
