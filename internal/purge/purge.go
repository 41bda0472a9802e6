// Package purge implements the paced destructive removal of every tagged
// future event from the calendar.
//
// Purging is the one long-running mutation gigcal performs, and host
// execution limits mean a single invocation may not finish. Progress is
// therefore capped per invocation, paced with a fixed sleep between
// deletions, and recorded as a durable cursor so repeated invocations make
// bounded forward progress until the pass completes.
package purge

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gigcal/gigcal/internal/calendar"
	"github.com/gigcal/gigcal/internal/dates"
	"github.com/gigcal/gigcal/internal/engine"
	"github.com/gigcal/gigcal/internal/identity"
	"github.com/gigcal/gigcal/internal/lock"
	"github.com/gigcal/gigcal/internal/state"
)

// Purger deletes tagged events between today and the horizon.
type Purger struct {
	Calendar calendar.Store
	State    *state.Store
	Lock     *lock.SerialLock

	Loc          *time.Location
	HorizonYears int
	LockWait     time.Duration

	// BatchLimit caps deletions per invocation; Pause is the fixed sleep
	// between deletions. Zero values mean the defaults (50, 200ms).
	BatchLimit int
	Pause      time.Duration

	Backoff engine.Backoff
	Logger  *log.Logger

	// sleep and today are swapped out in tests.
	sleep func(time.Duration)
	today string
}

// Result reports one invocation's progress.
type Result struct {
	Deleted   int
	Remaining int
	Done      bool
}

// Run deletes up to BatchLimit tagged events. Each invocation fetches the
// list fresh, so already-deleted events are simply absent and the scan
// always starts at the front; the persisted cursor is the running count of
// deletions across the pass, cleared when the pass finishes. Rate-limited
// deletions retry with capped exponential backoff.
//
// Returns a nil Result without mutating anything when the lock is busy.
func (p *Purger) Run(ctx context.Context) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[purge] ", log.LstdFlags)
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	limit := p.BatchLimit
	if limit <= 0 {
		limit = 50
	}
	pause := p.Pause
	if pause <= 0 {
		pause = 200 * time.Millisecond
	}

	if !p.Lock.TryAcquire(p.LockWait) {
		logger.Println("Another run holds the lock, standing down")
		return nil, nil
	}
	defer p.Lock.Release()

	today := p.today
	if today == "" {
		today = dates.Today(p.Loc)
	}
	horizon := dates.AddYears(today, p.HorizonYears)

	events, err := p.Calendar.List(today, horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	// Only tagged events are ours to destroy.
	var tagged []calendar.Event
	for _, ev := range events {
		if _, ok := identity.ExtractMarker(ev.Description); ok {
			tagged = append(tagged, ev)
		}
	}

	prior, _, err := p.State.PurgeCursor()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i := 0; i < len(tagged) && res.Deleted < limit; i++ {
		if err := ctx.Err(); err != nil {
			break
		}

		ev := tagged[i]
		err := p.Backoff.Do("purge delete", logger, func() error {
			return p.Calendar.Delete(ev.ID)
		})
		if err != nil {
			return res, fmt.Errorf("failed to delete event %q: %w", ev.Title, err)
		}

		res.Deleted++
		if err := p.State.SetPurgeCursor(prior + res.Deleted); err != nil {
			return res, err
		}

		if i+1 < len(tagged) && res.Deleted < limit {
			sleep(pause)
		}
	}

	if err := p.Calendar.Flush(); err != nil {
		return res, fmt.Errorf("failed to flush calendar: %w", err)
	}

	res.Remaining = len(tagged) - res.Deleted
	res.Done = res.Remaining == 0
	if res.Done {
		if err := p.State.ClearPurgeCursor(); err != nil {
			return res, err
		}
		logger.Printf("Purge complete: %d deleted this pass", res.Deleted)
	} else {
		logger.Printf("Purge paused: %d deleted, %d remaining", res.Deleted, res.Remaining)
	}
	return res, nil
}
