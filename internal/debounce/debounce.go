// Package debounce coalesces bursts of sheet-edit notifications into a
// single delayed reconciliation.
//
// Every edit restarts the delay timer, and a fired timer double-checks the
// guard window against the durable last-edit timestamp before running.
// The guard catches the race where an edit lands after a timer has fired
// but before it runs: the stale invocation sees a fresh edit and stands
// down, leaving the work to the run that edit scheduled.
package debounce

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// MarkStore is the durable record of the most recent edit. Backed by the
// state database in production so restarts and parallel processes agree.
type MarkStore interface {
	MarkEdit(t time.Time) error
	LastEdit() (t time.Time, ok bool, err error)
}

// Scheduler is a trailing-edge debouncer. Delay is how long after the last
// edit the run fires; Guard is the minimum quiet period a fired run
// requires. Guard must be shorter than Delay.
type Scheduler struct {
	delay time.Duration
	guard time.Duration
	marks MarkStore
	run   func()

	logger *log.Logger
	clock  func() time.Time

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Scheduler that invokes run after edits settle.
func New(delay, guard time.Duration, marks MarkStore, run func(), logger *log.Logger) (*Scheduler, error) {
	if guard >= delay {
		return nil, fmt.Errorf("debounce guard (%s) must be shorter than delay (%s)", guard, delay)
	}
	if marks == nil {
		return nil, fmt.Errorf("mark store cannot be nil")
	}
	if run == nil {
		return nil, fmt.Errorf("run callback cannot be nil")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[debounce] ", log.LstdFlags)
	}
	return &Scheduler{
		delay:  delay,
		guard:  guard,
		marks:  marks,
		run:    run,
		logger: logger,
		clock:  time.Now,
	}, nil
}

// NotifyEdit records an edit and (re)schedules the delayed run. Any
// previously scheduled run is cancelled; at most one reconciliation fires
// per settled burst.
func (s *Scheduler) NotifyEdit() {
	now := s.clock()
	if err := s.marks.MarkEdit(now); err != nil {
		s.logger.Printf("Failed to record edit timestamp: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

// Stop cancels any pending run.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire runs the callback unless a more recent edit has already scheduled a
// later run.
func (s *Scheduler) fire() {
	last, ok, err := s.marks.LastEdit()
	if err != nil {
		s.logger.Printf("Failed to read edit timestamp: %v", err)
	}
	if ok && s.clock().Sub(last) < s.guard {
		s.logger.Println("Recent edit detected, deferring to the rescheduled run")
		return
	}
	s.run()
}
