// Package lock provides the bounded-wait mutual exclusion shared by every
// mutating entry point.
//
// The lock is advisory: reconciliation, archiving, and purging all take it
// before touching the sheet or calendar, and a caller that cannot get it
// within its wait budget stands down silently. The next scheduled run
// retries naturally, so a timeout is not an error.
package lock

import "time"

// SerialLock is a try-acquire mutex with a bounded wait. Not reentrant.
type SerialLock struct {
	ch chan struct{}
}

// New returns an unlocked SerialLock.
func New() *SerialLock {
	l := &SerialLock{ch: make(chan struct{}, 1)}
	l.ch <- struct{}{}
	return l
}

// TryAcquire waits up to wait for the lock. It returns true when the lock
// was acquired; the caller must then Release. A wait of zero polls once.
func (l *SerialLock) TryAcquire(wait time.Duration) bool {
	if wait <= 0 {
		select {
		case <-l.ch:
			return true
		default:
			return false
		}
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-l.ch:
		return true
	case <-t.C:
		return false
	}
}

// Release returns the lock. Releasing an unheld lock panics, since that
// always indicates a caller bug.
func (l *SerialLock) Release() {
	select {
	case l.ch <- struct{}{}:
	default:
		panic("lock: release of unheld SerialLock")
	}
}
