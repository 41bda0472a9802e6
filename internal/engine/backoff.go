package engine

import (
	"errors"
	"log"
	"time"

	"github.com/gigcal/gigcal/internal/calendar"
)

// Backoff controls the retry policy for rate-limited calendar mutations:
// exponential delay from Base, doubling up to the Cap ceiling, giving up
// after Retries attempts.
type Backoff struct {
	Base    time.Duration
	Cap     time.Duration
	Retries int

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// DefaultBackoff returns the production retry policy.
func DefaultBackoff() Backoff {
	return Backoff{Base: 500 * time.Millisecond, Cap: 8 * time.Second, Retries: 5}
}

// Do runs fn, retrying on RateLimitError with exponential backoff. Any
// other error, and a rate limit that outlasts the retry budget, is
// returned to the caller.
func (b Backoff) Do(op string, logger *log.Logger, fn func() error) error {
	sleep := b.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	delay := b.Base
	for attempt := 0; ; attempt++ {
		err := fn()
		var rl *calendar.RateLimitError
		if err == nil || !errors.As(err, &rl) {
			return err
		}
		if attempt >= b.Retries {
			return err
		}
		logger.Printf("Rate limited during %s, retrying in %s", op, delay)
		sleep(delay)
		delay *= 2
		if delay > b.Cap {
			delay = b.Cap
		}
	}
}
