package engine

import (
	"fmt"
	"strings"
	"time"
)

// RunSummary accumulates the human-readable lines describing one run. It
// is persisted as a single overwritten blob in the state store; only the
// most recent run is kept.
type RunSummary struct {
	StartedAt time.Time
	DryRun    bool

	Created int
	Updated int
	Deleted int
	Skipped int

	lines []string
}

// NewRunSummary starts a summary for a run beginning now.
func NewRunSummary(dryRun bool) *RunSummary {
	s := &RunSummary{StartedAt: time.Now(), DryRun: dryRun}
	if dryRun {
		s.Addf("Dry run started %s", s.StartedAt.Format(time.RFC1123))
	} else {
		s.Addf("Run started %s", s.StartedAt.Format(time.RFC1123))
	}
	return s
}

// Addf appends one formatted line.
func (s *RunSummary) Addf(format string, args ...interface{}) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

// Finish appends the closing counts line.
func (s *RunSummary) Finish() {
	s.Addf("Done: %d created, %d updated, %d deleted, %d rows skipped",
		s.Created, s.Updated, s.Deleted, s.Skipped)
}

// Lines returns the accumulated lines in order.
func (s *RunSummary) Lines() []string {
	return append([]string(nil), s.lines...)
}

// String renders the summary as the newline-joined blob that gets
// persisted.
func (s *RunSummary) String() string {
	return strings.Join(s.lines, "\n")
}
