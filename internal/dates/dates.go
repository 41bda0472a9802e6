// Package dates normalizes the date representations found in show sheets
// into canonical day keys.
//
// A day key is a YYYY-MM-DD string. Day keys compare correctly with plain
// string comparison, which the rest of the codebase relies on for window
// checks and sorting.
package dates

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Layout is the canonical day key layout.
const Layout = "2006-01-02"

// textLayouts are the cell formats recognized before falling back to
// natural-language parsing. Order matters: ISO first, then the two formats
// spreadsheets most often render.
var textLayouts = []string{
	Layout,
	"2-Jan-2006",
	"1/2/2006",
}

// rawLayouts cover serialized raw cell values. Spreadsheet backends store
// raw dates at UTC midnight, so these are only consulted when no display
// string is available.
var rawLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	Layout,
	"2-Jan-2006",
	"1/2/2006",
}

var fallback = newFallbackParser()

func newFallbackParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// DayKey resolves a cell's raw value and rendered display string to a day
// key in loc. The display string wins when present: raw values sit at UTC
// midnight and shift a day when read in a western timezone. Returns
// ok=false when neither form parses; callers skip such rows.
func DayKey(raw, display string, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = time.Local
	}
	if d := strings.TrimSpace(display); d != "" {
		if key, ok := parseText(d, loc); ok {
			return key, true
		}
	}
	if r := strings.TrimSpace(raw); r != "" {
		if key, ok := parseRaw(r, loc); ok {
			return key, true
		}
	}
	return "", false
}

func parseText(s string, loc *time.Location) (string, bool) {
	for _, layout := range textLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return anchor(t, loc), true
		}
	}
	// Locale-generic fallback ("March 1, 2025", "Sat Mar 1" and friends).
	res, err := fallback.Parse(s, time.Now().In(loc))
	if err == nil && res != nil {
		return anchor(res.Time, loc), true
	}
	return "", false
}

func parseRaw(s string, loc *time.Location) (string, bool) {
	for _, layout := range rawLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Raw timestamps are calendar dates, not instants: take the
			// date fields as written, ignoring any zone offset.
			return anchor(t, loc), true
		}
	}
	return parseText(s, loc)
}

// anchor pins a parsed date to local noon. Midnight-anchored dates flip to
// the previous day under DST shifts and negative UTC offsets; noon never
// does.
func anchor(t time.Time, loc *time.Location) string {
	n := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc)
	return n.Format(Layout)
}

// Today returns the current day key in loc.
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format(Layout)
}

// AddYears returns key shifted forward by years. Used to compute the
// forward horizon of the reconciliation window.
func AddYears(key string, years int) string {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return key
	}
	return t.AddDate(years, 0, 0).Format(Layout)
}

// Valid reports whether key is a well-formed day key.
func Valid(key string) bool {
	_, err := time.Parse(Layout, key)
	return err == nil
}
