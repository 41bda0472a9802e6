package engine

import (
	"log"
	"strings"
	"time"

	"github.com/gigcal/gigcal/internal/calendar"
	"github.com/gigcal/gigcal/internal/dates"
	"github.com/gigcal/gigcal/internal/identity"
	"github.com/gigcal/gigcal/internal/sheet"
	"github.com/gigcal/gigcal/internal/venues"
)

// CellWrite is a pending write-back into the sheet: a computed identity or
// a canonicalized venue name.
type CellWrite struct {
	Row   int
	Col   int
	Value string
}

// Desired is the target event set computed from the sheet, keyed by
// identity, plus the sheet writes that must land before the calendar is
// queried.
type Desired struct {
	Events map[string]calendar.Event
	Writes []CellWrite

	// Skipped counts rows inside the scan that were not actionable or had
	// unparseable dates. They are logged, never fatal.
	Skipped int
}

// BuildDesired scans the sheet's data region and produces the desired
// state for the window [today, today+horizonYears).
//
// The scan starts after the header row and stops at the first all-empty
// sentinel row. Rows missing date, artist, or venue are skipped, as are
// rows whose date fails to parse or falls outside the window. When two
// rows hash to the same identity the later row wins; the earlier one is
// silently overwritten.
func BuildDesired(rows [][]sheet.Cell, cols sheet.Columns, headerIdx int,
	today string, horizonYears int, vn *venues.Normalizer, loc *time.Location,
	logger *log.Logger) *Desired {

	d := &Desired{Events: make(map[string]calendar.Event)}
	horizon := dates.AddYears(today, horizonYears)

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if sheet.RowEmpty(row) {
			break
		}

		artist := cellText(row, cols.Artist)
		venue := cellText(row, cols.Venue)
		dateRaw, dateDisplay := cellPair(row, cols.Date)
		if artist == "" || venue == "" || (dateRaw == "" && dateDisplay == "") {
			d.Skipped++
			continue
		}

		dayKey, ok := dates.DayKey(dateRaw, dateDisplay, loc)
		if !ok {
			logger.Printf("Row %d: unparseable date %q, skipping", i+1, firstNonEmpty(dateDisplay, dateRaw))
			d.Skipped++
			continue
		}
		if dayKey < today || dayKey >= horizon {
			continue
		}

		canonical, changed := vn.Resolve(venue)
		if changed {
			d.Writes = append(d.Writes, CellWrite{Row: i, Col: cols.Venue, Value: canonical})
		}

		id := identity.Fingerprint(dayKey, artist, canonical)
		if stored := cellText(row, cols.ID); stored != id {
			d.Writes = append(d.Writes, CellWrite{Row: i, Col: cols.ID, Value: id})
		}

		d.Events[id] = calendar.Event{
			Title:       artist,
			Location:    buildLocation(canonical, vn.Address(canonical)),
			Description: buildDescription(row, cols),
			Day:         dayKey,
		}
	}
	return d
}

func buildLocation(venue, address string) string {
	if address == "" {
		return venue
	}
	return venue + "\n" + address
}

// buildDescription renders the user-visible description: notes first, then
// a rating line, then a ticket line, newline-joined. The identity marker is
// appended separately at write time and is never part of this text.
func buildDescription(row []sheet.Cell, cols sheet.Columns) string {
	var lines []string
	if notes := cellText(row, cols.Notes); notes != "" {
		lines = append(lines, notes)
	}
	if rating := cellText(row, cols.Rating); rating != "" {
		lines = append(lines, "Rating: "+rating)
	}
	if ticket := cellText(row, cols.Ticket); ticket != "" {
		lines = append(lines, "Tickets: "+ticket)
	}
	return strings.Join(lines, "\n")
}

func cellText(row []sheet.Cell, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col].Text()
}

func cellPair(row []sheet.Cell, col int) (raw, display string) {
	if col < 0 || col >= len(row) {
		return "", ""
	}
	return row[col].Raw, row[col].Display
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
