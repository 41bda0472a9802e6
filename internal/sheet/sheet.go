// Package sheet models the show spreadsheet: rows of cells with parallel
// raw and display values, header discovery, and the store operations the
// reconciler and archiver mutate through.
package sheet

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gigcal/gigcal/internal/config"
	"github.com/gigcal/gigcal/internal/dates"
)

// Cell is one spreadsheet cell. Raw is the stored value (for dates this is
// often a serialized timestamp at UTC midnight); Display is the rendered
// string the user sees. For CSV-backed sheets the two are equal.
type Cell struct {
	Raw     string
	Display string
}

// NewCell returns a cell whose raw and display values are both v.
func NewCell(v string) Cell {
	return Cell{Raw: v, Display: v}
}

// Text returns the display value, falling back to the raw value.
func (c Cell) Text() string {
	if s := strings.TrimSpace(c.Display); s != "" {
		return s
	}
	return strings.TrimSpace(c.Raw)
}

// Empty reports whether the cell is blank after trimming.
func (c Cell) Empty() bool {
	return strings.TrimSpace(c.Raw) == "" && strings.TrimSpace(c.Display) == ""
}

// RowEmpty reports whether every cell in the row is blank. An all-empty row
// is the terminal sentinel that ends a scan.
func RowEmpty(row []Cell) bool {
	for _, c := range row {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Columns maps the sheet's column indexes. Optional columns are -1 when the
// sheet doesn't carry them.
type Columns struct {
	Date   int
	Artist int
	Venue  int
	Rating int
	Notes  int
	Ticket int
	ID     int
}

// DefaultHeaderScan is how many leading rows are searched for the header.
const DefaultHeaderScan = 10

// DetectHeader finds the header row and builds the column map. The header
// is the first row (within scanLimit) whose cells contain all of "date",
// "artist", and "venue" as case-insensitive substrings; fallbackRow is used
// when no row qualifies. Missing required columns are a fatal configuration
// error, reported before anything is mutated.
func DetectHeader(rows [][]Cell, scanLimit, fallbackRow int) (int, Columns, error) {
	limit := scanLimit
	if limit > len(rows) {
		limit = len(rows)
	}

	headerIdx := -1
	for i := 0; i < limit; i++ {
		if rowHasAll(rows[i], "date", "artist", "venue") {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		if fallbackRow < 0 || fallbackRow >= len(rows) {
			return 0, Columns{}, config.Missing("sheet header row")
		}
		headerIdx = fallbackRow
	}

	cols, err := mapColumns(rows[headerIdx])
	if err != nil {
		return 0, Columns{}, err
	}
	return headerIdx, cols, nil
}

func rowHasAll(row []Cell, keywords ...string) bool {
	for _, kw := range keywords {
		found := false
		for _, c := range row {
			if strings.Contains(strings.ToLower(c.Text()), kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func mapColumns(header []Cell) (Columns, error) {
	cols := Columns{Date: -1, Artist: -1, Venue: -1, Rating: -1, Notes: -1, Ticket: -1, ID: -1}

	for i, c := range header {
		h := strings.ToLower(c.Text())
		switch {
		case cols.Date == -1 && strings.Contains(h, "date"):
			cols.Date = i
		case cols.Artist == -1 && strings.Contains(h, "artist"):
			cols.Artist = i
		case cols.Venue == -1 && strings.Contains(h, "venue"):
			cols.Venue = i
		case cols.Rating == -1 && strings.Contains(h, "rating"):
			cols.Rating = i
		case cols.Notes == -1 && strings.Contains(h, "notes"):
			cols.Notes = i
		case cols.Ticket == -1 && strings.Contains(h, "ticket"):
			cols.Ticket = i
		case cols.ID == -1 && isIDHeader(h):
			cols.ID = i
		}
	}

	for _, req := range []struct {
		name string
		idx  int
	}{
		{"date", cols.Date},
		{"artist", cols.Artist},
		{"venue", cols.Venue},
		{"id", cols.ID},
	} {
		if req.idx == -1 {
			return cols, config.Missing(fmt.Sprintf("sheet column %q", req.name))
		}
	}
	return cols, nil
}

// isIDHeader matches the identity column without tripping on every header
// that happens to contain the letters "id".
func isIDHeader(h string) bool {
	return h == "id" || strings.Contains(h, "event id") || strings.Contains(h, "identity")
}

// Store is the mutable row store backing a sheet. Implementations:
// MemStore (tests and dry runs) and FileStore (CSV on disk).
type Store interface {
	// Name identifies the sheet in logs and errors.
	Name() string
	// Rows returns a deep copy of all rows, header included.
	Rows() [][]Cell
	// SetCell overwrites one cell's raw and display values.
	SetCell(row, col int, value string) error
	// Append adds rows to the end of the sheet.
	Append(rows [][]Cell) error
	// Delete removes one row. Callers deleting several rows must do so in
	// descending index order.
	Delete(row int) error
	// SortByDate sorts rows[start:] ascending by the day key in col.
	// Rows without a parseable date keep their relative order at the end.
	SortByDate(start, col int, loc *time.Location) error
	// Compact removes all-empty rows from rows[start:].
	Compact(start int) error
	// Flush persists pending mutations.
	Flush() error
}

// Normalize compacts and date-sorts the data region of a sheet. Both the
// reconciler and the archiver run this first so row indexes are stable and
// the sheet stays readable.
func Normalize(st Store, start, dateCol int, loc *time.Location) error {
	if err := st.Compact(start); err != nil {
		return err
	}
	return st.SortByDate(start, dateCol, loc)
}

// sortRows is the shared SortByDate implementation.
func sortRows(rows [][]Cell, start, col int, loc *time.Location) {
	if start < 0 || start >= len(rows) {
		return
	}
	data := rows[start:]
	type keyedRow struct {
		row []Cell
		key string
		ok  bool
	}
	keyed := make([]keyedRow, len(data))
	for i, row := range data {
		kr := keyedRow{row: row}
		if col < len(row) {
			kr.key, kr.ok = dates.DayKey(row[col].Raw, row[col].Display, loc)
		}
		keyed[i] = kr
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		switch {
		case keyed[i].ok && keyed[j].ok:
			return keyed[i].key < keyed[j].key
		case keyed[i].ok:
			return true
		default:
			return false
		}
	})
	for i := range keyed {
		data[i] = keyed[i].row
	}
}
