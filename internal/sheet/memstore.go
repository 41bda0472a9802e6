package sheet

import (
	"fmt"
	"time"
)

// MemStore is an in-memory Store. It backs tests, serves as the working
// copy for dry runs, and is embedded by FileStore.
type MemStore struct {
	name string
	rows [][]Cell
}

// NewMemStore creates an in-memory sheet with the given rows.
func NewMemStore(name string, rows [][]Cell) *MemStore {
	return &MemStore{name: name, rows: copyRows(rows)}
}

// Name implements Store.
func (s *MemStore) Name() string { return s.name }

// Rows implements Store.
func (s *MemStore) Rows() [][]Cell {
	return copyRows(s.rows)
}

// SetCell implements Store.
func (s *MemStore) SetCell(row, col int, value string) error {
	if row < 0 || row >= len(s.rows) {
		return fmt.Errorf("%s: row %d out of range", s.name, row)
	}
	// Grow the row when the sheet is ragged and the target column sits
	// past its current end.
	for len(s.rows[row]) <= col {
		s.rows[row] = append(s.rows[row], Cell{})
	}
	s.rows[row][col] = NewCell(value)
	return nil
}

// Append implements Store.
func (s *MemStore) Append(rows [][]Cell) error {
	s.rows = append(s.rows, copyRows(rows)...)
	return nil
}

// Delete implements Store.
func (s *MemStore) Delete(row int) error {
	if row < 0 || row >= len(s.rows) {
		return fmt.Errorf("%s: row %d out of range", s.name, row)
	}
	s.rows = append(s.rows[:row], s.rows[row+1:]...)
	return nil
}

// SortByDate implements Store.
func (s *MemStore) SortByDate(start, col int, loc *time.Location) error {
	sortRows(s.rows, start, col, loc)
	return nil
}

// Compact implements Store.
func (s *MemStore) Compact(start int) error {
	if start < 0 || start > len(s.rows) {
		return nil
	}
	kept := s.rows[:start]
	for _, row := range s.rows[start:] {
		if !RowEmpty(row) {
			kept = append(kept, row)
		}
	}
	s.rows = kept
	return nil
}

// Flush implements Store. In-memory sheets have nothing to persist.
func (s *MemStore) Flush() error { return nil }

// Snapshot returns an independent deep copy. The reconciler runs dry-run
// passes against a snapshot so the real sheet is never touched.
func (s *MemStore) Snapshot() *MemStore {
	return NewMemStore(s.name, s.rows)
}

func copyRows(rows [][]Cell) [][]Cell {
	out := make([][]Cell, len(rows))
	for i, row := range rows {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}
