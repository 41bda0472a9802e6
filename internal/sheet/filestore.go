package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/gigcal/gigcal/internal/config"
)

// FileStore is a CSV-backed Store. The whole sheet is held in memory and
// written back on Flush; CSV cells have no separate display form, so raw
// and display values coincide.
type FileStore struct {
	mem  *MemStore
	path string
}

// OpenFile loads a CSV sheet from path. The file must exist: a missing
// sheet is a configuration error, reported before any run mutates anything.
func OpenFile(name, path string) (*FileStore, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, config.Missing(fmt.Sprintf("sheet %q (%s)", name, path))
		}
		return nil, fmt.Errorf("failed to open sheet %q: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // sheets are ragged
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet %q: %w", name, err)
	}

	rows := make([][]Cell, len(records))
	for i, rec := range records {
		row := make([]Cell, len(rec))
		for j, v := range rec {
			row[j] = NewCell(v)
		}
		rows[i] = row
	}

	return &FileStore{mem: NewMemStore(name, rows), path: path}, nil
}

// Name implements Store.
func (s *FileStore) Name() string { return s.mem.Name() }

// Rows implements Store.
func (s *FileStore) Rows() [][]Cell { return s.mem.Rows() }

// SetCell implements Store.
func (s *FileStore) SetCell(row, col int, value string) error {
	return s.mem.SetCell(row, col, value)
}

// Append implements Store.
func (s *FileStore) Append(rows [][]Cell) error { return s.mem.Append(rows) }

// Delete implements Store.
func (s *FileStore) Delete(row int) error { return s.mem.Delete(row) }

// SortByDate implements Store.
func (s *FileStore) SortByDate(start, col int, loc *time.Location) error {
	return s.mem.SortByDate(start, col, loc)
}

// Compact implements Store.
func (s *FileStore) Compact(start int) error { return s.mem.Compact(start) }

// Snapshot returns an in-memory copy of the current contents.
func (s *FileStore) Snapshot() *MemStore { return s.mem.Snapshot() }

// Flush writes the sheet back to disk. The write goes through a temp file
// and rename so a crash can't leave a truncated sheet.
func (s *FileStore) Flush() error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to write sheet %q: %w", s.Name(), err)
	}

	w := csv.NewWriter(f)
	for _, row := range s.mem.rows {
		rec := make([]string, len(row))
		for j, c := range row {
			rec[j] = c.Raw
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write sheet %q: %w", s.Name(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write sheet %q: %w", s.Name(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close sheet %q: %w", s.Name(), err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace sheet %q: %w", s.Name(), err)
	}
	return nil
}
