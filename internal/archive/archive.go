// Package archive relocates past show rows from the active sheet into the
// archive sheet.
package archive

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gigcal/gigcal/internal/dates"
	"github.com/gigcal/gigcal/internal/lock"
	"github.com/gigcal/gigcal/internal/sheet"
)

// Mover moves rows whose date has passed from Active to Archive,
// preserving full row contents. It runs under the same serial lock as the
// reconciler since both mutate the active sheet.
type Mover struct {
	Active  sheet.Store
	Archive sheet.Store
	Lock    *lock.SerialLock

	Loc      *time.Location
	LockWait time.Duration

	HeaderScan        int
	FallbackHeaderRow int

	Logger *log.Logger

	// today overrides the clock in tests.
	today string
}

// Run performs one archive pass. Rows dated strictly before today move to
// the end of the archive sheet in their original order and are deleted
// from the active sheet in descending row order, so pending deletions
// never invalidate each other's indexes. Both sheets are re-sorted
// afterward. Finding nothing to move is a successful no-op.
//
// Returns (0, nil) without mutating anything when the lock is busy.
func (m *Mover) Run() (moved int, err error) {
	logger := m.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[archive] ", log.LstdFlags)
	}

	if !m.Lock.TryAcquire(m.LockWait) {
		logger.Println("Another run holds the lock, standing down")
		return 0, nil
	}
	defer m.Lock.Release()

	scan := m.HeaderScan
	if scan <= 0 {
		scan = sheet.DefaultHeaderScan
	}
	fallback := m.FallbackHeaderRow
	if fallback == 0 {
		fallback = -1
	}

	activeHeader, cols, err := sheet.DetectHeader(m.Active.Rows(), scan, fallback)
	if err != nil {
		return 0, err
	}
	archiveHeader, archiveCols, err := sheet.DetectHeader(m.Archive.Rows(), scan, fallback)
	if err != nil {
		return 0, err
	}

	if err := sheet.Normalize(m.Active, activeHeader+1, cols.Date, m.Loc); err != nil {
		return 0, fmt.Errorf("failed to normalize active sheet: %w", err)
	}

	today := m.today
	if today == "" {
		today = dates.Today(m.Loc)
	}

	rows := m.Active.Rows()
	var pastRows [][]sheet.Cell
	var pastIdx []int
	for i := activeHeader + 1; i < len(rows); i++ {
		row := rows[i]
		if sheet.RowEmpty(row) {
			break
		}
		if cols.Date >= len(row) {
			continue
		}
		key, ok := dates.DayKey(row[cols.Date].Raw, row[cols.Date].Display, m.Loc)
		if !ok {
			continue
		}
		if key < today {
			pastRows = append(pastRows, row)
			pastIdx = append(pastIdx, i)
		}
	}

	if len(pastRows) == 0 {
		logger.Println("Nothing to archive")
		return 0, nil
	}

	if err := m.Archive.Append(pastRows); err != nil {
		return 0, fmt.Errorf("failed to append to archive sheet: %w", err)
	}
	for i := len(pastIdx) - 1; i >= 0; i-- {
		if err := m.Active.Delete(pastIdx[i]); err != nil {
			return 0, fmt.Errorf("failed to delete archived row: %w", err)
		}
	}

	if err := sheet.Normalize(m.Active, activeHeader+1, cols.Date, m.Loc); err != nil {
		return 0, fmt.Errorf("failed to re-sort active sheet: %w", err)
	}
	if err := sheet.Normalize(m.Archive, archiveHeader+1, archiveCols.Date, m.Loc); err != nil {
		return 0, fmt.Errorf("failed to re-sort archive sheet: %w", err)
	}

	if err := m.Active.Flush(); err != nil {
		return 0, err
	}
	if err := m.Archive.Flush(); err != nil {
		return 0, err
	}

	logger.Printf("Archived %d rows", len(pastRows))
	return len(pastRows), nil
}
