package archive

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/gigcal/gigcal/internal/lock"
	"github.com/gigcal/gigcal/internal/sheet"
)

var testLogger = log.New(os.Stderr, "[test] ", 0)

func cells(vals ...string) []sheet.Cell {
	row := make([]sheet.Cell, len(vals))
	for i, v := range vals {
		row[i] = sheet.NewCell(v)
	}
	return row
}

func headerRow() []sheet.Cell {
	return cells("Date", "Artist", "Venue", "Rating", "Notes", "Ticket", "Event ID")
}

func dateCol(t *testing.T, st sheet.Store) []string {
	t.Helper()
	var out []string
	for i, row := range st.Rows() {
		if i == 0 || sheet.RowEmpty(row) {
			continue
		}
		out = append(out, row[0].Text())
	}
	return out
}

func testMover(active, archive sheet.Store) *Mover {
	return &Mover{
		Active:  active,
		Archive: archive,
		Lock:    lock.New(),
		Loc:     time.UTC,
		Logger:  testLogger,
		today:   "2025-02-01",
	}
}

func TestMover_MovesPastRows(t *testing.T) {
	active := sheet.NewMemStore("Shows", [][]sheet.Cell{
		headerRow(),
		cells("2025-01-15", "Past Band", "Nectar Lounge", "5/5", "great", "", "aaa"),
		cells("2025-03-01", "Future Band", "Nectar Lounge", "", "", "", "bbb"),
		cells("2025-01-20", "Other Past Band", "Showbox SoDo", "", "", "", "ccc"),
	})
	archive := sheet.NewMemStore("Archive", [][]sheet.Cell{
		headerRow(),
		cells("2024-06-01", "Old Band", "Nectar Lounge", "", "", "", "zzz"),
	})

	moved, err := testMover(active, archive).Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if moved != 2 {
		t.Fatalf("moved = %d, want 2", moved)
	}

	if got := dateCol(t, active); len(got) != 1 || got[0] != "2025-03-01" {
		t.Errorf("active dates = %v, want only the future row", got)
	}

	// Archive picks up both past rows and ends sorted by date.
	got := dateCol(t, archive)
	want := []string{"2024-06-01", "2025-01-15", "2025-01-20"}
	if len(got) != len(want) {
		t.Fatalf("archive dates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("archive dates = %v, want %v", got, want)
			break
		}
	}

	// Full row contents survive the move.
	for _, row := range archive.Rows() {
		if row[1].Text() == "Past Band" {
			if row[3].Text() != "5/5" || row[4].Text() != "great" || row[6].Text() != "aaa" {
				t.Errorf("archived row lost content: %+v", row)
			}
			return
		}
	}
	t.Error("archived row not found")
}

// TestMover_RowDatedTodayStays: the archive boundary is strictly before
// today, mirroring the reconcile window which still includes today.
func TestMover_RowDatedTodayStays(t *testing.T) {
	active := sheet.NewMemStore("Shows", [][]sheet.Cell{
		headerRow(),
		cells("2025-02-01", "Tonight Band", "Nectar Lounge", "", "", "", ""),
	})
	archive := sheet.NewMemStore("Archive", [][]sheet.Cell{headerRow()})

	moved, err := testMover(active, archive).Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if moved != 0 {
		t.Errorf("moved = %d, want 0", moved)
	}
	if got := dateCol(t, active); len(got) != 1 {
		t.Errorf("active dates = %v, want the row kept", got)
	}
}

func TestMover_NothingToArchive(t *testing.T) {
	active := sheet.NewMemStore("Shows", [][]sheet.Cell{
		headerRow(),
		cells("2025-03-01", "Future Band", "Nectar Lounge", "", "", "", ""),
	})
	archive := sheet.NewMemStore("Archive", [][]sheet.Cell{headerRow()})

	moved, err := testMover(active, archive).Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if moved != 0 {
		t.Errorf("moved = %d, want 0", moved)
	}
}

// TestMover_UnparseableDateStays: rows whose date cannot be parsed are left
// in place rather than guessed at.
func TestMover_UnparseableDateStays(t *testing.T) {
	active := sheet.NewMemStore("Shows", [][]sheet.Cell{
		headerRow(),
		cells("tbd", "Mystery Band", "Nectar Lounge", "", "", "", ""),
		cells("2025-01-15", "Past Band", "Nectar Lounge", "", "", "", ""),
	})
	archive := sheet.NewMemStore("Archive", [][]sheet.Cell{headerRow()})

	moved, err := testMover(active, archive).Run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if moved != 1 {
		t.Fatalf("moved = %d, want 1", moved)
	}
	for _, row := range active.Rows() {
		if row[1].Text() == "Mystery Band" {
			return
		}
	}
	t.Error("unparseable-date row should remain in the active sheet")
}

func TestMover_LockBusySilentAbort(t *testing.T) {
	active := sheet.NewMemStore("Shows", [][]sheet.Cell{
		headerRow(),
		cells("2025-01-15", "Past Band", "Nectar Lounge", "", "", "", ""),
	})
	archive := sheet.NewMemStore("Archive", [][]sheet.Cell{headerRow()})

	m := testMover(active, archive)
	m.LockWait = 10 * time.Millisecond
	if !m.Lock.TryAcquire(0) {
		t.Fatal("setup: could not take the lock")
	}
	defer m.Lock.Release()

	moved, err := m.Run()
	if moved != 0 || err != nil {
		t.Fatalf("Run = %d, %v; want 0, nil", moved, err)
	}
	if got := dateCol(t, active); len(got) != 1 {
		t.Errorf("active sheet mutated while lock was held: %v", got)
	}
}
