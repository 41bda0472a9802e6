package engine

import (
	"testing"

	"github.com/gigcal/gigcal/internal/calendar"
	"github.com/gigcal/gigcal/internal/identity"
)

func TestDiff_Classification(t *testing.T) {
	desired := map[string]calendar.Event{
		"aaa": {Title: "New Band", Day: "2025-03-01"},
		"bbb": {Title: "Changed Band", Day: "2025-03-02", Location: "Nectar Lounge"},
		"ccc": {Title: "Same Band", Day: "2025-03-03"},
	}
	existing := map[string]calendar.Event{
		"bbb": {ID: "cal-2", Title: "Changed Band", Day: "2025-03-02", Location: "Old Room",
			Description: identity.AppendMarker("", "bbb")},
		"ccc": {ID: "cal-3", Title: "Same Band", Day: "2025-03-03",
			Description: identity.AppendMarker("", "ccc")},
		"ddd": {ID: "cal-4", Title: "Stale Band", Day: "2025-03-04",
			Description: identity.AppendMarker("", "ddd")},
	}

	actions := Diff(desired, existing)

	if len(actions.Creates) != 1 || actions.Creates[0].Identity != "aaa" {
		t.Errorf("creates = %+v, want [aaa]", actions.Creates)
	}
	if len(actions.Updates) != 1 || actions.Updates[0].Identity != "bbb" {
		t.Errorf("updates = %+v, want [bbb]", actions.Updates)
	}
	if actions.Updates[0].Existing.ID != "cal-2" {
		t.Errorf("update should carry the existing event's store ID, got %+v", actions.Updates[0].Existing)
	}
	if len(actions.Deletes) != 1 || actions.Deletes[0].ID != "cal-4" {
		t.Errorf("deletes = %+v, want [cal-4]", actions.Deletes)
	}
}

// TestDiff_MarkerIgnoredInComparison: the identity marker appended to stored
// descriptions must not make an otherwise identical event look changed.
func TestDiff_MarkerIgnoredInComparison(t *testing.T) {
	desired := map[string]calendar.Event{
		"aaa": {Title: "Band", Day: "2025-03-01", Description: "Great show\nRating: 5/5"},
	}
	existing := map[string]calendar.Event{
		"aaa": {ID: "cal-1", Title: "Band", Day: "2025-03-01",
			Description: identity.AppendMarker("Great show\nRating: 5/5", "aaa")},
	}

	if actions := Diff(desired, existing); !actions.Empty() {
		t.Errorf("diff = %+v, want empty", actions)
	}
}

func TestDiff_DescriptionChangeTriggersUpdate(t *testing.T) {
	desired := map[string]calendar.Event{
		"aaa": {Title: "Band", Day: "2025-03-01", Description: "new notes"},
	}
	existing := map[string]calendar.Event{
		"aaa": {ID: "cal-1", Title: "Band", Day: "2025-03-01",
			Description: identity.AppendMarker("old notes", "aaa")},
	}

	actions := Diff(desired, existing)
	if len(actions.Updates) != 1 {
		t.Fatalf("updates = %+v, want 1", actions.Updates)
	}
}

// TestDiff_Deterministic: identical inputs always produce identically
// ordered actions.
func TestDiff_Deterministic(t *testing.T) {
	desired := map[string]calendar.Event{
		"ccc": {Title: "C"}, "aaa": {Title: "A"}, "bbb": {Title: "B"},
	}

	first := Diff(desired, nil)
	for i := 0; i < 10; i++ {
		again := Diff(desired, nil)
		for j := range first.Creates {
			if again.Creates[j].Identity != first.Creates[j].Identity {
				t.Fatalf("iteration %d: order changed at %d", i, j)
			}
		}
	}
	if first.Creates[0].Identity != "aaa" || first.Creates[2].Identity != "ccc" {
		t.Errorf("creates not sorted by identity: %+v", first.Creates)
	}
}
