package engine

import (
	"sort"

	"github.com/gigcal/gigcal/internal/calendar"
	"github.com/gigcal/gigcal/internal/identity"
)

// Change pairs an identity with the event content it should have. For
// updates, Existing carries the calendar's current event (and its store ID).
type Change struct {
	Identity string
	Want     calendar.Event
	Existing calendar.Event
}

// Actions is the classified difference between desired state and the
// calendar's tagged events. Actions key on disjoint identities, so apply
// order between them doesn't matter.
type Actions struct {
	Creates []Change
	Updates []Change
	Deletes []calendar.Event
}

// Empty reports whether the diff found nothing to do.
func (a Actions) Empty() bool {
	return len(a.Creates) == 0 && len(a.Updates) == 0 && len(a.Deletes) == 0
}

// Diff compares desired state against the calendar's tagged events.
//
// Desired entries absent from the calendar become creates. Entries present
// in both become updates when title, location, day, or the user-visible
// description differ; the comparison strips the identity marker from the
// existing description, since the marker is always re-appended on write
// and is not user content. Tagged events absent from desired become
// deletes. Output order is deterministic (sorted by identity / event ID).
func Diff(desired map[string]calendar.Event, existing map[string]calendar.Event) Actions {
	var actions Actions

	ids := make([]string, 0, len(desired))
	for id := range desired {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		want := desired[id]
		have, ok := existing[id]
		if !ok {
			actions.Creates = append(actions.Creates, Change{Identity: id, Want: want})
			continue
		}
		if eventDiffers(want, have) {
			actions.Updates = append(actions.Updates, Change{Identity: id, Want: want, Existing: have})
		}
	}

	stale := make([]string, 0)
	for id := range existing {
		if _, ok := desired[id]; !ok {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	for _, id := range stale {
		actions.Deletes = append(actions.Deletes, existing[id])
	}

	return actions
}

func eventDiffers(want, have calendar.Event) bool {
	return want.Title != have.Title ||
		want.Location != have.Location ||
		want.Day != have.Day ||
		want.Description != identity.StripMarker(have.Description)
}
