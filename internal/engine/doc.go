// Package engine implements the reconciliation core: building desired
// state from the sheet, diffing it against the calendar's tagged events,
// and applying the difference under the serial lock.
//
// The flow of one run:
//
//  1. Acquire the serial lock (bounded wait; silent abort on timeout)
//  2. Normalize/compact/sort the sheet
//  3. Build desired state (dates, venues, identities)
//  4. Apply identity/venue write-backs to the sheet
//  5. Fetch tagged events from the calendar for the same window
//  6. Diff
//  7. Apply creates/updates/deletes (skipped in dry-run)
//  8. Persist the run summary
//
// Identity write-back (step 4) always precedes the calendar fetch (step 5)
// so a run never diffs against stale identity.
package engine
