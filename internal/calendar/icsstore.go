package calendar

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/gigcal/gigcal/internal/dates"
)

// ICSStore is a calendar backed by a single iCalendar file on disk. Events
// are held in memory and the whole file is rewritten on Flush.
type ICSStore struct {
	path   string
	events map[string]Event
	dirty  bool
}

// OpenICS loads the calendar at path, creating an empty calendar when the
// file does not exist yet.
func OpenICS(path string) (*ICSStore, error) {
	s := &ICSStore{path: path, events: make(map[string]Event)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read calendar %s: %w", path, err)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar %s: %w", path, err)
	}

	for _, ve := range cal.Events() {
		ev, ok := fromVEvent(ve)
		if !ok {
			continue
		}
		s.events[ev.ID] = ev
	}
	return s, nil
}

func fromVEvent(ve *ical.VEvent) (Event, bool) {
	var ev Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, false
	}
	ev.ID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = unescapeText(p.Value)
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, false
	}
	ev.Day = start.Format(dates.Layout)
	return ev, true
}

// List implements Store.
func (s *ICSStore) List(from, to string) ([]Event, error) {
	var out []Event
	for _, ev := range s.events {
		if ev.Day >= from && ev.Day < to {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create implements Store.
func (s *ICSStore) Create(ev Event) (string, error) {
	ev.ID = newUID()
	s.events[ev.ID] = ev
	s.dirty = true
	return ev.ID, nil
}

// Update implements Store.
func (s *ICSStore) Update(id string, ev Event) error {
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("event %s not found in calendar", id)
	}
	ev.ID = id
	s.events[id] = ev
	s.dirty = true
	return nil
}

// Delete implements Store.
func (s *ICSStore) Delete(id string) error {
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("event %s not found in calendar", id)
	}
	delete(s.events, id)
	s.dirty = true
	return nil
}

// Flush serializes the calendar back to disk if anything changed.
func (s *ICSStore) Flush() error {
	if !s.dirty {
		return nil
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//gigcal//show calendar//EN")

	ids := make([]string, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		ev := s.events[id]
		day, err := time.Parse(dates.Layout, ev.Day)
		if err != nil {
			return fmt.Errorf("event %s has bad day key %q: %w", id, ev.Day, err)
		}

		ve := cal.AddEvent(id)
		ve.SetDtStampTime(time.Now().UTC())
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ve.SetProperty(ical.ComponentPropertySummary, escapeText(ev.Title))
		if ev.Location != "" {
			ve.SetProperty(ical.ComponentPropertyLocation, escapeText(ev.Location))
		}
		if ev.Description != "" {
			ve.SetProperty(ical.ComponentPropertyDescription, escapeText(ev.Description))
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(cal.Serialize()), 0644); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace calendar: %w", err)
	}
	s.dirty = false
	return nil
}

func newUID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("gigcal-%d@gigcal", time.Now().UnixNano())
	}
	return "gigcal-" + hex.EncodeToString(b[:]) + "@gigcal"
}

// escapeText applies RFC 5545 TEXT escaping. The library passes property
// values through verbatim, so the store owns escaping on both sides.
func escapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"\n", `\n`,
		`;`, `\;`,
		`,`, `\,`,
	)
	return r.Replace(s)
}

func unescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n', 'N':
				b.WriteByte('\n')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
