// Package identity derives the stable fingerprint linking a sheet row to
// its calendar event, and embeds/extracts that fingerprint in event
// descriptions.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

// HexLen is the length of a fingerprint in hex characters.
const HexLen = 16

// Fingerprint derives the identity for a show from its day key, artist, and
// canonical venue. Artist and venue are normalized (lowercased, punctuation
// stripped, whitespace collapsed) so cosmetic edits don't mint a new
// identity. Rating, notes, and ticket fields are deliberately excluded.
//
// Collisions are possible by construction: two rows with the same
// (day, artist, venue) share one identity, and the later row wins.
func Fingerprint(dayKey, artist, venue string) string {
	seed := dayKey + "|" + normalize(artist) + "|" + normalize(venue)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:HexLen]
}

// normalize lowercases s, drops punctuation, and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Punctuation and symbols are dropped entirely.
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// markerPrefix tags the final description paragraph that carries the
// fingerprint. The exact byte sequence is load-bearing: extraction and
// embedding must agree across versions or every event re-creates.
const markerPrefix = "gigcal:"

var markerRe = regexp.MustCompile(`(?:^|\n)` + markerPrefix + `(\w{16,64})\s*$`)

// AppendMarker returns description with the identity marker appended as a
// final paragraph, separated from user-visible text by a blank line.
func AppendMarker(description, id string) string {
	desc := strings.TrimRight(description, "\n")
	if desc == "" {
		return markerPrefix + id
	}
	return desc + "\n\n" + markerPrefix + id
}

// ExtractMarker pulls the identity out of an event description. Events
// without a marker are untagged and invisible to reconciliation.
func ExtractMarker(description string) (string, bool) {
	m := markerRe.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// StripMarker returns the user-visible portion of a description, with the
// marker paragraph and its separating blank line removed. Diffing compares
// this portion only, since the marker is always re-appended on write.
func StripMarker(description string) string {
	loc := markerRe.FindStringIndex(description)
	if loc == nil {
		return description
	}
	return strings.TrimRight(description[:loc[0]], "\n")
}
