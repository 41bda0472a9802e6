package identity

import (
	"strings"
	"testing"
)

// TestFingerprint_Deterministic verifies that the same inputs always yield
// the same identity, bit for bit.
func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("2025-03-01", "Test Band", "Nectar Lounge")
	for i := 0; i < 20; i++ {
		if got := Fingerprint("2025-03-01", "Test Band", "Nectar Lounge"); got != a {
			t.Fatalf("fingerprint not deterministic: %q vs %q", got, a)
		}
	}
	if len(a) != HexLen {
		t.Errorf("fingerprint length = %d, want %d", len(a), HexLen)
	}
	for _, c := range a {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("fingerprint contains non-hex character %q", c)
		}
	}
}

// TestFingerprint_NormalizationInsensitive verifies that case, punctuation,
// and whitespace variations of artist/venue map to one identity.
func TestFingerprint_NormalizationInsensitive(t *testing.T) {
	base := Fingerprint("2025-03-01", "Test Band", "Nectar Lounge")

	variants := []struct{ artist, venue string }{
		{"test band", "nectar lounge"},
		{"TEST BAND", "NECTAR LOUNGE"},
		{"Test  Band ", " Nectar   Lounge"},
		{"Test Band!", "Nectar Lounge."},
		{"Test, Band", "Nectar (Lounge)"},
	}
	for _, v := range variants {
		if got := Fingerprint("2025-03-01", v.artist, v.venue); got != base {
			t.Errorf("Fingerprint(%q, %q) = %q, want %q", v.artist, v.venue, got, base)
		}
	}
}

// TestFingerprint_Distinct verifies distinct shows get distinct identities.
func TestFingerprint_Distinct(t *testing.T) {
	base := Fingerprint("2025-03-01", "Test Band", "Nectar Lounge")

	if Fingerprint("2025-03-02", "Test Band", "Nectar Lounge") == base {
		t.Error("different day should change identity")
	}
	if Fingerprint("2025-03-01", "Other Band", "Nectar Lounge") == base {
		t.Error("different artist should change identity")
	}
	if Fingerprint("2025-03-01", "Test Band", "Tractor Tavern") == base {
		t.Error("different venue should change identity")
	}
}

func TestMarker_RoundTrip(t *testing.T) {
	id := Fingerprint("2025-03-01", "Test Band", "Nectar Lounge")

	tests := []struct {
		name string
		desc string
	}{
		{"empty description", ""},
		{"single line", "Great band"},
		{"multi line", "Great band\nRating: 5/5\nTickets: have"},
		{"trailing newlines", "Great band\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tagged := AppendMarker(tt.desc, id)

			got, ok := ExtractMarker(tagged)
			if !ok {
				t.Fatalf("marker not found in %q", tagged)
			}
			if got != id {
				t.Errorf("extracted %q, want %q", got, id)
			}

			visible := StripMarker(tagged)
			want := strings.TrimRight(tt.desc, "\n")
			if visible != want {
				t.Errorf("StripMarker = %q, want %q", visible, want)
			}
		})
	}
}

// TestAppendMarker_BlankLineSeparator verifies the wire format: the marker
// is the final paragraph, separated from user text by a blank line.
func TestAppendMarker_BlankLineSeparator(t *testing.T) {
	id := "abcdef0123456789"
	got := AppendMarker("Notes here", id)
	want := "Notes here\n\ngigcal:" + id
	if got != want {
		t.Errorf("AppendMarker = %q, want %q", got, want)
	}
}

func TestExtractMarker_Untagged(t *testing.T) {
	for _, desc := range []string{
		"",
		"no marker here",
		"gigcal:short",                    // below 16 word chars
		"gigcal:has spaces inside tokens", // not a single token
		"mentions gigcal: mid-sentence",
	} {
		if id, ok := ExtractMarker(desc); ok {
			t.Errorf("ExtractMarker(%q) unexpectedly found %q", desc, id)
		}
	}
}

func TestStripMarker_NoMarker(t *testing.T) {
	if got := StripMarker("plain text"); got != "plain text" {
		t.Errorf("StripMarker = %q", got)
	}
}
