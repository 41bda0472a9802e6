package venues

import (
	"os"
	"path/filepath"
	"testing"
)

// testTable mirrors the Seattle venue data the resolver is exercised
// against in production.
func testTable(t *testing.T) *Table {
	t.Helper()

	table := &Table{
		Venues: []Venue{
			{Name: "Nectar Lounge", Address: "412 N 36th St, Seattle, WA 98103"},
			{Name: "Showbox SoDo", Address: "1700 1st Ave S, Seattle, WA 98134"},
			{Name: "The Showbox", Address: "1426 1st Ave, Seattle, WA 98101"},
			{Name: "Tractor Tavern", Address: "5213 Ballard Ave NW, Seattle, WA 98107"},
		},
		Aliases: map[string]string{
			"Nectar":  "Nectar Lounge",
			"Tractor": "Tractor Tavern",
		},
		Rules: []Rule{
			{Pattern: `(?i)^(sodo\s+showbox|showbox\s+sodo)$`, Canonical: "Showbox SoDo"},
			{Pattern: `(?i)^showbox`, Canonical: "The Showbox"},
		},
	}
	if err := table.Compile(); err != nil {
		t.Fatalf("failed to compile table: %v", err)
	}
	return table
}

func TestResolve_Precedence(t *testing.T) {
	n := NewNormalizer(testTable(t))

	tests := []struct {
		name        string
		in          string
		want        string
		wantChanged bool
	}{
		{"canonical untouched", "Nectar Lounge", "Nectar Lounge", false},
		{"alias", "Nectar", "Nectar Lounge", true},
		{"alias case-insensitive", "nectar", "Nectar Lounge", true},
		{"fuzzy rule", "Sodo Showbox", "Showbox SoDo", true},
		{"rule order first wins", "Showbox Sodo", "Showbox SoDo", true},
		{"later rule", "Showbox Market", "The Showbox", true},
		{"normalized exact", "tractor  tavern", "Tractor Tavern", true},
		{"unknown passes through", "The Crocodile", "The Crocodile", false},
		{"trims whitespace", "  Nectar Lounge  ", "Nectar Lounge", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := n.Resolve(tt.in)
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if changed != tt.wantChanged {
				t.Errorf("Resolve(%q) changed = %v, want %v", tt.in, changed, tt.wantChanged)
			}
		})
	}
}

// TestResolve_CanonicalNeverRewrittenByRule guards against a fuzzy rule
// capturing a string that is already canonical. "Showbox SoDo" matches the
// first rule's pattern but must never be altered.
func TestResolve_CanonicalNeverRewrittenByRule(t *testing.T) {
	n := NewNormalizer(testTable(t))

	got, changed := n.Resolve("Showbox SoDo")
	if got != "Showbox SoDo" || changed {
		t.Errorf("canonical name was rewritten: got %q (changed=%v)", got, changed)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	n := NewNormalizer(testTable(t))

	first, _ := n.Resolve("Sodo Showbox")
	for i := 0; i < 10; i++ {
		got, _ := n.Resolve("Sodo Showbox")
		if got != first {
			t.Fatalf("resolution not deterministic: %q vs %q", got, first)
		}
	}
}

func TestAddress(t *testing.T) {
	n := NewNormalizer(testTable(t))

	if got := n.Address("Nectar Lounge"); got != "412 N 36th St, Seattle, WA 98103" {
		t.Errorf("Address = %q", got)
	}
	if got := n.Address("Nowhere"); got != "" {
		t.Errorf("Address for unknown venue = %q, want empty", got)
	}
}

func TestLoadTable_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.toml")
	content := `
[[venues]]
name = "Nectar Lounge"
address = "412 N 36th St, Seattle, WA 98103"

[aliases]
Nectar = "Nectar Lounge"

[[rules]]
pattern = '(?i)^nectar\s+lounge\s+seattle$'
canonical = "Nectar Lounge"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	n := NewNormalizer(table)

	if got, _ := n.Resolve("Nectar"); got != "Nectar Lounge" {
		t.Errorf("alias from TOML: got %q", got)
	}
	if got, _ := n.Resolve("Nectar Lounge Seattle"); got != "Nectar Lounge" {
		t.Errorf("rule from TOML: got %q", got)
	}
}

func TestLoadTable_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.yaml")
	content := `
venues:
  - name: Nectar Lounge
    address: 412 N 36th St, Seattle, WA 98103
aliases:
  Nectar: Nectar Lounge
rules:
  - pattern: '(?i)^sodo nectar$'
    canonical: Nectar Lounge
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if len(table.Rules) != 1 || table.Rules[0].Canonical != "Nectar Lounge" {
		t.Errorf("unexpected rules: %+v", table.Rules)
	}
}

func TestLoadTable_BadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.toml")
	content := `
[[rules]]
pattern = '(unclosed'
canonical = "X"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestTable_AddAlias(t *testing.T) {
	table := testTable(t)

	if err := table.AddAlias("Nectar Lng", "Nectar Lounge"); err != nil {
		t.Fatalf("AddAlias failed: %v", err)
	}
	if err := table.AddAlias("X", "Not A Venue"); err == nil {
		t.Error("expected error for unknown canonical venue")
	}

	n := NewNormalizer(table)
	if got, _ := n.Resolve("nectar lng"); got != "Nectar Lounge" {
		t.Errorf("added alias did not resolve: %q", got)
	}
}

func TestTable_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.toml")
	table := testTable(t)

	if err := table.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable after Save failed: %v", err)
	}
	if len(loaded.Venues) != len(table.Venues) {
		t.Errorf("venue count mismatch: %d vs %d", len(loaded.Venues), len(table.Venues))
	}
	if len(loaded.Rules) != len(table.Rules) {
		t.Errorf("rule count mismatch: %d vs %d", len(loaded.Rules), len(table.Rules))
	}
	if loaded.Aliases["Nectar"] != "Nectar Lounge" {
		t.Errorf("alias lost in round trip: %+v", loaded.Aliases)
	}
}
