package venues

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Venue is one canonical venue and its address.
type Venue struct {
	Name    string `toml:"name" yaml:"name"`
	Address string `toml:"address" yaml:"address"`
}

// Rule is one fuzzy-match rule. Rules are evaluated in file order; the
// first matching pattern wins.
type Rule struct {
	Pattern   string `toml:"pattern" yaml:"pattern"`
	Canonical string `toml:"canonical" yaml:"canonical"`

	re *regexp.Regexp
}

// Table holds the venue resolution data loaded from disk.
//
// TOML is the preferred format because its array-of-tables syntax keeps the
// rule list visibly ordered; YAML is accepted for compatibility.
type Table struct {
	Venues  []Venue           `toml:"venues" yaml:"venues"`
	Aliases map[string]string `toml:"aliases" yaml:"aliases"`
	Rules   []Rule            `toml:"rules" yaml:"rules"`
}

// LoadTable reads and compiles a venue table from path. The format is
// chosen by file extension (.toml, .yaml, .yml).
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read venue table: %w", err)
	}

	var table Table
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse venue table %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse venue table %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported venue table format %q (want .toml or .yaml)", ext)
	}

	if err := table.Compile(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Compile validates the table and compiles rule patterns. LoadTable calls
// it automatically; tables built in code must call it before use.
func (t *Table) Compile() error {
	if t.Aliases == nil {
		t.Aliases = make(map[string]string)
	}
	for i := range t.Rules {
		r := &t.Rules[i]
		if r.Pattern == "" || r.Canonical == "" {
			return fmt.Errorf("rule %d: pattern and canonical are required", i)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("rule %d: invalid pattern %q: %w", i, r.Pattern, err)
		}
		r.re = re
	}
	return nil
}

// AddAlias records a new alias mapping and returns an error if the target
// is not a canonical venue. Used by the interactive mapping command.
func (t *Table) AddAlias(alias, canonical string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return fmt.Errorf("alias cannot be empty")
	}
	found := false
	for _, v := range t.Venues {
		if v.Name == canonical {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown canonical venue %q", canonical)
	}
	if t.Aliases == nil {
		t.Aliases = make(map[string]string)
	}
	t.Aliases[alias] = canonical
	return nil
}

// Save writes the table back to path in the format implied by its extension.
func (t *Table) Save(path string) error {
	var data []byte
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		var sb strings.Builder
		enc := toml.NewEncoder(&sb)
		if err = enc.Encode(t); err == nil {
			data = []byte(sb.String())
		}
	case ".yaml", ".yml":
		data, err = yaml.Marshal(t)
	default:
		return fmt.Errorf("unsupported venue table format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode venue table: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write venue table: %w", err)
	}
	return nil
}

// CanonicalNames returns the canonical venue names, sorted.
func (t *Table) CanonicalNames() []string {
	names := make([]string, 0, len(t.Venues))
	for _, v := range t.Venues {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}
