// Package venues resolves free-text venue strings to canonical venue names.
//
// Resolution is driven by a table of canonical venues (with addresses), an
// alias map, and an ordered list of regular-expression rules. List order is
// the only precedence mechanism between rules.
package venues

import (
	"strings"
)

// Normalizer resolves venue strings against a loaded Table.
//
// Resolution order, first hit wins:
//  1. exact match against the canonical set (string returned unchanged)
//  2. case-insensitive exact match in the alias map
//  3. ordered regex rules, first matching pattern wins
//  4. whitespace/case-normalized match against the canonical set
//  5. the trimmed input itself
//
// Resolve is pure; the write-back of corrected cells is the caller's job.
type Normalizer struct {
	table     *Table
	canon     map[string]Venue // exact canonical name -> venue
	canonFold map[string]Venue // normalized canonical name -> venue
	aliases   map[string]string
}

// NewNormalizer builds a Normalizer from a loaded table.
func NewNormalizer(table *Table) *Normalizer {
	n := &Normalizer{
		table:     table,
		canon:     make(map[string]Venue, len(table.Venues)),
		canonFold: make(map[string]Venue, len(table.Venues)),
		aliases:   make(map[string]string, len(table.Aliases)),
	}
	for _, v := range table.Venues {
		n.canon[v.Name] = v
		n.canonFold[foldSpace(v.Name)] = v
	}
	for alias, name := range table.Aliases {
		n.aliases[strings.ToLower(strings.TrimSpace(alias))] = name
	}
	return n
}

// Resolve maps raw to its canonical venue name. changed reports whether the
// result differs from the trimmed input, which is what triggers the cell
// write-back upstream.
func (n *Normalizer) Resolve(raw string) (canonical string, changed bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	// Canonical strings pass through untouched, before any fuzzy rule can
	// rewrite them.
	if _, ok := n.canon[s]; ok {
		return s, false
	}

	if name, ok := n.aliases[strings.ToLower(s)]; ok {
		return name, name != s
	}

	for _, r := range n.table.Rules {
		if r.re.MatchString(s) {
			return r.Canonical, r.Canonical != s
		}
	}

	if v, ok := n.canonFold[foldSpace(s)]; ok {
		return v.Name, v.Name != s
	}

	return s, false
}

// Address returns the street address for a canonical venue name, or "" when
// the venue is not in the table.
func (n *Normalizer) Address(name string) string {
	if v, ok := n.canon[name]; ok {
		return v.Address
	}
	return ""
}

// Known reports whether name is in the canonical set.
func (n *Normalizer) Known(name string) bool {
	_, ok := n.canon[name]
	return ok
}

// foldSpace lowercases and collapses runs of whitespace to single spaces.
func foldSpace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
