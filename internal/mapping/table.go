package mapping

import (
	"regexp"
	"strings"
)

var bracketPart = regexp.MustCompile(`\[(.*?)\]`)

// Candidate is one possible target for a source data item.
type Candidate struct {
	Table  string `yaml:"table" json:"table"`
	Column string `yaml:"column" json:"column"`
}

// String renders the candidate as a query reference, e.g. "Sales.Revenue".
func (c Candidate) String() string {
	return c.Table + "." + c.Column
}

// IsZero reports whether either half of the target is missing.
func (c Candidate) IsZero() bool {
	return strings.TrimSpace(c.Table) == "" || strings.TrimSpace(c.Column) == ""
}

// Table maps normalized source keys to ordered candidate lists.
type Table struct {
	keys    []string
	entries map[string][]Candidate
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string][]Candidate)}
}

// Add appends candidates for source. Blank candidates and candidates already
// present for the key are skipped.
func (t *Table) Add(source string, candidates ...Candidate) {
	key := NormalizeKey(source)
	if key == "" {
		return
	}

	existing, ok := t.entries[key]
	if !ok {
		t.keys = append(t.keys, key)
	}

	for _, c := range candidates {
		c.Table = strings.TrimSpace(c.Table)
		c.Column = strings.TrimSpace(c.Column)

		if c.IsZero() || contains(existing, c) {
			continue
		}

		existing = append(existing, c)
	}

	t.entries[key] = existing
}

// Lookup returns the candidates for a source name or expression, in
// declaration order. The result must not be modified.
func (t *Table) Lookup(source string) []Candidate {
	if t == nil {
		return nil
	}

	return t.entries[NormalizeKey(source)]
}

// Has reports whether the table carries an entry for source.
func (t *Table) Has(source string) bool {
	if t == nil {
		return false
	}

	_, ok := t.entries[NormalizeKey(source)]

	return ok
}

// Keys returns the normalized keys in insertion order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}

	return append([]string(nil), t.keys...)
}

// Len returns the number of keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.keys)
}

// Merge adds every entry of other to t, after t's own candidates.
func (t *Table) Merge(other *Table) {
	for _, key := range other.Keys() {
		t.Add(key, other.entries[key]...)
	}
}

// NormalizeKey builds the lookup key for a report expression or item name.
// Two or more bracketed segments are joined by "." with quotes removed,
// e.g. "[Presentation Layer].[Brand].[Brand Label]" ->
// "presentation layer.brand.brand label". Anything else is trimmed and
// lowercased, with a single bracket pair removed.
func NormalizeKey(s string) string {
	parts := bracketPart.FindAllStringSubmatch(s, -1)

	switch {
	case len(parts) >= 2:
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			cleaned = append(cleaned, cleanPart(p[1]))
		}

		return strings.ToLower(strings.Join(cleaned, "."))
	case len(parts) == 1 && strings.TrimSpace(s) == parts[0][0]:
		return strings.ToLower(cleanPart(parts[0][1]))
	default:
		return strings.ToLower(cleanPart(s))
	}
}

func cleanPart(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

func contains(list []Candidate, c Candidate) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}

	return false
}
