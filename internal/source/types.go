package source

import (
	"strings"

	"report-converter/internal/common"
)

//go:generate go tool stringer -type=Role -linecomment -output=role_string.go

// Role is the role a data item plays inside a visual.
type Role int

const (
	_ Role = iota // zero value is invalid

	RoleRow     // row
	RoleColumn  // column
	RoleMeasure // measure
	RoleFilter  // filter
)

// Roles lists every valid role in declaration order.
var Roles = []Role{RoleRow, RoleColumn, RoleMeasure, RoleFilter}

// ParseRole parses a role name as produced by Role.String.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range Roles {
		if r.String() == s {
			return r, true
		}
	}

	return 0, false
}

// VisualKind is the visual kind as declared by the source report.
type VisualKind string

const (
	KindCrosstab VisualKind = "crosstab"
	KindList     VisualKind = "list"
	KindChart    VisualKind = "chart"
)

// Report is the root of a parsed source report. It is not mutated after Parse returns.
type Report struct {
	Name    string
	Pages   []Page
	Queries []Query
}

// Page is a single report page with its visuals in document order.
type Page struct {
	ID      string
	Name    string
	Visuals []Visual
}

// Query is a named source query with its selection and detail filters.
type Query struct {
	Name    string
	Items   []DataItem
	Filters []DataItem
}

// Visual is a data visual bound to a query.
type Visual struct {
	ID       string
	Name     string
	Kind     VisualKind
	QueryRef string

	Rows     []DataItem
	Columns  []DataItem
	Measures []DataItem
	Filters  []DataItem
}

// DataItem is a single field, measure or filter reference.
type DataItem struct {
	// ID is unique within the report: "<query>.<name>" for selections and
	// "<query>#filter<n>" for detail filters.
	ID string
	// Name is the source name, unique within the owning query.
	Name string
	// Query is the owning query name.
	Query string
	// Role is the role the item plays in the visual it was read from.
	Role Role
	// Expression is the source expression text (the full filter text for filters).
	Expression string
	// Aggregation is the declared aggregate ("" when none).
	Aggregation string
}

// IsMeasure reports whether the item carries an aggregation.
func (d DataItem) IsMeasure() bool {
	return d.Aggregation != ""
}

// Items returns the visual's items for one role.
func (v *Visual) Items(role Role) []DataItem {
	switch role {
	case RoleRow:
		return v.Rows
	case RoleColumn:
		return v.Columns
	case RoleMeasure:
		return v.Measures
	case RoleFilter:
		return v.Filters
	default:
		return nil
	}
}

// AllItems returns every item of the visual grouped by role in Roles order.
func (v *Visual) AllItems() []DataItem {
	var out []DataItem
	for _, r := range Roles {
		out = append(out, v.Items(r)...)
	}

	return out
}

// Query returns the named query and true, or false if absent.
func (r *Report) Query(name string) (*Query, bool) {
	for i := range r.Queries {
		if r.Queries[i].Name == name {
			return &r.Queries[i], true
		}
	}

	return nil, false
}

// Visuals returns every visual in page order.
func (r *Report) Visuals() []*Visual {
	var out []*Visual

	for i := range r.Pages {
		for j := range r.Pages[i].Visuals {
			out = append(out, &r.Pages[i].Visuals[j])
		}
	}

	return out
}

// DataItems returns every distinct data item referenced by any visual,
// in first-reference order.
func (r *Report) DataItems() []DataItem {
	var ids []string

	byID := make(map[string]DataItem)

	for _, v := range r.Visuals() {
		for _, item := range v.AllItems() {
			if _, ok := byID[item.ID]; !ok {
				byID[item.ID] = item
				ids = append(ids, item.ID)
			}
		}
	}

	ids = common.Dedupe(ids)
	out := make([]DataItem, 0, len(ids))

	for _, id := range ids {
		out = append(out, byID[id])
	}

	return out
}
