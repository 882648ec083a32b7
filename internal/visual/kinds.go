// Package visual assigns resolved fields to the wells of a target visual.
//
// Each target kind is a row in the kinds table: which well every source
// role lands in and the order wells are emitted in. Adding a target kind is
// a table entry, not new branching.
package visual

import (
	"sort"

	"report-converter/internal/source"
)

// Kind is a target visual kind.
type Kind string

const (
	KindTable       Kind = "table"
	KindMatrix      Kind = "matrix"
	KindCard        Kind = "card"
	KindColumnChart Kind = "clusteredColumnChart"
	KindBarChart    Kind = "clusteredBarChart"
	KindLineChart   Kind = "lineChart"
	KindPieChart    Kind = "pieChart"
	KindSlicer      Kind = "slicer"
)

// Well names. Filters is not a projection well; filter-role items are
// carried separately on the visual.
const (
	WellFilters  = "Filters"
	WellValues   = "Values"
	WellRows     = "Rows"
	WellColumns  = "Columns"
	WellCategory = "Category"
	WellSeries   = "Series"
	WellY        = "Y"
)

// KindSpec describes one target kind.
type KindSpec struct {
	// VisualType is the identifier written into the visual container.
	VisualType string
	// Wells lists the projection wells in output order.
	Wells []string
	// Roles maps each supported source role to its well.
	Roles map[source.Role]string
	// Active lists wells whose first field is marked active.
	Active []string
}

var kinds = map[Kind]KindSpec{
	// A table has a single Values well: rows, then columns, then measures,
	// each group in source order. Measures share the well with the fields.
	KindTable: {
		VisualType: "tableEx",
		Wells:      []string{WellValues},
		Roles: map[source.Role]string{
			source.RoleRow:     WellValues,
			source.RoleColumn:  WellValues,
			source.RoleMeasure: WellValues,
			source.RoleFilter:  WellFilters,
		},
	},
	KindMatrix: {
		VisualType: "pivotTable",
		Wells:      []string{WellRows, WellColumns, WellValues},
		Roles: map[source.Role]string{
			source.RoleRow:     WellRows,
			source.RoleColumn:  WellColumns,
			source.RoleMeasure: WellValues,
			source.RoleFilter:  WellFilters,
		},
		Active: []string{WellRows, WellColumns},
	},
	KindCard: {
		VisualType: "card",
		Wells:      []string{WellValues},
		Roles: map[source.Role]string{
			source.RoleMeasure: WellValues,
			source.RoleFilter:  WellFilters,
		},
	},
	KindColumnChart: chartSpec("clusteredColumnChart"),
	KindBarChart:    chartSpec("clusteredBarChart"),
	KindLineChart:   chartSpec("lineChart"),
	KindPieChart: {
		VisualType: "pieChart",
		Wells:      []string{WellCategory, WellY},
		Roles: map[source.Role]string{
			source.RoleRow:     WellCategory,
			source.RoleMeasure: WellY,
			source.RoleFilter:  WellFilters,
		},
	},
	KindSlicer: {
		VisualType: "slicer",
		Wells:      []string{WellValues},
		Roles: map[source.Role]string{
			source.RoleRow:    WellValues,
			source.RoleFilter: WellFilters,
		},
	},
}

func chartSpec(visualType string) KindSpec {
	return KindSpec{
		VisualType: visualType,
		Wells:      []string{WellCategory, WellSeries, WellY},
		Roles: map[source.Role]string{
			source.RoleRow:     WellCategory,
			source.RoleColumn:  WellSeries,
			source.RoleMeasure: WellY,
			source.RoleFilter:  WellFilters,
		},
	}
}

// defaultKinds maps a source visual kind to its usual target.
var defaultKinds = map[source.VisualKind]Kind{
	source.KindList:     KindTable,
	source.KindCrosstab: KindMatrix,
	source.KindChart:    KindColumnChart,
}

// Spec returns the wells and role table of a target kind.
func Spec(k Kind) (KindSpec, bool) {
	s, ok := kinds[k]
	return s, ok
}

// DefaultKind returns the target kind used for a source kind when none is configured.
func DefaultKind(k source.VisualKind) Kind {
	if t, ok := defaultKinds[k]; ok {
		return t
	}

	return KindTable
}

// Kinds returns every known target kind, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ParseKind accepts a target kind name or its visual type identifier.
func ParseKind(s string) (Kind, bool) {
	if _, ok := kinds[Kind(s)]; ok {
		return Kind(s), true
	}

	for k, spec := range kinds {
		if spec.VisualType == s {
			return k, true
		}
	}

	return "", false
}
