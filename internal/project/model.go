package project

import (
	"sort"

	"report-converter/internal/calc"
	"report-converter/internal/visual"
)

// Model is the assembled project. It is read-only once returned by Assemble.
type Model struct {
	Name     string
	Pages    []Page
	Measures []calc.Measure
}

// Page is a target page with its visuals in source order.
type Page struct {
	ID      string
	Name    string
	Visuals []visual.Config
}

// MeasureTable groups measures defined on one table.
type MeasureTable struct {
	Table    string
	Measures []calc.Measure
}

// MeasureTables groups measures by table, tables sorted by name and measures
// kept in model order.
func (m *Model) MeasureTables() []MeasureTable {
	byTable := make(map[string][]calc.Measure)

	for _, ms := range m.Measures {
		byTable[ms.Table] = append(byTable[ms.Table], ms)
	}

	tables := make([]string, 0, len(byTable))
	for t := range byTable {
		tables = append(tables, t)
	}

	sort.Strings(tables)

	out := make([]MeasureTable, 0, len(tables))
	for _, t := range tables {
		out = append(out, MeasureTable{Table: t, Measures: byTable[t]})
	}

	return out
}

// Pending returns measures still waiting for an expression.
func (m *Model) Pending() []calc.Measure {
	return m.filter(func(ms calc.Measure) bool { return ms.Pending })
}

// Unverified returns measures whose expression failed the sanity check.
func (m *Model) Unverified() []calc.Measure {
	return m.filter(func(ms calc.Measure) bool { return ms.Unverified })
}

func (m *Model) filter(keep func(calc.Measure) bool) []calc.Measure {
	var out []calc.Measure

	for _, ms := range m.Measures {
		if keep(ms) {
			out = append(out, ms)
		}
	}

	return out
}

// VisualCount returns the number of visuals across pages.
func (m *Model) VisualCount() int {
	n := 0
	for _, p := range m.Pages {
		n += len(p.Visuals)
	}

	return n
}
