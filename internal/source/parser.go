package source

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"report-converter/internal/common"
)

// ErrStructural reports a malformed document or a missing required node class.
var ErrStructural = errors.New("structural error")

const defaultReportName = "Report"

var (
	visualElements  = named("crosstab", "list", "vizControl", "v2_combinationChart", "chart")
	leadingPathExpr = regexp.MustCompile(`^\s*(\[[^\]]*\](?:\.\[[^\]]*\])*)`)
)

// Parse parses raw report XML into a Report.
func Parse(data []byte) (*Report, error) {
	root, err := readTree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStructural, err)
	}

	report := &Report{Name: reportName(root)}

	queryNodes := root.descendants(named("query"))
	if len(queryNodes) == 0 {
		return nil, fmt.Errorf("%w: no query element found", ErrStructural)
	}

	for _, qn := range queryNodes {
		report.Queries = append(report.Queries, parseQuery(qn))
	}

	if err := checkItemIDs(report.Queries); err != nil {
		return nil, err
	}

	pageNodes := root.descendants(named("page"))
	if len(pageNodes) == 0 {
		return nil, fmt.Errorf("%w: no page element found", ErrStructural)
	}

	markers := 0
	pageIDs := make(map[string]bool, len(pageNodes))

	for i, pn := range pageNodes {
		page := Page{Name: pn.attr("name")}
		page.ID = page.Name
		if page.ID == "" {
			page.ID = "page" + strconv.Itoa(i+1)
		}

		page.ID = uniqueID(pageIDs, page.ID, i+1)

		visualIDs := make(map[string]bool)

		for j, vn := range pn.descendants(visualElements) {
			v, err := parseVisual(report, page.ID, j, vn)
			if err != nil {
				return nil, err
			}

			v.ID = uniqueID(visualIDs, v.ID, j+1)

			markers += len(v.AllItems())
			page.Visuals = append(page.Visuals, v)
		}

		report.Pages = append(report.Pages, page)
	}

	if markers == 0 {
		return nil, fmt.Errorf("%w: no data item role marker found in any visual", ErrStructural)
	}

	return report, nil
}

func reportName(root *node) string {
	if rn := root.child("reportName"); rn != nil && rn.content() != "" {
		return rn.content()
	}

	if name := root.attr("name"); name != "" {
		return name
	}

	return defaultReportName
}

func parseQuery(qn *node) Query {
	q := Query{Name: qn.attr("name")}

	if sel := qn.child("selection"); sel != nil {
		for _, di := range sel.children {
			if di.name != "dataItem" || di.attr("name") == "" {
				continue
			}

			item := DataItem{
				ID:    q.Name + "." + di.attr("name"),
				Name:  di.attr("name"),
				Query: q.Name,
			}
			if expr := di.child("expression"); expr != nil {
				item.Expression = expr.content()
			}

			if agg := di.attr("aggregate"); agg != "" && agg != "none" {
				item.Aggregation = agg
			}

			q.Items = append(q.Items, item)
		}
	}

	for i, fe := range qn.descendants(named("filterExpression")) {
		text := fe.content()
		if text == "" {
			continue
		}

		q.Filters = append(q.Filters, DataItem{
			ID:         q.Name + "#filter" + strconv.Itoa(i+1),
			Name:       FilterColumn(text),
			Query:      q.Name,
			Role:       RoleFilter,
			Expression: text,
		})
	}

	return q
}

func parseVisual(report *Report, pageID string, index int, vn *node) (Visual, error) {
	v := Visual{
		Name:     vn.attr("name"),
		Kind:     visualKind(vn.name),
		QueryRef: vn.attr("refQuery"),
	}

	local := v.Name
	if local == "" {
		local = string(v.Kind) + strconv.Itoa(index+1)
	}

	v.ID = pageID + "/" + local

	if v.QueryRef == "" {
		return v, fmt.Errorf("%w: visual %s has no refQuery", ErrStructural, v.ID)
	}

	q, ok := report.Query(v.QueryRef)
	if !ok {
		return v, fmt.Errorf("%w: visual %s references missing query %q", ErrStructural, v.ID, v.QueryRef)
	}

	var rows, cols, measures []string

	switch v.Kind {
	case KindCrosstab:
		if n := vn.child("crosstabRows"); n != nil {
			rows = n.refs(named("crosstabNodeMember"))
		}

		if n := vn.child("crosstabColumns"); n != nil {
			cols = n.refs(named("crosstabNodeMember"))
		}

		measures = vn.refs(named("defaultMeasure"))
	case KindList:
		if n := vn.child("listColumns"); n != nil {
			rows = n.refs(named("dataItemValue"))
		}
	case KindChart:
		rows = vn.refs(named("chartNodeMember"))

		var series []string
		for _, s := range vn.descendants(named("v2_series", "series", "legend")) {
			series = append(series, s.refs(named("chartNodeMember"))...)
		}

		if len(series) > 0 {
			rows = subtract(rows, series)
			cols = series
		}

		measures = vn.refs(named("v2_defaultChartMeasure", "defaultChartMeasure", "defaultMeasure"))
	}

	place := func(names []string, role Role) {
		for _, name := range common.Dedupe(names) {
			item := lookupItem(q, name)
			item.Role = role
			if item.IsMeasure() && role != RoleMeasure {
				item.Role = RoleMeasure
			}

			switch item.Role {
			case RoleRow:
				v.Rows = append(v.Rows, item)
			case RoleColumn:
				v.Columns = append(v.Columns, item)
			case RoleMeasure:
				if !containsID(v.Measures, item.ID) {
					v.Measures = append(v.Measures, item)
				}
			}
		}
	}

	place(rows, RoleRow)
	place(cols, RoleColumn)
	place(measures, RoleMeasure)

	v.Filters = append(v.Filters, q.Filters...)

	return v, nil
}

func visualKind(element string) VisualKind {
	switch element {
	case "crosstab":
		return KindCrosstab
	case "list":
		return KindList
	default:
		return KindChart
	}
}

// uniqueID returns id, or id suffixed with "~ordinal" when taken, and marks
// the result as used. Further suffixes are added until the ID is free.
func uniqueID(used map[string]bool, id string, ordinal int) string {
	out := id
	for n := 0; used[out]; n++ {
		out = id + "~" + strconv.Itoa(ordinal)
		if n > 0 {
			out += "." + strconv.Itoa(n)
		}
	}

	used[out] = true

	return out
}

// checkItemIDs fails when two distinct query/name pairs produce the same
// "query.name" item ID, e.g. query "A.B" item "C" and query "A" item "B.C".
func checkItemIDs(queries []Query) error {
	owners := make(map[string]DataItem)

	for _, q := range queries {
		for _, it := range q.Items {
			prev, ok := owners[it.ID]
			if !ok {
				owners[it.ID] = it
				continue
			}

			if prev.Query != it.Query || prev.Name != it.Name {
				return fmt.Errorf("%w: data item ID %q is shared by %s/%s and %s/%s",
					ErrStructural, it.ID, prev.Query, prev.Name, it.Query, it.Name)
			}
		}
	}

	return nil
}

// lookupItem returns the query's item with that name, or a bare item
// when the visual references a name the selection does not declare.
func lookupItem(q *Query, name string) DataItem {
	for _, item := range q.Items {
		if item.Name == name {
			return item
		}
	}

	return DataItem{ID: q.Name + "." + name, Name: name, Query: q.Name}
}

func containsID(items []DataItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}

	return false
}

func subtract(all, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		drop[r] = struct{}{}
	}

	var out []string

	for _, a := range all {
		if _, ok := drop[a]; !ok {
			out = append(out, a)
		}
	}

	return out
}

// FilterColumn extracts the leading bracketed path of a filter expression,
// e.g. "[Sales].[Region].[Name] in ('EU')" → "[Sales].[Region].[Name]".
// The whole trimmed expression is returned when no path leads it.
func FilterColumn(expression string) string {
	m := leadingPathExpr.FindStringSubmatch(expression)
	if m == nil {
		return strings.TrimSpace(expression)
	}

	return m[1]
}
