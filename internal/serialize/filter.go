package serialize

import (
	"report-converter/internal/visual"
)

// filterAlias is the single from-alias of a filter query.
const filterAlias = "t"

type literal struct {
	Value string `json:"Value"`
}

type literalValue struct {
	Literal literal `json:"Literal"`
}

type inCondition struct {
	Expressions []fieldRef       `json:"Expressions"`
	Values      [][]literalValue `json:"Values"`
}

type condition struct {
	In inCondition `json:"In"`
}

type whereItem struct {
	Condition condition `json:"Condition"`
}

type filterQuery struct {
	Version int         `json:"Version"`
	From    []fromItem  `json:"From"`
	Where   []whereItem `json:"Where"`
}

type filterEntry struct {
	Name       string       `json:"name"`
	Expression fieldRef     `json:"expression"`
	HowCreated int          `json:"howCreated"`
	Objects    struct{}     `json:"objects"`
	Type       string       `json:"type"`
	Filter     *filterQuery `json:"filter,omitempty"`
}

// buildFilters renders the visual-level categorical filters. A filter
// without recognizable values is emitted with no condition, leaving the
// field in the filter pane.
func buildFilters(visualName string, fields []visual.Field) []filterEntry {
	out := make([]filterEntry, 0, len(fields))

	for _, f := range fields {
		entry := filterEntry{
			Name:       objectName(visualName, "filter", f.ItemID),
			Expression: newFieldRef(f.Kind, sourceRef{Entity: f.Table}, f.Property()),
			HowCreated: 1,
			Type:       "Categorical",
		}

		if len(f.Values) > 0 {
			values := make([][]literalValue, 0, len(f.Values))
			for _, v := range f.Values {
				values = append(values, []literalValue{{Literal: literal{Value: v.Literal()}}})
			}

			entry.Filter = &filterQuery{
				Version: 2,
				From:    []fromItem{{Name: filterAlias, Entity: f.Table}},
				Where: []whereItem{{Condition: condition{In: inCondition{
					Expressions: []fieldRef{newFieldRef(f.Kind, sourceRef{Source: filterAlias}, f.Property())},
					Values:      values,
				}}}},
			}
		}

		out = append(out, entry)
	}

	return out
}
