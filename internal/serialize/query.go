package serialize

import (
	"slices"
	"sort"
	"strconv"

	"report-converter/internal/visual"
)

type sourceRef struct {
	Source string `json:"Source,omitempty"`
	Entity string `json:"Entity,omitempty"`
}

type exprRef struct {
	SourceRef sourceRef `json:"SourceRef"`
}

type fieldExpr struct {
	Expression exprRef `json:"Expression"`
	Property   string  `json:"Property"`
}

// fieldRef holds exactly one of Column or Measure.
type fieldRef struct {
	Column  *fieldExpr `json:"Column,omitempty"`
	Measure *fieldExpr `json:"Measure,omitempty"`
}

func newFieldRef(kind visual.FieldKind, ref sourceRef, property string) fieldRef {
	expr := &fieldExpr{Expression: exprRef{SourceRef: ref}, Property: property}
	if kind == visual.FieldMeasure {
		return fieldRef{Measure: expr}
	}

	return fieldRef{Column: expr}
}

type fromItem struct {
	Name   string `json:"Name"`
	Entity string `json:"Entity"`
	Type   int    `json:"Type"`
	Schema string `json:"Schema,omitempty"`
}

type selectItem struct {
	fieldRef
	Name                string `json:"Name"`
	NativeReferenceName string `json:"NativeReferenceName"`
}

type prototypeQuery struct {
	Version int          `json:"Version"`
	From    []fromItem   `json:"From"`
	Select  []selectItem `json:"Select"`
}

type projection struct {
	QueryRef string `json:"queryRef"`
	Active   bool   `json:"active,omitempty"`
}

// extensionSchema marks a from-alias that reads report measures.
const extensionSchema = "extension"

type aliasKey struct {
	table string
	kind  visual.FieldKind
}

// buildQuery builds the prototype query of the projected fields. Tables are
// aliased t0..tn in name order; a table contributing both measures and
// columns gets a measure alias followed by a column alias.
func buildQuery(fields []visual.Field) prototypeQuery {
	q := prototypeQuery{Version: 2, From: []fromItem{}, Select: []selectItem{}}

	kinds := make(map[string]map[visual.FieldKind]bool)

	for _, f := range fields {
		if kinds[f.Table] == nil {
			kinds[f.Table] = make(map[visual.FieldKind]bool)
		}

		kinds[f.Table][f.Kind] = true
	}

	tables := make([]string, 0, len(kinds))
	for t := range kinds {
		tables = append(tables, t)
	}

	sort.Strings(tables)

	aliases := make(map[aliasKey]string)

	for _, t := range tables {
		for _, kind := range []visual.FieldKind{visual.FieldMeasure, visual.FieldColumn} {
			if !kinds[t][kind] {
				continue
			}

			item := fromItem{Name: alias(len(q.From)), Entity: t}
			if kind == visual.FieldMeasure {
				item.Schema = extensionSchema
			}

			aliases[aliasKey{table: t, kind: kind}] = item.Name
			q.From = append(q.From, item)
		}
	}

	seen := make(map[string]bool)

	for _, f := range fields {
		ref := f.QueryRef()
		if seen[ref] {
			continue
		}

		seen[ref] = true

		src := sourceRef{Source: aliases[aliasKey{table: f.Table, kind: f.Kind}]}
		q.Select = append(q.Select, selectItem{
			fieldRef:            newFieldRef(f.Kind, src, f.Property()),
			Name:                ref,
			NativeReferenceName: f.Property(),
		})
	}

	return q
}

func alias(i int) string {
	return "t" + strconv.Itoa(i)
}

// buildProjections maps each non-empty well to its field references.
func buildProjections(cfg visual.Config) map[string][]projection {
	out := make(map[string][]projection)

	for _, w := range cfg.Wells {
		if len(w.Fields) == 0 {
			continue
		}

		active := slices.Contains(cfg.Active, w.Name)

		for i, f := range w.Fields {
			out[w.Name] = append(out[w.Name], projection{QueryRef: f.QueryRef(), Active: active && i == 0})
		}
	}

	return out
}
