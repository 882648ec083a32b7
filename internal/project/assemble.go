package project

import (
	"errors"
	"fmt"

	"report-converter/internal/calc"
	"report-converter/internal/catalog"
	"report-converter/internal/diagnostic"
	"report-converter/internal/source"
	"report-converter/internal/visual"
)

// ErrUnknownTargetField is returned when a visual or measure references a
// column missing from the catalog.
var ErrUnknownTargetField = errors.New("unknown target field")

// Input collects everything Assemble aggregates.
type Input struct {
	Name  string
	Pages []source.Page
	// Configs are the bound visuals, matched to pages by visual ID.
	Configs  []visual.Config
	Measures []calc.Measure
	Catalog  *catalog.Catalog
}

// Assemble builds the project model. Every referenced field is checked
// against the catalog; all unknown fields are reported together and no
// model is returned in that case. Page visuals without a config are left out
// with an info diagnostic.
func Assemble(in Input) (*Model, diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics

	if err := checkFields(in, &diags); err != nil {
		return nil, diags, err
	}

	configs := make(map[string]visual.Config, len(in.Configs))
	for _, c := range in.Configs {
		configs[c.VisualID] = c
	}

	m := &Model{
		Name:     in.Name,
		Measures: append([]calc.Measure(nil), in.Measures...),
	}

	for _, p := range in.Pages {
		page := Page{ID: p.ID, Name: p.Name}

		for _, v := range p.Visuals {
			c, ok := configs[v.ID]
			if !ok {
				diags.AddInfo(diagnostic.StageAssemble, diagnostic.CodeOmittedVisual,
					"visual has no binding and was left out", "", v.ID)

				continue
			}

			page.Visuals = append(page.Visuals, c)
		}

		m.Pages = append(m.Pages, page)
	}

	return m, diags, nil
}

type fieldRef struct {
	table, column string
}

func checkFields(in Input, diags *diagnostic.Diagnostics) error {
	seen := make(map[fieldRef]bool)

	var errs []error

	check := func(table, column, item, location string) {
		ref := fieldRef{table: table, column: column}
		if seen[ref] || in.Catalog.Has(table, column) {
			return
		}

		seen[ref] = true

		field := table + "." + column
		diags.AddError(diagnostic.StageAssemble, diagnostic.CodeUnknownTargetField,
			fmt.Sprintf("target field %s is not in the catalog", field), item, location)
		errs = append(errs, fmt.Errorf("%w: %s (referenced by %s)", ErrUnknownTargetField, field, item))
	}

	for _, c := range in.Configs {
		for _, f := range c.Fields() {
			check(f.Table, f.Column, f.ItemID, c.VisualID)
		}
	}

	for _, ms := range in.Measures {
		check(ms.Table, ms.Column, ms.ID, "")
	}

	return errors.Join(errs...)
}
