package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-converter/internal/calc"
	"report-converter/internal/catalog"
	"report-converter/internal/diagnostic"
	"report-converter/internal/source"
	"report-converter/internal/visual"
)

func salesCatalog() *catalog.Catalog {
	return catalog.New(
		catalog.Table{Name: "Sales", Columns: []catalog.Column{{Name: "Revenue"}, {Name: "Orders"}}},
		catalog.Table{Name: "Product", Columns: []catalog.Column{{Name: "Brand"}, {Name: "Color"}}},
	)
}

func tableConfig(id string, fields ...visual.Field) visual.Config {
	return visual.Config{
		VisualID:   id,
		Kind:       visual.KindTable,
		VisualType: "tableEx",
		Wells:      []visual.Well{{Name: visual.WellValues, Fields: fields}},
	}
}

func column(item, table, col string) visual.Field {
	return visual.Field{ItemID: item, Role: source.RoleRow, Kind: visual.FieldColumn, Table: table, Column: col}
}

func measure(id, table, col string) calc.Measure {
	return calc.Measure{
		ID:       id,
		ItemIDs:  []string{id},
		Name:     visual.MeasureName(col),
		Table:    table,
		Column:   col,
		DataType: calc.TypeDecimal,
		Pending:  true,
	}
}

func TestAssemble(t *testing.T) {
	pages := []source.Page{
		{ID: "Overview", Name: "Overview", Visuals: []source.Visual{{ID: "Overview/List1"}, {ID: "Overview/List2"}}},
		{ID: "Detail", Name: "Detail"},
	}

	cfg := tableConfig("Overview/List1",
		column("q.Brand", "Product", "Brand"),
		column("q.Color", "Product", "Color"),
	)

	m, diags, err := Assemble(Input{
		Name:     "Sales",
		Pages:    pages,
		Configs:  []visual.Config{cfg},
		Measures: []calc.Measure{measure("q.Revenue", "Sales", "Revenue")},
		Catalog:  salesCatalog(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Sales", m.Name)
	require.Len(t, m.Pages, 2)
	require.Len(t, m.Pages[0].Visuals, 1)
	assert.Equal(t, "Overview/List1", m.Pages[0].Visuals[0].VisualID)
	assert.Empty(t, m.Pages[1].Visuals)
	assert.Equal(t, 1, m.VisualCount())

	require.Len(t, diags.Infos, 1)
	assert.Equal(t, diagnostic.CodeOmittedVisual, diags.Infos[0].Code)
	assert.Equal(t, "Overview/List2", diags.Infos[0].Location)

	require.Len(t, m.Pending(), 1)
	assert.Empty(t, m.Unverified())
}

func TestAssembleUnknownTargetField(t *testing.T) {
	cfg := tableConfig("Overview/List1",
		column("q.Brand", "Product", "Brand"),
		column("q.Size", "Product", "Size"),
		column("q.Size2", "Product", "Size"),
	)

	m, diags, err := Assemble(Input{
		Pages:    []source.Page{{ID: "Overview", Visuals: []source.Visual{{ID: "Overview/List1"}}}},
		Configs:  []visual.Config{cfg},
		Measures: []calc.Measure{measure("q.Margin", "Finance", "Margin")},
		Catalog:  salesCatalog(),
	})

	require.ErrorIs(t, err, ErrUnknownTargetField)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "Product.Size")
	assert.Contains(t, err.Error(), "Finance.Margin")

	unknown := diags.ByCode(diagnostic.CodeUnknownTargetField)
	require.Len(t, unknown, 2, "each field is reported once")
	assert.Equal(t, "q.Size", unknown[0].Item)
	assert.Equal(t, "Overview/List1", unknown[0].Location)
	assert.Equal(t, "q.Margin", unknown[1].Item)
}

func TestAssembleChecksFilters(t *testing.T) {
	cfg := tableConfig("v", column("q.Brand", "Product", "Brand"))
	cfg.Filters = []visual.Field{{ItemID: "q#f", Role: source.RoleFilter, Table: "Geo", Column: "Region"}}

	_, _, err := Assemble(Input{
		Pages:   []source.Page{{ID: "p", Visuals: []source.Visual{{ID: "v"}}}},
		Configs: []visual.Config{cfg},
		Catalog: salesCatalog(),
	})
	require.ErrorIs(t, err, ErrUnknownTargetField)
	assert.Contains(t, err.Error(), "Geo.Region")
}

func TestAssembleCatalogIsCaseInsensitive(t *testing.T) {
	_, _, err := Assemble(Input{
		Pages:   []source.Page{{ID: "p", Visuals: []source.Visual{{ID: "v"}}}},
		Configs: []visual.Config{tableConfig("v", column("q.Brand", "product", "BRAND"))},
		Catalog: salesCatalog(),
	})
	require.NoError(t, err)
}

func TestMeasureTables(t *testing.T) {
	m := &Model{Measures: []calc.Measure{
		measure("a", "Sales", "Revenue"),
		measure("b", "Finance", "Cost"),
		measure("c", "Sales", "Orders"),
	}}

	tables := m.MeasureTables()
	require.Len(t, tables, 2)
	assert.Equal(t, "Finance", tables[0].Table)
	assert.Equal(t, "Sales", tables[1].Table)
	require.Len(t, tables[1].Measures, 2)
	assert.Equal(t, "a", tables[1].Measures[0].ID)
	assert.Equal(t, "c", tables[1].Measures[1].ID)
}
