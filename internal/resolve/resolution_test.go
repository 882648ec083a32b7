package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-converter/internal/diagnostic"
	"report-converter/internal/mapping"
	"report-converter/internal/source"
)

var (
	brandProduct = mapping.Candidate{Table: "Product", Column: "Brand"}
	brandDim     = mapping.Candidate{Table: "Brand", Column: "Name"}
	region       = mapping.Candidate{Table: "Geography", Column: "Region"}
	revenue      = mapping.Candidate{Table: "Sales", Column: "Revenue"}
)

func item(name, expr string, role source.Role) source.DataItem {
	return source.DataItem{ID: "q." + name, Name: name, Query: "q", Role: role, Expression: expr}
}

func testReport() *source.Report {
	return &source.Report{
		Name: "R",
		Pages: []source.Page{{
			ID: "P",
			Visuals: []source.Visual{
				{
					ID:       "P/V1",
					Kind:     source.KindCrosstab,
					Rows:     []source.DataItem{item("Brand", "[Sales].[Brand]", source.RoleRow)},
					Columns:  []source.DataItem{item("Region", "[Sales].[Region]", source.RoleColumn)},
					Measures: []source.DataItem{item("Revenue", "[Sales].[Revenue]", source.RoleMeasure)},
				},
				{
					ID:   "P/V2",
					Kind: source.KindList,
					Rows: []source.DataItem{
						item("Region", "[Sales].[Region]", source.RoleRow),
						item("Custmer", "[Sales].[Custmer]", source.RoleRow),
					},
				},
			},
		}},
	}
}

func testTable() *mapping.Table {
	t := mapping.NewTable()
	t.Add("[Sales].[Brand]", brandProduct, brandDim)
	t.Add("region", region)
	t.Add("[Sales].[Revenue]", revenue)
	t.Add("[Sales].[Customer]", mapping.Candidate{Table: "Customer", Column: "Name"})

	return t
}

func TestResolveClassifies(t *testing.T) {
	r := Resolve(testReport(), testTable())

	bindings := r.Bindings()
	require.Len(t, bindings, 4, "shared items resolve once")

	got := map[string]Status{}
	for _, b := range bindings {
		got[b.Item.ID] = b.Status
	}

	assert.Equal(t, map[string]Status{
		"q.Brand":   StatusAmbiguous,
		"q.Region":  StatusBound,
		"q.Revenue": StatusBound,
		"q.Custmer": StatusNoMapping,
	}, got)

	target, ok := r.Target("q.Region")
	require.True(t, ok)
	assert.Equal(t, region, target, "falls back to the name key")

	b, ok := r.Binding("q.Region")
	require.True(t, ok)
	assert.Equal(t, []string{"P/V1", "P/V2"}, b.Visuals)
	assert.False(t, b.Chosen)

	recs := r.Ambiguities()
	require.Len(t, recs, 1)
	assert.Equal(t, "q.Brand", recs[0].Item.ID)
	assert.Equal(t, []mapping.Candidate{brandProduct, brandDim}, recs[0].Candidates)

	assert.False(t, r.IsFullyResolved())
}

func TestSingletonsNeverAmbiguous(t *testing.T) {
	r := Resolve(testReport(), testTable())

	for _, b := range r.Bindings() {
		if b.Lookup.Kind == LookupUnique {
			assert.Equal(t, StatusBound, b.Status)
			assert.Equal(t, b.Lookup.Candidates[0], b.Target)
		}
	}

	for _, rec := range r.Ambiguities() {
		assert.Greater(t, len(rec.Candidates), 1)
	}
}

func TestApplyChoice(t *testing.T) {
	r := Resolve(testReport(), testTable())

	require.NoError(t, r.ApplyChoice("q.Brand", 1))

	target, ok := r.Target("q.Brand")
	require.True(t, ok)
	assert.Equal(t, brandDim, target)
	assert.Empty(t, r.Ambiguities())

	b, _ := r.Binding("q.Brand")
	assert.True(t, b.Chosen)

	require.NoError(t, r.ApplyChoice("q.Brand", 0), "re-choosing before finalize is allowed")

	target, _ = r.Target("q.Brand")
	assert.Equal(t, brandProduct, target)
}

func TestApplyChoiceInvalidLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name string
		fn   func(r *Resolution) error
	}{
		{"index too large", func(r *Resolution) error { return r.ApplyChoice("q.Brand", 2) }},
		{"negative index", func(r *Resolution) error { return r.ApplyChoice("q.Brand", -1) }},
		{"unknown item", func(r *Resolution) error { return r.ApplyChoice("q.Nope", 0) }},
		{"no candidates", func(r *Resolution) error { return r.ApplyChoice("q.Custmer", 0) }},
		{"foreign candidate", func(r *Resolution) error { return r.ApplyCandidate("q.Brand", region) }},
		{"candidate of another item", func(r *Resolution) error { return r.ApplyCandidate("q.Region", brandDim) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolve(testReport(), testTable())
			before := r.Ambiguities()
			bindings := r.Bindings()

			err := tt.fn(r)
			require.ErrorIs(t, err, ErrInvalidChoice)

			assert.Equal(t, before, r.Ambiguities())
			assert.Equal(t, bindings, r.Bindings())
		})
	}
}

func TestApplyCandidate(t *testing.T) {
	r := Resolve(testReport(), testTable())

	require.NoError(t, r.ApplyCandidate("q.Brand", brandDim))
	target, _ := r.Target("q.Brand")
	assert.Equal(t, brandDim, target)

	require.NoError(t, r.ApplyCandidate("q.Region", region), "confirming a singleton is a no-op")
	b, _ := r.Binding("q.Region")
	assert.False(t, b.Chosen)
}

func TestFinalize(t *testing.T) {
	r := Resolve(testReport(), testTable())

	err := r.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedAmbiguity)
	assert.ErrorIs(t, err, ErrNoMapping, "both classes reported in one batch")
	assert.Contains(t, err.Error(), "q.Brand (2 candidates)")
	assert.Contains(t, err.Error(), "q.Custmer")
	assert.False(t, r.Finalized())

	require.NoError(t, r.ApplyChoice("q.Brand", 0))

	err = r.Finalize()
	require.ErrorIs(t, err, ErrNoMapping)
	assert.NotErrorIs(t, err, ErrUnresolvedAmbiguity)

	require.NoError(t, r.Exclude("q.Custmer"))
	assert.True(t, r.IsFullyResolved())
	require.NoError(t, r.Finalize())
	assert.True(t, r.Finalized())
	require.NoError(t, r.Finalize(), "finalize is idempotent")

	assert.ErrorIs(t, r.ApplyChoice("q.Brand", 1), ErrFinalized)
	assert.ErrorIs(t, r.Exclude("q.Custmer"), ErrFinalized)

	_, err = r.ExcludeUnmapped()
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestExclude(t *testing.T) {
	r := Resolve(testReport(), testTable())

	assert.ErrorIs(t, r.Exclude("q.Region"), ErrNotExcludable)
	assert.ErrorIs(t, r.Exclude("q.Brand"), ErrNotExcludable)
	assert.ErrorIs(t, r.Exclude("q.Nope"), ErrNotExcludable)

	require.Len(t, r.Unmapped(), 1)

	n, err := r.ExcludeUnmapped()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, r.Unmapped())
	require.Len(t, r.Excluded(), 1)
	assert.Equal(t, "q.Custmer", r.Excluded()[0].Item.ID)

	require.NoError(t, r.Exclude("q.Custmer"), "excluding twice is harmless")

	_, ok := r.Target("q.Custmer")
	assert.False(t, ok)
}

func TestFilterLookupUsesColumnPath(t *testing.T) {
	report := &source.Report{Pages: []source.Page{{ID: "P", Visuals: []source.Visual{{
		ID: "P/V",
		Filters: []source.DataItem{{
			ID:         "q#filter1",
			Name:       "[Sales].[Region]",
			Role:       source.RoleFilter,
			Expression: "[Sales].[Region] in ('North')",
		}},
	}}}}}

	tbl := mapping.NewTable()
	tbl.Add("[Sales].[Region]", region)

	r := Resolve(report, tbl)
	target, ok := r.Target("q#filter1")
	require.True(t, ok)
	assert.Equal(t, region, target)
}

func TestDiagnostics(t *testing.T) {
	r := Resolve(testReport(), testTable())

	d := r.Diagnostics()

	noMap := d.ByCode(diagnostic.CodeNoMapping)
	require.Len(t, noMap, 1)
	assert.Equal(t, "q.Custmer", noMap[0].Item)
	assert.Equal(t, "P/V2", noMap[0].Location)
	assert.Equal(t, diagnostic.SeverityError, noMap[0].Severity)
	assert.Contains(t, noMap[0].Suggestions, "sales.customer")

	amb := d.ByCode(diagnostic.CodeAmbiguous)
	require.Len(t, amb, 1)
	assert.Contains(t, amb[0].Message, "0=Product.Brand, 1=Brand.Name")

	_, err := r.ExcludeUnmapped()
	require.NoError(t, err)

	d = r.Diagnostics()
	assert.Empty(t, d.ByCode(diagnostic.CodeNoMapping))
	assert.Len(t, d.ByCode(diagnostic.CodeExcludedItem), 1)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "bound", StatusBound.String())
	assert.Equal(t, "no_mapping", StatusNoMapping.String())
	assert.Equal(t, "unknown", Status(42).String())
	assert.Equal(t, "ambiguous", LookupAmbiguous.String())
}
