package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-converter/internal/diagnostic"
	"report-converter/internal/mapping"
	"report-converter/internal/resolve"
	"report-converter/internal/source"
)

func measureItem(query, name, agg string) source.DataItem {
	return source.DataItem{
		ID:          query + "." + name,
		Name:        name,
		Query:       query,
		Role:        source.RoleMeasure,
		Expression:  "[Sales].[" + name + "]",
		Aggregation: agg,
	}
}

func fixture() (*source.Report, *resolve.Resolution) {
	report := &source.Report{Pages: []source.Page{
		{ID: "P1", Visuals: []source.Visual{{
			ID:       "P1/V",
			Measures: []source.DataItem{measureItem("q1", "Revenue", "total"), measureItem("q1", "Orders", "count")},
		}}},
		{ID: "P2", Visuals: []source.Visual{{
			ID: "P2/V",
			Measures: []source.DataItem{
				measureItem("q2", "Revenue", "total"),
				measureItem("q2", "Margin", "average"),
			},
		}}},
	}}

	tbl := mapping.NewTable()
	tbl.Add("[Sales].[Revenue]", mapping.Candidate{Table: "Sales", Column: "Revenue"})
	tbl.Add("[Sales].[Orders]", mapping.Candidate{Table: "Sales", Column: "Order Number"})

	return report, resolve.Resolve(report, tbl)
}

func TestCollect(t *testing.T) {
	report, res := fixture()

	measures := Collect(report, res)
	require.Len(t, measures, 2, "unbound Margin skipped, shared Revenue merged")

	assert.Equal(t, "q1.Revenue", measures[0].ID)
	assert.Equal(t, []string{"q1.Revenue", "q2.Revenue"}, measures[0].ItemIDs)
	assert.Equal(t, "Revenue Measure", measures[0].Name)
	assert.Equal(t, "Sales.Revenue Measure", measures[0].QueryRef())
	assert.Equal(t, TypeDecimal, measures[0].DataType)

	assert.Equal(t, "Order Number Measure", measures[1].Name)
	assert.Equal(t, TypeWholeNumber, measures[1].DataType)

	reqs := Requests(report, res)
	require.Len(t, reqs, 2)
	assert.Equal(t, Request{
		MeasureID:        "q1.Orders",
		Measure:          "Order Number Measure",
		Table:            "Sales",
		Column:           "Order Number",
		Aggregation:      "count",
		SourceExpression: "[Sales].[Orders]",
	}, reqs[1])
	assert.Equal(t, "'Sales'[Order Number]", reqs[1].TargetRef())
}

func TestMerge(t *testing.T) {
	report, res := fixture()
	measures := Collect(report, res)

	got, diags, err := Merge(measures, []Result{
		{MeasureID: "q2.Revenue", Expression: "  SUM('Sales'[Revenue]) ", DataType: "Fixed Decimal Number"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "SUM('Sales'[Revenue])", got[0].Expression, "an alias id reaches the shared measure")
	assert.Equal(t, TypeFixedDecimal, got[0].DataType)
	assert.Equal(t, 6, got[0].DataTypeCode())
	assert.False(t, got[0].Pending)
	assert.False(t, got[0].Unverified)

	assert.True(t, got[1].Pending)
	assert.Empty(t, got[1].Expression)

	pending := diags.ByCode(diagnostic.CodePendingCalculation)
	require.Len(t, pending, 1)
	assert.Equal(t, "q1.Orders", pending[0].Item)

	assert.Empty(t, measures[1].Expression, "inputs untouched")
	assert.False(t, measures[1].Pending)
}

func TestMergeOrphanKeepsOthers(t *testing.T) {
	report, res := fixture()
	measures := Collect(report, res)

	got, diags, err := Merge(measures, []Result{
		{MeasureID: "q9.Ghost", Expression: "SUM(x[y])"},
		{MeasureID: "q1.Orders", Expression: "COUNT('Sales'[Order Number])"},
		{MeasureID: "q1.Revenue", Expression: "SUM('Sales'[Revenue])"},
	})
	require.ErrorIs(t, err, ErrOrphanResult)
	assert.Contains(t, err.Error(), "q9.Ghost")

	require.Len(t, got, 2)
	assert.Equal(t, "SUM('Sales'[Revenue])", got[0].Expression)
	assert.Equal(t, "COUNT('Sales'[Order Number])", got[1].Expression)
	assert.False(t, got[0].Pending)
	assert.False(t, got[1].Pending)

	assert.Len(t, diags.ByCode(diagnostic.CodeOrphanResult), 1)
	assert.True(t, diags.HasErrors())
}

func TestMergeFlagsUnverified(t *testing.T) {
	report, res := fixture()

	got, diags, err := Merge(Collect(report, res), []Result{
		{MeasureID: "q1.Revenue", Expression: "SUM('Sales'[Revenue]"},
		{MeasureID: "q1.Orders", Expression: "COUNT('Sales'[Order Number])"},
	})
	require.NoError(t, err)

	assert.True(t, got[0].Unverified)
	assert.Equal(t, "SUM('Sales'[Revenue]", got[0].Expression, "content kept")
	assert.False(t, got[1].Unverified)

	unverified := diags.ByCode(diagnostic.CodeUnverifiedExpression)
	require.Len(t, unverified, 1)
	assert.Equal(t, "q1.Revenue", unverified[0].Item)
	assert.False(t, diags.HasErrors())
}

func TestMergeDuplicateResult(t *testing.T) {
	report, res := fixture()

	got, diags, err := Merge(Collect(report, res), []Result{
		{MeasureID: "q1.Revenue", Expression: "SUM('Sales'[Revenue])"},
		{MeasureID: "q2.Revenue", Expression: "SUMX(Sales, Sales[Revenue])"},
	})
	require.NoError(t, err)

	assert.Equal(t, "SUM('Sales'[Revenue])", got[0].Expression, "first result wins")
	assert.Len(t, diags.Warnings, 2, "duplicate plus the pending Orders measure")

	dups := diags.ByCode(diagnostic.CodeDuplicateResult)
	require.Len(t, dups, 1)
	assert.Equal(t, "q2.Revenue", dups[0].Item)
	assert.Empty(t, diags.ByCode(diagnostic.CodeOrphanResult), "a duplicate is not an orphan")
}

func TestMergeOrderIndependent(t *testing.T) {
	report, res := fixture()
	measures := Collect(report, res)

	a := []Result{
		{MeasureID: "q1.Revenue", Expression: "SUM('Sales'[Revenue])"},
		{MeasureID: "q1.Orders", Expression: "COUNT('Sales'[Order Number])"},
	}
	b := []Result{a[1], a[0]}

	gotA, _, errA := Merge(measures, a)
	gotB, _, errB := Merge(measures, b)

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, gotA, gotB)
}
