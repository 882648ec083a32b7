package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[Presentation Layer].[Brand].[Brand Label]", "presentation layer.brand.brand label"},
		{`[Sales]."[Order Date]"`, "sales.order date"},
		{`[ "Sales" ].[ Revenue ]`, "sales.revenue"},
		{"  Revenue ", "revenue"},
		{"[Revenue]", "revenue"},
		{"total([Revenue])", "total([revenue])"},
		{"presentation layer.brand.brand label", "presentation layer.brand.brand label"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKey(tt.input))
		})
	}
}

func TestTableAddAndLookup(t *testing.T) {
	tbl := NewTable()
	tbl.Add("[Sales].[Brand]", Candidate{Table: "Product", Column: "Brand"})
	tbl.Add("sales.brand",
		Candidate{Table: "Product", Column: "Brand"},
		Candidate{Table: " Brand ", Column: "Name"},
		Candidate{Table: "", Column: "orphan"},
	)
	tbl.Add("Region", Candidate{Table: "Geo", Column: "Region"})
	tbl.Add("   ")

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"sales.brand", "region"}, tbl.Keys())

	got := tbl.Lookup("[SALES].[Brand]")
	assert.Equal(t, []Candidate{
		{Table: "Product", Column: "Brand"},
		{Table: "Brand", Column: "Name"},
	}, got, "declaration order kept, duplicates and blanks dropped")

	assert.True(t, tbl.Has("region"))
	assert.False(t, tbl.Has("country"))
	assert.Empty(t, tbl.Lookup("country"))
}

func TestNilTable(t *testing.T) {
	var tbl *Table

	assert.Nil(t, tbl.Lookup("x"))
	assert.False(t, tbl.Has("x"))
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Keys())
}

func TestTableMerge(t *testing.T) {
	a := NewTable()
	a.Add("x", Candidate{Table: "A", Column: "x"})

	b := NewTable()
	b.Add("x", Candidate{Table: "B", Column: "x"}, Candidate{Table: "A", Column: "x"})
	b.Add("y", Candidate{Table: "B", Column: "y"})

	a.Merge(b)

	assert.Equal(t, []string{"x", "y"}, a.Keys())
	assert.Equal(t, []Candidate{{"A", "x"}, {"B", "x"}}, a.Lookup("x"))
}

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		input   string
		want    Candidate
		wantErr bool
	}{
		{input: "'Sales Fact'[Revenue]", want: Candidate{Table: "Sales Fact", Column: "Revenue"}},
		{input: "Sales[Revenue]", want: Candidate{Table: "Sales", Column: "Revenue"}},
		{input: "Sales.Revenue", want: Candidate{Table: "Sales", Column: "Revenue"}},
		{input: "dbo.Sales.Revenue", want: Candidate{Table: "dbo.Sales", Column: "Revenue"}},
		{input: "Revenue", wantErr: true},
		{input: "''[Revenue]", wantErr: true},
		{input: "Sales.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCandidate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Table+"."+tt.want.Column, got.String())
		})
	}
}
