package source

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()

	data, err := os.ReadFile("testdata/sales_report.xml")
	require.NoError(t, err)

	return data
}

func TestParseSalesReport(t *testing.T) {
	report, err := Parse(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, "EU Sales Overview", report.Name)
	require.Len(t, report.Queries, 2)
	require.Len(t, report.Pages, 2)

	overview := report.Pages[0]
	assert.Equal(t, "Overview", overview.ID)
	require.Len(t, overview.Visuals, 1)

	ct := overview.Visuals[0]
	assert.Equal(t, "Overview/Crosstab1", ct.ID)
	assert.Equal(t, KindCrosstab, ct.Kind)
	assert.Equal(t, "Query1", ct.QueryRef)

	require.Len(t, ct.Rows, 1, "duplicate node members collapse")
	assert.Equal(t, "Query1.Brand", ct.Rows[0].ID)
	assert.Equal(t, RoleRow, ct.Rows[0].Role)
	assert.Equal(t, "[Presentation Layer].[Brand].[Brand Label]", ct.Rows[0].Expression)

	require.Len(t, ct.Columns, 1)
	assert.Equal(t, "Region", ct.Columns[0].Name)

	require.Len(t, ct.Measures, 1)
	assert.Equal(t, "Revenue", ct.Measures[0].Name)
	assert.Equal(t, "total", ct.Measures[0].Aggregation)
	assert.Equal(t, RoleMeasure, ct.Measures[0].Role)

	require.Len(t, ct.Filters, 1)
	assert.Equal(t, "Query1#filter1", ct.Filters[0].ID)
	assert.Equal(t, "[Presentation Layer].[Region].[Region Name]", ct.Filters[0].Name)
	assert.Contains(t, ct.Filters[0].Expression, "in ('North'; 'South')")

	list := report.Pages[1].Visuals[0]
	assert.Equal(t, KindList, list.Kind)
	require.Len(t, list.Rows, 1)
	assert.Equal(t, "Customer", list.Rows[0].Name)
	require.Len(t, list.Measures, 1, "aggregated list columns become measures")
	assert.Equal(t, "Orders", list.Measures[0].Name)
	assert.Empty(t, list.Filters)
}

func TestParsePreservesDeclaredOrder(t *testing.T) {
	build := func(first, second string) string {
		return `<report><queries><query name="q"><selection>
			<dataItem name="A"><expression>[M].[T].[A]</expression></dataItem>
			<dataItem name="B"><expression>[M].[T].[B]</expression></dataItem>
		</selection></query></queries>
		<page name="P"><list name="L" refQuery="q"><listColumns>
			<listColumn><listColumnBody><dataItemValue refDataItem="` + first + `"/></listColumnBody></listColumn>
			<listColumn><listColumnBody><dataItemValue refDataItem="` + second + `"/></listColumnBody></listColumn>
		</listColumns></list></page></report>`
	}

	ab, err := Parse([]byte(build("A", "B")))
	require.NoError(t, err)
	ba, err := Parse([]byte(build("B", "A")))
	require.NoError(t, err)

	names := func(r *Report) []string {
		var out []string
		for _, it := range r.Pages[0].Visuals[0].Rows {
			out = append(out, it.Name)
		}
		return out
	}

	assert.Equal(t, []string{"A", "B"}, names(ab))
	assert.Equal(t, []string{"B", "A"}, names(ba))
}

func TestParseToleratesUnknownNodes(t *testing.T) {
	doc := `<report xmlns="urn:future" futureAttr="1"><reportName>R</reportName>
		<queries><query name="q" newAttr="x"><unknownBlock><deep/></unknownBlock><selection>
			<dataItem name="A" sort="asc"><expression>[A]</expression><label>ignored</label></dataItem>
		</selection></query></queries>
		<page name="P"><extra/><list name="L" refQuery="q" style="x"><listColumns>
			<listColumn><listColumnBody><dataItemValue refDataItem="A"/></listColumnBody></listColumn>
		</listColumns></list></page></report>`

	report, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "R", report.Name)
	require.Len(t, report.Pages[0].Visuals[0].Rows, 1)
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		message string
	}{
		{
			name:    "malformed",
			doc:     `<report><queries>`,
			message: "decoding XML",
		},
		{
			name:    "empty",
			doc:     ``,
			message: "no root element",
		},
		{
			name:    "no query",
			doc:     `<report><page name="P"><list refQuery="q"/></page></report>`,
			message: "no query element",
		},
		{
			name:    "no page",
			doc:     `<report><queries><query name="q"/></queries></report>`,
			message: "no page element",
		},
		{
			name:    "no role marker",
			doc:     `<report><queries><query name="q"/></queries><page name="P"><list name="L" refQuery="q"/></page></report>`,
			message: "no data item role marker",
		},
		{
			name:    "missing query reference",
			doc:     `<report><queries><query name="q"/></queries><page name="P"><list name="L" refQuery="other"/></page></report>`,
			message: `missing query "other"`,
		},
		{
			name: "item ID collision",
			doc: `<report><queries>
				<query name="A.B"><selection><dataItem name="C"><expression>[X]</expression></dataItem></selection></query>
				<query name="A"><selection><dataItem name="B.C"><expression>[Y]</expression></dataItem></selection></query>
			</queries><page name="P"><list name="L" refQuery="A"><listColumns>
				<listColumn><dataItemValue refDataItem="B.C"/></listColumn>
			</listColumns></list></page></report>`,
			message: `data item ID "A.B.C" is shared`,
		},
		{
			name:    "visual without query",
			doc:     `<report><queries><query name="q"/></queries><page name="P"><crosstab name="C"/></page></report>`,
			message: "has no refQuery",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStructural)
			assert.True(t, strings.Contains(err.Error(), tt.message), err.Error())
		})
	}
}

func TestParseChart(t *testing.T) {
	doc := `<report><queries><query name="q"><selection>
			<dataItem name="Month"><expression>[T].[Month]</expression></dataItem>
			<dataItem name="Brand"><expression>[T].[Brand]</expression></dataItem>
			<dataItem name="Units" aggregate="total"><expression>[T].[Units]</expression></dataItem>
		</selection></query></queries>
		<page name="P"><v2_combinationChart name="Chart" refQuery="q">
			<v2_categories><chartNodes><chartNode><chartNodeMembers><chartNodeMember refDataItem="Month"/></chartNodeMembers></chartNode></chartNodes></v2_categories>
			<v2_series><chartNodes><chartNode><chartNodeMembers><chartNodeMember refDataItem="Brand"/></chartNodeMembers></chartNode></chartNodes></v2_series>
			<v2_defaultChartMeasure refDataItem="Units"/>
		</v2_combinationChart></page></report>`

	report, err := Parse([]byte(doc))
	require.NoError(t, err)

	v := report.Pages[0].Visuals[0]
	assert.Equal(t, KindChart, v.Kind)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "Month", v.Rows[0].Name)
	require.Len(t, v.Columns, 1)
	assert.Equal(t, "Brand", v.Columns[0].Name)
	require.Len(t, v.Measures, 1)
	assert.Equal(t, "Units", v.Measures[0].Name)
}

func TestReportDataItems(t *testing.T) {
	report, err := Parse(loadFixture(t))
	require.NoError(t, err)

	var ids []string
	for _, it := range report.DataItems() {
		ids = append(ids, it.ID)
	}

	assert.Equal(t, []string{
		"Query1.Brand", "Query1.Region", "Query1.Revenue", "Query1#filter1",
		"Query2.Customer", "Query2.Orders",
	}, ids)
}

func TestFilterColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[A].[B].[C] in ('x')", "[A].[B].[C]"},
		{"  [A].[B] = 'y'", "[A].[B]"},
		{"total([Sales]) > 10", "total([Sales]) > 10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterColumn(tt.in))
		})
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "row", RoleRow.String())
	assert.Equal(t, "filter", RoleFilter.String())
	assert.Equal(t, "Role(0)", Role(0).String())

	r, ok := ParseRole(" Measure ")
	assert.True(t, ok)
	assert.Equal(t, RoleMeasure, r)

	_, ok = ParseRole("legend")
	assert.False(t, ok)
}

func TestParseRepeatedNamesGetUniqueIDs(t *testing.T) {
	list := `<list name="L" refQuery="q"><listColumns>
		<listColumn><dataItemValue refDataItem="A"/></listColumn>
	</listColumns></list>`

	doc := `<report><queries><query name="q"><selection>
			<dataItem name="A"><expression>[A]</expression></dataItem>
		</selection></query></queries>
		<page name="Page1">` + list + list + `</page>
		<page>` + list + `</page>
		<page name="Page1">` + list + `</page>
		<page name="page2">` + list + `</page>
	</report>`

	report, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, report.Pages, 4)

	var ids []string
	for _, p := range report.Pages {
		ids = append(ids, p.ID)
	}

	assert.Equal(t, []string{"Page1", "page2", "Page1~3", "page2~4"}, ids)
	assert.Equal(t, "Page1", report.Pages[2].Name, "names are kept")

	first := report.Pages[0].Visuals
	require.Len(t, first, 2)
	assert.Equal(t, "Page1/L", first[0].ID)
	assert.Equal(t, "Page1/L~2", first[1].ID)
	assert.Equal(t, "Page1~3/L", report.Pages[2].Visuals[0].ID)
}
