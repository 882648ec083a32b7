package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank(t *testing.T) {
	keys := []string{"brand name", "region", "brand label", "revenue"}

	got := Rank("Brand Labels", keys, DefaultThreshold)

	if assert.NotEmpty(t, got) {
		assert.Equal(t, "brand label", got[0].Key)
	}

	for _, s := range got {
		assert.GreaterOrEqual(t, s.Score, DefaultThreshold)
	}
}

func TestRankUsesLastSegment(t *testing.T) {
	keys := []string{"presentation layer.sales.revenue"}

	got := Rank("[Finance].[Revenue]", keys, 0.9)

	if assert.Len(t, got, 1) {
		assert.InDelta(t, 1.0, got[0].Score, 0.001)
	}
}

func TestSuggest(t *testing.T) {
	keys := []string{"customer", "customers", "country", "orders"}

	tests := []struct {
		name  string
		names []string
		limit int
		want  []string
	}{
		{
			name:  "best first, limited",
			names: []string{"Customer"},
			limit: 1,
			want:  []string{"customer"},
		},
		{
			name:  "merged across names without duplicates",
			names: []string{"Customr", "Customer"},
			limit: 5,
			want:  []string{"customer", "customers"},
		},
		{
			name:  "blank name ignored",
			names: []string{"  "},
			limit: 3,
			want:  []string{},
		},
		{
			name:  "nothing close",
			names: []string{"zzz"},
			limit: 3,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.names, keys, tt.limit))
		})
	}
}
