package match

import (
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Brand", "brand"},
		{"Order Date", "orderdate"},
		{"order_date", "orderdate"},
		{"order-date", "orderdate"},
		{"[Sales].[Order Date]", "salesorderdate"},
		{"'Region'", "region"},
		{"Umsatz Größe", "umsatzgröße"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeName(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLastSegment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[Presentation Layer].[Brand].[Brand Label]", "Brand Label"},
		{"sales.revenue", "revenue"},
		{"Revenue", "Revenue"},
		{" [Region] ", "Region"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LastSegment(tt.input); got != tt.expected {
				t.Errorf("LastSegment(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("[Sales].[Order_Date]")
	want := []string{"sales", "order", "date"}

	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokenize[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
