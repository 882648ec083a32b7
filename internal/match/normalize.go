package match

import (
	"strings"
	"unicode"
)

// NormalizeName normalizes a report field name for fuzzy matching.
// The normalization pipeline:
// 1. Drop bracket and quote characters.
// 2. Case-fold to lower.
// 3. Strip separators (_, -, spaces, dots).
//
// "[Sales].[Order Date]" and "sales.order_date" both become "salesorderdate".
func NormalizeName(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) || isDelimiter(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// LastSegment returns the trailing element of a dotted or bracketed path,
// e.g. "[Presentation Layer].[Brand].[Brand Label]" -> "Brand Label".
func LastSegment(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[i+1:]
	}

	return strings.Trim(s, "[]\"' ")
}

// Tokenize splits a name into lowercase tokens on separators and brackets.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return isSeparator(r) || isDelimiter(r)
	})
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

func isDelimiter(r rune) bool {
	return r == '[' || r == ']' || r == '"' || r == '\''
}
