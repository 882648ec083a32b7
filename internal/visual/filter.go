package visual

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	inListExpr      = regexp.MustCompile(`(?i)\bin\s*\((.*?)\)`)
	equalsParenExpr = regexp.MustCompile(`=\s*\(\s*'(.*?)'\s*\)`)
	equalsExpr      = regexp.MustCompile(`=\s*'(.*?)'`)
	listSeparator   = regexp.MustCompile(`[,;]`)
)

// FilterValue is one categorical filter value.
type FilterValue struct {
	Text string
	// Quoted is set when the source wrote the value as a string literal.
	Quoted bool
}

// Literal renders the value in the target query literal syntax:
// integers get an L suffix, decimals D, anything else is single-quoted.
func (v FilterValue) Literal() string {
	if !v.Quoted {
		if _, err := strconv.ParseInt(v.Text, 10, 64); err == nil {
			return v.Text + "L"
		}

		if _, err := strconv.ParseFloat(v.Text, 64); err == nil {
			return v.Text + "D"
		}
	}

	return "'" + strings.ReplaceAll(v.Text, "'", "''") + "'"
}

// ParseFilterValues extracts the values of an "in (...)" or "= '...'"
// filter expression. Unrecognized shapes yield no values.
func ParseFilterValues(expression string) []FilterValue {
	if m := inListExpr.FindStringSubmatch(expression); m != nil {
		var out []FilterValue

		for _, raw := range listSeparator.Split(m[1], -1) {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}

			text := strings.Trim(raw, `'"`)
			out = append(out, FilterValue{Text: text, Quoted: text != raw})
		}

		return out
	}

	if m := equalsParenExpr.FindStringSubmatch(expression); m != nil {
		return []FilterValue{{Text: m[1], Quoted: true}}
	}

	if m := equalsExpr.FindStringSubmatch(expression); m != nil {
		return []FilterValue{{Text: m[1], Quoted: true}}
	}

	return nil
}
