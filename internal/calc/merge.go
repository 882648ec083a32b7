package calc

import (
	"errors"
	"fmt"
	"strings"

	"report-converter/internal/diagnostic"
)

// ErrOrphanResult is returned for a result whose id matches no known measure.
var ErrOrphanResult = errors.New("orphan calculation result")

// Merge copies result expressions into the matching measures and returns
// the updated copies. Measures without a result are marked Pending; results
// failing CheckExpression are kept and marked Unverified. Orphan results
// yield an error wrapping ErrOrphanResult, but every other measure is still
// merged and returned.
func Merge(measures []Measure, results []Result) ([]Measure, diagnostic.Diagnostics, error) {
	out := make([]Measure, len(measures))
	index := make(map[string]int, len(measures))

	for i, m := range measures {
		out[i] = m
		out[i].ItemIDs = append([]string(nil), m.ItemIDs...)

		for _, id := range append([]string{m.ID}, m.ItemIDs...) {
			if _, ok := index[id]; !ok {
				index[id] = i
			}
		}
	}

	var (
		diags  diagnostic.Diagnostics
		errs   []error
		merged = make(map[int]string)
	)

	for _, r := range results {
		i, ok := index[r.MeasureID]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrOrphanResult, r.MeasureID))
			diags.AddError(diagnostic.StageCalculate, diagnostic.CodeOrphanResult,
				"result does not match any measure", r.MeasureID, "")

			continue
		}

		if prev, dup := merged[i]; dup {
			diags.AddWarning(diagnostic.StageCalculate, diagnostic.CodeDuplicateResult,
				fmt.Sprintf("duplicate result ignored, %s already supplied one", prev), r.MeasureID, out[i].QueryRef())

			continue
		}

		merged[i] = r.MeasureID
		out[i].Expression = strings.TrimSpace(r.Expression)

		if dt := strings.TrimSpace(r.DataType); dt != "" {
			out[i].DataType = strings.ToLower(dt)
		}
	}

	for i := range out {
		m := &out[i]

		if _, ok := merged[i]; !ok {
			m.Expression = ""
			m.Pending = true
			diags.AddWarning(diagnostic.StageCalculate, diagnostic.CodePendingCalculation,
				"no calculation supplied, measure needs a manual expression", m.ID, m.QueryRef())

			continue
		}

		m.Pending = false

		if err := CheckExpression(m.Expression); err != nil {
			m.Unverified = true
			diags.AddWarning(diagnostic.StageCalculate, diagnostic.CodeUnverifiedExpression,
				err.Error(), m.ID, m.QueryRef())
		}
	}

	return out, diags, errors.Join(errs...)
}
