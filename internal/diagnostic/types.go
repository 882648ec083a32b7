package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"report-converter/internal/common"
)

// Code classifies a diagnostic.
type Code string

const (
	CodeStructural           Code = "structural_error"
	CodeNoMapping            Code = "no_mapping"
	CodeAmbiguous            Code = "ambiguous"
	CodeInvalidChoice        Code = "invalid_choice"
	CodeUnresolvedAmbiguity  Code = "unresolved_ambiguity"
	CodeExcludedItem         Code = "excluded_item"
	CodeUnsupportedWell      Code = "unsupported_well"
	CodeOrphanResult         Code = "orphan_result"
	CodeDuplicateResult      Code = "duplicate_result"
	CodeUnverifiedExpression Code = "unverified_expression"
	CodePendingCalculation   Code = "pending_calculation"
	CodeUnknownTargetField   Code = "unknown_target_field"
	CodeOmittedVisual        Code = "omitted_visual"
	CodeCalculationFailed    Code = "calculation_failed"
)

// Stage identifies the pipeline stage where a diagnostic was raised.
type Stage string

const (
	StageParse     Stage = "parse"
	StageResolve   Stage = "resolve"
	StageBind      Stage = "bind"
	StageCalculate Stage = "calculate"
	StageAssemble  Stage = "assemble"
)

// Diagnostics holds all diagnostic information from a conversion run.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a unique identifier for this type of diagnostic.
	Code Code
	// Stage is where the diagnostic was raised.
	Stage Stage
	// Message is the human-readable description.
	Message string
	// Item identifies the data item this relates to (if any).
	Item string
	// Location is the page/visual path this relates to (if any).
	Location string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Add appends d to the bucket matching its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(stage Stage, code Code, message, item, location string) {
	d.Add(Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Stage:    stage,
		Message:  message,
		Item:     item,
		Location: location,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(stage Stage, code Code, message, item, location string) {
	d.Add(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Stage:    stage,
		Message:  message,
		Item:     item,
		Location: location,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(stage Stage, code Code, message, item, location string) {
	d.Add(Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Stage:    stage,
		Message:  message,
		Item:     item,
		Location: location,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// All returns every diagnostic, errors first.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Infos))
	out = append(out, d.Errors...)
	out = append(out, d.Warnings...)

	return append(out, d.Infos...)
}

// ByCode returns every diagnostic carrying the given code.
func (d *Diagnostics) ByCode(code Code) []Diagnostic {
	var out []Diagnostic

	for _, diag := range d.All() {
		if diag.Code == code {
			out = append(out, diag)
		}
	}

	return out
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Location != "" {
		prefix = append(prefix, "["+d.Location+"]")
	}

	if d.Item != "" {
		prefix = append(prefix, d.Item)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean: " + strings.Join(d.Suggestions, ", ") + ")"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
