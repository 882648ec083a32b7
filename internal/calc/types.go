package calc

import (
	"strings"

	"report-converter/internal/common"
	"report-converter/internal/resolve"
	"report-converter/internal/source"
	"report-converter/internal/visual"
)

// Data type names accepted for measures.
const (
	TypeText         = "text"
	TypeWholeNumber  = "whole number"
	TypeDecimal      = "decimal number"
	TypeDateTime     = "date/time"
	TypeBoolean      = "true/false"
	TypeFixedDecimal = "fixed decimal number"
	TypeBinary       = "binary"
)

var dataTypeCodes = map[string]int{
	TypeText:         1,
	TypeWholeNumber:  2,
	TypeDecimal:      3,
	TypeDateTime:     4,
	"date":           4,
	"time":           4,
	TypeBoolean:      5,
	TypeFixedDecimal: 6,
	TypeBinary:       7,
}

// DataTypeCode maps a data type name to the target model's integer code.
// Unknown names fall back to text.
func DataTypeCode(name string) int {
	if code, ok := dataTypeCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}

	return dataTypeCodes[TypeText]
}

// IsDataType reports whether name is a known data type.
func IsDataType(name string) bool {
	_, ok := dataTypeCodes[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

var aggregationFunctions = map[string]string{
	"total":          "SUM",
	"sum":            "SUM",
	"average":        "AVERAGE",
	"count":          "COUNT",
	"distinct count": "DISTINCTCOUNT",
	"countdistinct":  "DISTINCTCOUNT",
	"maximum":        "MAX",
	"minimum":        "MIN",
}

// AggregationFunction maps a source aggregation to an aggregate function
// name, defaulting to SUM.
func AggregationFunction(aggregation string) string {
	if fn, ok := aggregationFunctions[strings.ToLower(strings.TrimSpace(aggregation))]; ok {
		return fn
	}

	return "SUM"
}

// ColumnRef renders 'Table'[Column].
func ColumnRef(table, column string) string {
	return "'" + strings.ReplaceAll(table, "'", "''") + "'[" + column + "]"
}

// Request asks the generator for one measure's expression.
type Request struct {
	MeasureID        string `yaml:"measure_id" json:"measure_id"`
	Measure          string `yaml:"measure" json:"measure"`
	Table            string `yaml:"table" json:"table"`
	Column           string `yaml:"column" json:"column"`
	Aggregation      string `yaml:"aggregation,omitempty" json:"aggregation,omitempty"`
	SourceExpression string `yaml:"source_expression" json:"source_expression"`
}

// TargetRef is the column reference the expression should aggregate.
func (r Request) TargetRef() string {
	return ColumnRef(r.Table, r.Column)
}

// Result is the generator's answer for one measure.
type Result struct {
	MeasureID  string `yaml:"measure_id" json:"measure_id"`
	Expression string `yaml:"expression" json:"expression"`
	DataType   string `yaml:"data_type,omitempty" json:"dataType,omitempty"`
}

// Measure is a report-level measure and its calculation state.
type Measure struct {
	// ID is the first source item that produced the measure.
	ID string
	// ItemIDs lists every source item sharing this measure, ID first.
	ItemIDs          []string
	Name             string
	Table            string
	Column           string
	Aggregation      string
	SourceExpression string
	Expression       string
	DataType         string
	// Pending is set when no result was supplied.
	Pending bool
	// Unverified is set when the expression failed the delimiter check.
	Unverified bool
}

// DataTypeCode returns the measure's integer data type.
func (m Measure) DataTypeCode() int {
	return DataTypeCode(m.DataType)
}

// QueryRef renders Table.Name, matching visual field references.
func (m Measure) QueryRef() string {
	return m.Table + "." + m.Name
}

// Collect gathers the measures of every visual in report order. Items that
// are not bound are skipped; items resolving to the same target share one
// measure.
func Collect(report *source.Report, res *resolve.Resolution) []Measure {
	var out []Measure

	byRef := make(map[string]int)

	for _, v := range report.Visuals() {
		for _, it := range v.Measures {
			target, ok := res.Target(it.ID)
			if !ok {
				continue
			}

			m := Measure{
				ID:               it.ID,
				ItemIDs:          []string{it.ID},
				Name:             visual.MeasureName(target.Column),
				Table:            target.Table,
				Column:           target.Column,
				Aggregation:      it.Aggregation,
				SourceExpression: it.Expression,
				DataType:         DefaultDataType(it.Aggregation),
			}

			if i, dup := byRef[m.QueryRef()]; dup {
				out[i].ItemIDs = common.Dedupe(append(out[i].ItemIDs, it.ID))
				continue
			}

			byRef[m.QueryRef()] = len(out)
			out = append(out, m)
		}
	}

	return out
}

// DefaultDataType is the data type assumed for an aggregation before any
// generator answers.
func DefaultDataType(aggregation string) string {
	switch AggregationFunction(aggregation) {
	case "COUNT", "DISTINCTCOUNT":
		return TypeWholeNumber
	default:
		return TypeDecimal
	}
}

// Requests builds one request per measure of report.
func Requests(report *source.Report, res *resolve.Resolution) []Request {
	return RequestsFor(Collect(report, res))
}

// RequestsFor builds requests for already collected measures.
func RequestsFor(measures []Measure) []Request {
	out := make([]Request, 0, len(measures))

	for _, m := range measures {
		out = append(out, Request{
			MeasureID:        m.ID,
			Measure:          m.Name,
			Table:            m.Table,
			Column:           m.Column,
			Aggregation:      m.Aggregation,
			SourceExpression: m.SourceExpression,
		})
	}

	return out
}
