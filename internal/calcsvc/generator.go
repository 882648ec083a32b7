// Package calcsvc implements expression generators that answer calculation
// requests, and a dispatcher that runs them with bounded parallelism.
package calcsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"report-converter/internal/calc"
)

// ErrGeneration indicates a generator could not produce an expression.
var ErrGeneration = errors.New("calculation generation failed")

// Generator produces the expression for one measure.
type Generator interface {
	Generate(ctx context.Context, req calc.Request) (calc.Result, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req calc.Request) (calc.Result, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req calc.Request) (calc.Result, error) {
	return f(ctx, req)
}

// TemplateGenerator builds AGG('Table'[Column]) from the source aggregation
// without calling out to any service.
type TemplateGenerator struct{}

// Generate implements Generator.
func (TemplateGenerator) Generate(_ context.Context, req calc.Request) (calc.Result, error) {
	if strings.TrimSpace(req.Table) == "" || strings.TrimSpace(req.Column) == "" {
		return calc.Result{}, fmt.Errorf("%w: %s has no target column", ErrGeneration, req.MeasureID)
	}

	return calc.Result{
		MeasureID:  req.MeasureID,
		Expression: calc.AggregationFunction(req.Aggregation) + "(" + req.TargetRef() + ")",
		DataType:   calc.DefaultDataType(req.Aggregation),
	}, nil
}
