package calcsvc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"report-converter/internal/calc"
)

const (
	defaultParallelism = 4
	defaultCallTimeout = 60 * time.Second
)

// Failure records a request the generator could not answer.
type Failure struct {
	MeasureID string
	Err       error
}

// Error implements error.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.MeasureID, f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error {
	return f.Err
}

// Outcome is the partial answer to a batch of requests.
type Outcome struct {
	// Results are in request order, missing the failed requests.
	Results  []calc.Result
	Failures []Failure
}

// Dispatcher fans requests out to a Generator.
type Dispatcher struct {
	gen         Generator
	parallelism int
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithParallelism bounds concurrent generator calls.
func WithParallelism(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.parallelism = n
		}
	}
}

// WithTimeout bounds each generator call.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher around gen.
func NewDispatcher(gen Generator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gen:         gen,
		parallelism: defaultParallelism,
		timeout:     defaultCallTimeout,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.logger = d.logger.Named("calcsvc")

	return d
}

// Run answers every request it can. A failed or timed-out call never stops
// the others; it is reported in Outcome.Failures. Cancelling ctx fails the
// calls that have not finished.
func (d *Dispatcher) Run(ctx context.Context, reqs []calc.Request) Outcome {
	type slot struct {
		res calc.Result
		err error
	}

	slots := make([]slot, len(reqs))

	var g errgroup.Group
	g.SetLimit(d.parallelism)

	d.logger.Info("Dispatching calculation requests",
		zap.Int("count", len(reqs)), zap.Int("parallelism", d.parallelism))

	for i, req := range reqs {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			start := time.Now()
			res, err := d.gen.Generate(callCtx, req)

			if err == nil && res.MeasureID == "" {
				res.MeasureID = req.MeasureID
			}

			slots[i] = slot{res: res, err: err}

			if err != nil {
				d.logger.Warn("Calculation failed", zap.String("measure_id", req.MeasureID), zap.Error(err))
			} else {
				d.logger.Debug("Calculation generated",
					zap.String("measure_id", req.MeasureID), zap.Duration("elapsed", time.Since(start)))
			}

			return nil
		})
	}

	_ = g.Wait()

	var out Outcome

	for i, s := range slots {
		if s.err != nil {
			out.Failures = append(out.Failures, Failure{MeasureID: reqs[i].MeasureID, Err: s.err})
			continue
		}

		out.Results = append(out.Results, s.res)
	}

	d.logger.Info("Calculation requests finished",
		zap.Int("results", len(out.Results)), zap.Int("failures", len(out.Failures)))

	return out
}
