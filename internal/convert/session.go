package convert

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"report-converter/internal/archive"
	"report-converter/internal/calc"
	"report-converter/internal/calcsvc"
	"report-converter/internal/catalog"
	"report-converter/internal/diagnostic"
	"report-converter/internal/mapping"
	"report-converter/internal/project"
	"report-converter/internal/resolve"
	"report-converter/internal/serialize"
	"report-converter/internal/source"
	"report-converter/internal/visual"
)

var (
	// ErrNotParsed is returned by stages that need a parsed report.
	ErrNotParsed = errors.New("no report parsed")
	// ErrNotResolved is returned by stages that need a resolution.
	ErrNotResolved = errors.New("report not resolved")
)

// Options tune a session.
type Options struct {
	// ProjectName overrides the source report name.
	ProjectName string
	// TargetKinds overrides the default target kind per source kind.
	TargetKinds map[source.VisualKind]visual.Kind
	// Suppress lists roles dropped when a target kind has no well for them.
	Suppress   []source.Role
	Serializer serialize.Config
	Templates  serialize.Templates
	Logger     *zap.Logger
}

// Output is the result of a successful build.
type Output struct {
	Model       *project.Model
	Artifacts   []serialize.Artifact
	Archive     []byte
	Diagnostics diagnostic.Diagnostics
}

// Session holds the state of one conversion.
type Session struct {
	opts    Options
	logger  *zap.Logger
	table   *mapping.Table
	catalog *catalog.Catalog

	report *source.Report
	res    *resolve.Resolution
	diags  diagnostic.Diagnostics
}

// NewSession creates a session over a mapping table and a target catalog.
// A nil catalog is derived from the mapping table's targets.
func NewSession(table *mapping.Table, cat *catalog.Catalog, opts Options) *Session {
	if cat == nil {
		cat = catalog.FromMapping(table)
	}

	if opts.Templates.Theme == nil {
		opts.Templates = serialize.DefaultTemplates()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		opts:    opts,
		logger:  logger.Named("convert"),
		table:   table,
		catalog: cat,
	}
}

// Parse parses the source report. A structural error aborts the session.
func (s *Session) Parse(data []byte) error {
	report, err := source.Parse(data)
	if err != nil {
		s.diags.AddError(diagnostic.StageParse, diagnostic.CodeStructural, err.Error(), "", "")
		s.logger.Error("Failed to parse report", zap.Error(err))

		return err
	}

	s.report = report
	s.res = nil

	s.logger.Info("Parsed report",
		zap.String("report", report.Name),
		zap.Int("pages", len(report.Pages)),
		zap.Int("visuals", len(report.Visuals())),
		zap.Int("data_items", len(report.DataItems())))

	return nil
}

// Report returns the parsed report, or nil.
func (s *Session) Report() *source.Report {
	return s.report
}

// Resolve looks up every data item in the mapping table.
func (s *Session) Resolve() (*resolve.Resolution, error) {
	if s.report == nil {
		return nil, ErrNotParsed
	}

	s.res = resolve.Resolve(s.report, s.table)

	s.logger.Info("Resolved data items",
		zap.Int("bound", len(s.res.Bindings())-len(s.res.Ambiguities())-len(s.res.Unmapped())-len(s.res.Excluded())),
		zap.Int("ambiguous", len(s.res.Ambiguities())),
		zap.Int("unmapped", len(s.res.Unmapped())))

	return s.res, nil
}

// Resolution returns the current resolution, or nil.
func (s *Session) Resolution() *resolve.Resolution {
	return s.res
}

// ApplyChoices applies every decision in c, in item ID order. Invalid
// decisions are reported together; valid ones still take effect.
func (s *Session) ApplyChoices(c Choices) error {
	if s.res == nil {
		return ErrNotResolved
	}

	ids := make([]string, 0, len(c.Choices))
	for id := range c.Choices {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	var errs []error

	for _, id := range ids {
		if err := s.res.ApplyChoice(id, c.Choices[id]); err != nil {
			s.diags.AddError(diagnostic.StageResolve, diagnostic.CodeInvalidChoice, err.Error(), id, "")
			errs = append(errs, err)
		}
	}

	for _, id := range c.Exclude {
		if err := s.res.Exclude(id); err != nil {
			errs = append(errs, err)
		}
	}

	if c.ExcludeUnmapped {
		n, err := s.res.ExcludeUnmapped()
		if err != nil {
			errs = append(errs, err)
		}

		s.logger.Debug("Excluded unmapped items", zap.Int("count", n))
	}

	return errors.Join(errs...)
}

// Finalize fails while ambiguities or unmapped items remain.
func (s *Session) Finalize() error {
	if s.res == nil {
		return ErrNotResolved
	}

	if err := s.res.Finalize(); err != nil {
		s.logger.Warn("Resolution is incomplete", zap.Error(err))
		return err
	}

	return nil
}

// CalculationRequests lists the measures the external generator should
// answer. Only bound measures are included.
func (s *Session) CalculationRequests() ([]calc.Request, error) {
	if s.res == nil {
		return nil, ErrNotResolved
	}

	return calc.Requests(s.report, s.res), nil
}

// Calculate asks d for every calculation request. Failed requests are
// recorded as diagnostics and their measures stay pending.
func (s *Session) Calculate(ctx context.Context, d *calcsvc.Dispatcher) ([]calc.Result, error) {
	reqs, err := s.CalculationRequests()
	if err != nil {
		return nil, err
	}

	out := d.Run(ctx, reqs)

	for _, f := range out.Failures {
		s.diags.AddWarning(diagnostic.StageCalculate, diagnostic.CodeCalculationFailed, f.Err.Error(), f.MeasureID, "")
	}

	s.logger.Info("Calculated measures",
		zap.Int("requested", len(reqs)),
		zap.Int("answered", len(out.Results)),
		zap.Int("failed", len(out.Failures)))

	return out.Results, nil
}

// Diagnostics returns the issues found so far, including the current
// resolution state.
func (s *Session) Diagnostics() diagnostic.Diagnostics {
	var d diagnostic.Diagnostics
	d.Merge(s.diags)

	if s.res != nil {
		d.Merge(s.res.Diagnostics())
	}

	return d
}

// Build finalizes the resolution and produces the project. Results may be
// partial; measures without one are marked pending. Visuals that cannot be
// bound and orphan results are reported in the diagnostics without failing
// the build. An unknown target field fails it, and nothing is produced.
func (s *Session) Build(results []calc.Result) (*Output, error) {
	if err := s.Finalize(); err != nil {
		return nil, err
	}

	diags := s.Diagnostics()

	configs := s.bindVisuals(&diags)

	measures, calcDiags, err := calc.Merge(calc.Collect(s.report, s.res), results)
	diags.Merge(calcDiags)

	if err != nil {
		s.logger.Warn("Ignored orphan calculation results", zap.Error(err))
	}

	name := s.opts.ProjectName
	if name == "" {
		name = s.report.Name
	}

	model, asmDiags, err := project.Assemble(project.Input{
		Name:     name,
		Pages:    s.report.Pages,
		Configs:  configs,
		Measures: measures,
		Catalog:  s.catalog,
	})
	diags.Merge(asmDiags)

	if err != nil {
		s.diags.Merge(asmDiags)
		s.logger.Error("Assembly failed", zap.Error(err))

		return nil, err
	}

	artifacts, err := serialize.NewSerializer(s.opts.Serializer, s.opts.Templates).Serialize(model)
	if err != nil {
		return nil, fmt.Errorf("serializing project: %w", err)
	}

	blob, err := archive.Pack(artifacts)
	if err != nil {
		return nil, fmt.Errorf("packing project: %w", err)
	}

	s.logger.Info("Built project",
		zap.String("project", model.Name),
		zap.Int("pages", len(model.Pages)),
		zap.Int("visuals", model.VisualCount()),
		zap.Int("measures", len(model.Measures)),
		zap.Int("pending", len(model.Pending())),
		zap.Int("artifacts", len(artifacts)))

	return &Output{Model: model, Artifacts: artifacts, Archive: blob, Diagnostics: diags}, nil
}

// bindVisuals binds every visual. Items whose role has no well in the
// target kind are dropped from that visual with a warning; a visual that
// still cannot be bound is left out.
func (s *Session) bindVisuals(diags *diagnostic.Diagnostics) []visual.Config {
	var configs []visual.Config

	for _, v := range s.report.Visuals() {
		kind, ok := s.opts.TargetKinds[v.Kind]
		if !ok {
			kind = visual.DefaultKind(v.Kind)
		}

		opts := visual.Options{Suppress: s.opts.Suppress}

		cfg, err := visual.Bind(v, s.res, kind, opts)
		if errors.Is(err, visual.ErrUnsupportedWell) {
			diags.AddWarning(diagnostic.StageBind, diagnostic.CodeUnsupportedWell, err.Error(), "", v.ID)

			opts.Suppress = append(slices.Clone(opts.Suppress), unsupportedRoles(v, kind)...)
			cfg, err = visual.Bind(v, s.res, kind, opts)
		}

		if err != nil {
			diags.AddError(diagnostic.StageBind, diagnostic.CodeOmittedVisual, err.Error(), "", v.ID)
			s.logger.Warn("Visual left out", zap.String("visual", v.ID), zap.Error(err))

			continue
		}

		configs = append(configs, cfg)
	}

	return configs
}

func unsupportedRoles(v *source.Visual, kind visual.Kind) []source.Role {
	spec, ok := visual.Spec(kind)
	if !ok {
		return nil
	}

	var out []source.Role

	for _, role := range source.Roles {
		if _, ok := spec.Roles[role]; !ok && len(v.Items(role)) > 0 {
			out = append(out, role)
		}
	}

	return out
}
