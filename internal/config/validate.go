package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"report-converter/internal/source"
	"report-converter/internal/visual"
)

var (
	// ErrInvalidProvider indicates an unsupported calculation provider.
	ErrInvalidProvider = errors.New("invalid calculation provider")
	// ErrMissingModel indicates the bedrock provider has no model ID.
	ErrMissingModel = errors.New("missing calculation model ID")
	// ErrMissingRegion indicates the bedrock provider has no region.
	ErrMissingRegion = errors.New("missing calculation region")
	// ErrInvalidParallelism indicates a non-positive parallelism.
	ErrInvalidParallelism = errors.New("invalid calculation parallelism")
	// ErrInvalidTimeout indicates a non-positive call timeout.
	ErrInvalidTimeout = errors.New("invalid calculation timeout")
	// ErrInvalidVisualKind indicates an unknown source or target visual kind.
	ErrInvalidVisualKind = errors.New("invalid visual kind")
	// ErrInvalidRole indicates an unknown suppressed role.
	ErrInvalidRole = errors.New("invalid data item role")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration and reports every problem at once.
func Validate(cfg *Config) error {
	var errs []error

	calc := cfg.Calculation

	switch strings.ToLower(calc.Provider) {
	case ProviderNone, ProviderTemplate:
	case ProviderBedrock:
		if calc.ModelID == "" {
			errs = append(errs, ErrMissingModel)
		}

		if calc.Region == "" {
			errs = append(errs, ErrMissingRegion)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: must be %q, %q or %q, got %q",
			ErrInvalidProvider, ProviderNone, ProviderTemplate, ProviderBedrock, calc.Provider))
	}

	if calc.Parallelism <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidParallelism, calc.Parallelism))
	}

	if calc.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidTimeout, calc.Timeout))
	}

	if _, err := cfg.Visuals.Kinds(); err != nil {
		errs = append(errs, err)
	}

	if _, err := cfg.Visuals.Suppressed(); err != nil {
		errs = append(errs, err)
	}

	if !slices.Contains(logLevels, strings.ToLower(cfg.Log.Level)) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.Log.Level))
	}

	return errors.Join(errs...)
}

var sourceKinds = map[string]source.VisualKind{
	string(source.KindList):     source.KindList,
	string(source.KindCrosstab): source.KindCrosstab,
	string(source.KindChart):    source.KindChart,
}

// Kinds returns the configured source-to-target kind table.
func (c VisualsConfig) Kinds() (map[source.VisualKind]visual.Kind, error) {
	out := make(map[source.VisualKind]visual.Kind, len(c.TargetKinds))

	keys := make([]string, 0, len(c.TargetKinds))
	for k := range c.TargetKinds {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var errs []error

	for _, k := range keys {
		sk, ok := sourceKinds[strings.ToLower(k)]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: unknown source kind %q", ErrInvalidVisualKind, k))
			continue
		}

		tk, ok := visual.ParseKind(c.TargetKinds[k])
		if !ok {
			errs = append(errs, fmt.Errorf("%w: unknown target kind %q for %s", ErrInvalidVisualKind, c.TargetKinds[k], k))
			continue
		}

		out[sk] = tk
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return out, nil
}

// Suppressed returns the roles to drop when a target kind has no well.
func (c VisualsConfig) Suppressed() ([]source.Role, error) {
	var (
		out  []source.Role
		errs []error
	)

	for _, name := range c.SuppressRoles {
		r, ok := source.ParseRole(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidRole, name))
			continue
		}

		out = append(out, r)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return out, nil
}
