package visual

import (
	"errors"
	"fmt"
	"slices"

	"report-converter/internal/resolve"
	"report-converter/internal/source"
)

var (
	// ErrUnsupportedWell is returned when a source role has no well in the
	// target kind and the role was not suppressed.
	ErrUnsupportedWell = errors.New("unsupported well")
	// ErrUnknownKind is returned for a target kind missing from the kinds table.
	ErrUnknownKind = errors.New("unknown target visual kind")
	// ErrUnboundItem is returned when an included item has no target yet.
	ErrUnboundItem = errors.New("data item is not bound")
)

// measureSuffix names report-level measures after the column they aggregate.
const measureSuffix = " Measure"

// FieldKind distinguishes plain columns from report measures.
type FieldKind int

const (
	FieldColumn FieldKind = iota
	FieldMeasure
)

// String returns "Column" or "Measure", the property keys used in queries.
func (k FieldKind) String() string {
	if k == FieldMeasure {
		return "Measure"
	}

	return "Column"
}

// Field is a resolved field placed in a well.
type Field struct {
	ItemID string
	Role   source.Role
	Kind   FieldKind
	Table  string
	// Column is the target column; for measures, the column aggregated.
	Column string
	// Measure is the report measure name; empty for columns.
	Measure     string
	Aggregation string
	// Expression is the source expression text.
	Expression string
	// Values holds the categorical values of a filter field.
	Values []FilterValue
}

// Property is the name the field is projected by.
func (f Field) Property() string {
	if f.Kind == FieldMeasure {
		return f.Measure
	}

	return f.Column
}

// QueryRef renders the projection reference, e.g. "Sales.Revenue Measure".
func (f Field) QueryRef() string {
	return f.Table + "." + f.Property()
}

// Well is a named, ordered field list.
type Well struct {
	Name   string
	Fields []Field
}

// Config is a target visual with its wells filled.
type Config struct {
	VisualID   string
	Title      string
	Kind       Kind
	VisualType string
	// Wells follow the kind's well order; empty wells are kept.
	Wells   []Well
	Filters []Field
	// Active lists wells whose first field is marked active.
	Active []string
	// Skipped lists item IDs left out because they were excluded or their
	// role was suppressed.
	Skipped []string
}

// Well returns the fields of the named well.
func (c Config) Well(name string) []Field {
	if name == WellFilters {
		return c.Filters
	}

	for _, w := range c.Wells {
		if w.Name == name {
			return w.Fields
		}
	}

	return nil
}

// Fields returns every projected field and every filter field.
func (c Config) Fields() []Field {
	var out []Field
	for _, w := range c.Wells {
		out = append(out, w.Fields...)
	}

	return append(out, c.Filters...)
}

// Measures returns the measure fields of all wells.
func (c Config) Measures() []Field {
	var out []Field

	for _, f := range c.Fields() {
		if f.Kind == FieldMeasure {
			out = append(out, f)
		}
	}

	return out
}

// Options tune binding.
type Options struct {
	// Suppress lists source roles to drop silently when the target kind has
	// no well for them.
	Suppress []source.Role
}

// Bind places the visual's bound items into the wells of kind. Items keep
// their source declaration order within a well. Bind does not mutate its
// inputs, so re-binding with another kind is safe.
func Bind(v *source.Visual, res *resolve.Resolution, kind Kind, opts Options) (Config, error) {
	spec, ok := kinds[kind]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	cfg := Config{
		VisualID:   v.ID,
		Title:      v.Name,
		Kind:       kind,
		VisualType: spec.VisualType,
		Active:     spec.Active,
	}

	fields := make(map[string][]Field, len(spec.Wells)+1)

	var errs []error

	for _, role := range source.Roles {
		items := v.Items(role)
		if len(items) == 0 {
			continue
		}

		well, ok := spec.Roles[role]
		if !ok {
			if slices.Contains(opts.Suppress, role) {
				for _, it := range items {
					cfg.Skipped = append(cfg.Skipped, it.ID)
				}

				continue
			}

			errs = append(errs, fmt.Errorf("%w: %s has %s items but %s has no well for them",
				ErrUnsupportedWell, v.ID, role, kind))

			continue
		}

		for _, it := range items {
			b, ok := res.Binding(it.ID)
			if ok && b.Status == resolve.StatusExcluded {
				cfg.Skipped = append(cfg.Skipped, it.ID)
				continue
			}

			if !ok || !b.Bound() {
				errs = append(errs, fmt.Errorf("%w: %s in %s", ErrUnboundItem, it.ID, v.ID))
				continue
			}

			fields[well] = append(fields[well], newField(it, role, b))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	for _, name := range spec.Wells {
		cfg.Wells = append(cfg.Wells, Well{Name: name, Fields: fields[name]})
	}

	cfg.Filters = fields[WellFilters]

	return cfg, nil
}

func newField(it source.DataItem, role source.Role, b resolve.Binding) Field {
	f := Field{
		ItemID:      it.ID,
		Role:        role,
		Table:       b.Target.Table,
		Column:      b.Target.Column,
		Aggregation: it.Aggregation,
		Expression:  it.Expression,
	}

	if role == source.RoleMeasure {
		f.Kind = FieldMeasure
		f.Measure = MeasureName(b.Target.Column)
	}

	if role == source.RoleFilter {
		f.Values = ParseFilterValues(it.Expression)
	}

	return f
}

// MeasureName returns the report measure name for a column.
func MeasureName(column string) string {
	return column + measureSuffix
}
