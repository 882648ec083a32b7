package resolve

import (
	"errors"
	"fmt"
	"strings"

	"report-converter/internal/common"
	"report-converter/internal/diagnostic"
	"report-converter/internal/mapping"
	"report-converter/internal/match"
	"report-converter/internal/source"
)

var (
	// ErrInvalidChoice rejects a choice outside the item's candidate set.
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrUnresolvedAmbiguity is returned by Finalize while the ledger is non-empty.
	ErrUnresolvedAmbiguity = errors.New("unresolved ambiguity")
	// ErrNoMapping is returned by Finalize for included items without candidates.
	ErrNoMapping = errors.New("no mapping")
	// ErrFinalized rejects mutation after a successful Finalize.
	ErrFinalized = errors.New("resolution is finalized")
	// ErrNotExcludable rejects excluding an item that has candidates.
	ErrNotExcludable = errors.New("only items without a mapping can be excluded")
)

// Status is the resolution class of one data item.
type Status int

const (
	StatusBound Status = iota
	StatusAmbiguous
	StatusNoMapping
	StatusExcluded
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case StatusBound:
		return "bound"
	case StatusAmbiguous:
		return "ambiguous"
	case StatusNoMapping:
		return "no_mapping"
	case StatusExcluded:
		return "excluded"
	default:
		return common.UnknownStr
	}
}

// Binding is the resolution state of one data item.
type Binding struct {
	Item   source.DataItem
	Status Status
	Lookup Lookup
	// Target is meaningful only when Status is StatusBound.
	Target mapping.Candidate
	// Chosen is set when Target came from a caller's choice.
	Chosen bool
	// Visuals lists the IDs of the visuals that reference the item.
	Visuals []string
}

// Bound reports whether the binding has a target.
func (b Binding) Bound() bool {
	return b.Status == StatusBound
}

// Record is an ambiguity ledger entry.
type Record struct {
	Item       source.DataItem
	Candidates []mapping.Candidate
}

// Resolution holds the bindings and ambiguity ledger for one report.
// It is owned by a single conversion session and is not safe for
// concurrent mutation.
type Resolution struct {
	order     []string
	bindings  map[string]*Binding
	ledger    map[string]Record
	keys      []string
	finalized bool
}

// Resolve looks up every data item referenced by any visual of report.
func Resolve(report *source.Report, table *mapping.Table) *Resolution {
	r := &Resolution{
		bindings: make(map[string]*Binding),
		ledger:   make(map[string]Record),
		keys:     table.Keys(),
	}

	for _, v := range report.Visuals() {
		for _, item := range v.AllItems() {
			if b, ok := r.bindings[item.ID]; ok {
				b.Visuals = common.Dedupe(append(b.Visuals, v.ID))
				continue
			}

			b := &Binding{Item: item, Lookup: lookup(item, table), Visuals: []string{v.ID}}

			switch b.Lookup.Kind {
			case LookupUnique:
				b.Status = StatusBound
				b.Target, _ = b.Lookup.Unique()
			case LookupAmbiguous:
				b.Status = StatusAmbiguous
				r.ledger[item.ID] = Record{Item: item, Candidates: b.Lookup.Candidates}
			default:
				b.Status = StatusNoMapping
			}

			r.order = append(r.order, item.ID)
			r.bindings[item.ID] = b
		}
	}

	return r
}

// lookup tries the item's expression key, then its name. Filters try the
// filtered column path first, which the parser stores as the name.
func lookup(item source.DataItem, table *mapping.Table) Lookup {
	keys := []string{item.Expression, item.Name}
	if item.Role == source.RoleFilter {
		keys = []string{item.Name, item.Expression}
	}

	first := ""

	for _, k := range common.Dedupe(keys) {
		if strings.TrimSpace(k) == "" {
			continue
		}

		if first == "" {
			first = mapping.NormalizeKey(k)
		}

		if cands := table.Lookup(k); len(cands) > 0 {
			return classify(mapping.NormalizeKey(k), cands)
		}
	}

	return classify(first, nil)
}

// Binding returns the binding for an item ID.
func (r *Resolution) Binding(itemID string) (Binding, bool) {
	b, ok := r.bindings[itemID]
	if !ok {
		return Binding{}, false
	}

	return *b, true
}

// Target returns the bound candidate for an item ID.
func (r *Resolution) Target(itemID string) (mapping.Candidate, bool) {
	b, ok := r.bindings[itemID]
	if !ok || b.Status != StatusBound {
		return mapping.Candidate{}, false
	}

	return b.Target, true
}

// Bindings returns all bindings in first-reference order.
func (r *Resolution) Bindings() []Binding {
	return r.filter(func(*Binding) bool { return true })
}

// Ambiguities returns the ledger entries in first-reference order.
func (r *Resolution) Ambiguities() []Record {
	var out []Record

	for _, id := range r.order {
		if rec, ok := r.ledger[id]; ok {
			out = append(out, rec)
		}
	}

	return out
}

// Unmapped returns the NoMapping items that are still included.
func (r *Resolution) Unmapped() []Binding {
	return r.filter(func(b *Binding) bool { return b.Status == StatusNoMapping })
}

// Excluded returns the items deliberately left out.
func (r *Resolution) Excluded() []Binding {
	return r.filter(func(b *Binding) bool { return b.Status == StatusExcluded })
}

func (r *Resolution) filter(keep func(*Binding) bool) []Binding {
	var out []Binding

	for _, id := range r.order {
		if b := r.bindings[id]; keep(b) {
			out = append(out, *b)
		}
	}

	return out
}

// IsFullyResolved is true when the ledger is empty and no included item
// lacks a mapping.
func (r *Resolution) IsFullyResolved() bool {
	return len(r.ledger) == 0 && len(r.Unmapped()) == 0
}

// Finalized reports whether Finalize has succeeded.
func (r *Resolution) Finalized() bool {
	return r.finalized
}

// ApplyChoice records the candidate at index for an item, counting from
// zero in declaration order.
func (r *Resolution) ApplyChoice(itemID string, index int) error {
	b, err := r.choosable(itemID)
	if err != nil {
		return err
	}

	if index < 0 || index >= len(b.Lookup.Candidates) {
		return fmt.Errorf("%w: index %d out of range for %s (%d candidates)",
			ErrInvalidChoice, index, itemID, len(b.Lookup.Candidates))
	}

	r.choose(b, b.Lookup.Candidates[index])

	return nil
}

// ApplyCandidate records c as the choice for an item. c must belong to the
// item's original candidate set.
func (r *Resolution) ApplyCandidate(itemID string, c mapping.Candidate) error {
	b, err := r.choosable(itemID)
	if err != nil {
		return err
	}

	if !b.Lookup.Contains(c) {
		return fmt.Errorf("%w: %s is not a candidate for %s", ErrInvalidChoice, c, itemID)
	}

	r.choose(b, c)

	return nil
}

func (r *Resolution) choosable(itemID string) (*Binding, error) {
	if r.finalized {
		return nil, ErrFinalized
	}

	b, ok := r.bindings[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown data item %q", ErrInvalidChoice, itemID)
	}

	if b.Lookup.Kind == LookupMissing {
		return nil, fmt.Errorf("%w: %s has no candidates", ErrInvalidChoice, itemID)
	}

	return b, nil
}

func (r *Resolution) choose(b *Binding, c mapping.Candidate) {
	b.Status = StatusBound
	b.Target = c
	b.Chosen = b.Lookup.Kind == LookupAmbiguous
	delete(r.ledger, b.Item.ID)
}

// Exclude marks a NoMapping item as deliberately left out of the output.
func (r *Resolution) Exclude(itemID string) error {
	if r.finalized {
		return ErrFinalized
	}

	b, ok := r.bindings[itemID]
	if !ok {
		return fmt.Errorf("%w: unknown data item %q", ErrNotExcludable, itemID)
	}

	switch b.Status {
	case StatusExcluded:
		return nil
	case StatusNoMapping:
		b.Status = StatusExcluded
		return nil
	default:
		return fmt.Errorf("%w: %s is %s", ErrNotExcludable, itemID, b.Status)
	}
}

// ExcludeUnmapped excludes every NoMapping item and returns how many changed.
func (r *Resolution) ExcludeUnmapped() (int, error) {
	if r.finalized {
		return 0, ErrFinalized
	}

	n := 0

	for _, id := range r.order {
		if b := r.bindings[id]; b.Status == StatusNoMapping {
			b.Status = StatusExcluded
			n++
		}
	}

	return n, nil
}

// Finalize checks that nothing blocks output and freezes the resolution.
// All blocking items are reported together.
func (r *Resolution) Finalize() error {
	if r.finalized {
		return nil
	}

	var errs []error

	if recs := r.Ambiguities(); len(recs) > 0 {
		parts := make([]string, 0, len(recs))
		for _, rec := range recs {
			parts = append(parts, fmt.Sprintf("%s (%d candidates)", rec.Item.ID, len(rec.Candidates)))
		}

		errs = append(errs, fmt.Errorf("%w: %s", ErrUnresolvedAmbiguity, strings.Join(parts, ", ")))
	}

	if unmapped := r.Unmapped(); len(unmapped) > 0 {
		ids := make([]string, 0, len(unmapped))
		for _, b := range unmapped {
			ids = append(ids, b.Item.ID)
		}

		errs = append(errs, fmt.Errorf("%w: %s", ErrNoMapping, strings.Join(ids, ", ")))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	r.finalized = true

	return nil
}

// Diagnostics describes every item that is not plainly bound. NoMapping
// items carry "did you mean" suggestions from the mapping keys.
func (r *Resolution) Diagnostics() diagnostic.Diagnostics {
	var d diagnostic.Diagnostics

	for _, id := range r.order {
		b := r.bindings[id]
		location := strings.Join(b.Visuals, ", ")

		switch b.Status {
		case StatusNoMapping:
			d.Add(diagnostic.Diagnostic{
				Severity:    diagnostic.SeverityError,
				Code:        diagnostic.CodeNoMapping,
				Stage:       diagnostic.StageResolve,
				Message:     fmt.Sprintf("no mapping entry for %q", b.Lookup.Key),
				Item:        id,
				Location:    location,
				Suggestions: match.Suggest([]string{b.Item.Expression, b.Item.Name}, r.keys, match.DefaultLimit),
			})
		case StatusAmbiguous:
			opts := make([]string, 0, len(b.Lookup.Candidates))
			for i, c := range b.Lookup.Candidates {
				opts = append(opts, fmt.Sprintf("%d=%s", i, c))
			}

			d.AddWarning(diagnostic.StageResolve, diagnostic.CodeAmbiguous,
				fmt.Sprintf("%d candidates, choose one of %s", len(opts), strings.Join(opts, ", ")), id, location)
		case StatusExcluded:
			d.AddInfo(diagnostic.StageResolve, diagnostic.CodeExcludedItem, "excluded from output", id, location)
		}
	}

	return d
}
