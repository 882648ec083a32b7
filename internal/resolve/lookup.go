package resolve

import (
	"report-converter/internal/common"
	"report-converter/internal/mapping"
)

// LookupKind classifies the candidate set found for an item.
type LookupKind int

const (
	LookupMissing LookupKind = iota
	LookupUnique
	LookupAmbiguous
)

// String returns a human-readable lookup kind.
func (k LookupKind) String() string {
	switch k {
	case LookupMissing:
		return "missing"
	case LookupUnique:
		return "unique"
	case LookupAmbiguous:
		return "ambiguous"
	default:
		return common.UnknownStr
	}
}

// Lookup is the outcome of matching one item: Unique(candidate),
// Ambiguous(candidates) or Missing.
type Lookup struct {
	Kind       LookupKind
	Key        string
	Candidates []mapping.Candidate
}

// Unique returns the single candidate when Kind is LookupUnique.
func (l Lookup) Unique() (mapping.Candidate, bool) {
	if l.Kind != LookupUnique {
		return mapping.Candidate{}, false
	}

	return l.Candidates[0], true
}

// Contains reports whether c is one of the looked-up candidates.
func (l Lookup) Contains(c mapping.Candidate) bool {
	for _, x := range l.Candidates {
		if x == c {
			return true
		}
	}

	return false
}

func classify(key string, candidates []mapping.Candidate) Lookup {
	l := Lookup{Key: key, Candidates: append([]mapping.Candidate(nil), candidates...)}

	switch {
	case common.IsEmpty(candidates):
		l.Kind = LookupMissing
	case common.IsSingle(candidates):
		l.Kind = LookupUnique
	default:
		l.Kind = LookupAmbiguous
	}

	return l
}
