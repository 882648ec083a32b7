// Package match provides name normalization, Levenshtein distance calculation
// and "did you mean" suggestions for data items that have no mapping entry.
//
// Key functions:
//   - NormalizeName: folds a report field name for fuzzy comparison
//   - Levenshtein: computes edit distance between strings
//   - Suggest: ranks known mapping keys against an unmapped name
package match
