// Package resolve matches report data items against a mapping table and
// tracks the items that need a caller's decision before output can be built.
//
// Every item lands in exactly one class:
//
//	Bound      exactly one candidate, or a recorded choice
//	Ambiguous  two or more candidates and no choice yet; listed in the ledger
//	NoMapping  no candidates
//	Excluded   NoMapping item the caller chose to leave out
//
// The ledger only shrinks through ApplyChoice/ApplyCandidate. Finalize
// refuses while the ledger is non-empty or a NoMapping item is still
// included, and freezes the resolution once it succeeds.
package resolve
