// Package diagnostic provides structured, batch-accumulated issues
// raised while converting a report.
//
// Key capabilities:
//   - Unmapped and ambiguous data item reports with candidate suggestions
//   - Well placement and calculation merge warnings
//   - Catalog mismatch errors
//   - A single combined error for everything classified as an error
package diagnostic
