// Package mapping holds the source-name → candidate-target table used to
// resolve report data items, and loaders for the formats it is kept in.
//
// A Table is built once per conversion run and read-only afterwards. Keys are
// normalized with NormalizeKey so that "[Sales].[Order Date]" and
// "sales.order date" address the same entry.
//
// Supported sources, chosen by file extension in LoadFile:
//
//	.yaml/.yml  mappings: [{source: ..., targets: [{table: ..., column: ...}]}]
//	.json       {"mappings": {"<key>": [{"table": ..., "column": ...}]}}
//	.xlsx       header row with source, table and column cells
//	.db/.sqlite column_mappings(source, target_table, target_column, position)
//
// Candidates keep the order in which they were declared; repeated candidates
// for one key are dropped.
package mapping
