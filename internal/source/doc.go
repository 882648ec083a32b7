// Package source parses a legacy report definition (Cognos report XML)
// into an immutable structural model of pages, visuals, queries and data items.
//
// Parsing matches elements by local name, so the document's default namespace
// and schema version do not matter. Unknown elements and attributes are ignored.
// Declared item order is preserved; whitespace and sibling ordering between
// unrelated elements are not significant.
//
// A document that is well-formed but lacks an entire required node class
// (page, query, or any data item role marker) fails with ErrStructural.
package source
