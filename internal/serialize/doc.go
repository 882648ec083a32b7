// Package serialize renders a project model into the files of a report
// project folder.
//
// Output is deterministic: identifiers are name-based UUIDs derived from the
// project, page and visual names, and artifacts are returned sorted by path.
package serialize
