// Package project assembles pages, bound visuals and merged measures into the
// model that is serialized to the target project layout.
package project
