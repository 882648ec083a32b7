// Package convert runs a report conversion end to end: parse, resolve,
// disambiguate, bind, merge calculations, assemble, serialize and pack.
//
// A Session owns all state of one conversion and is not safe for
// concurrent use.
package convert
