// Package calc carries measure calculations across the boundary with an
// external expression generator and merges the answers back.
//
// The engine never schedules generation itself. Requests lists what to ask
// for; Merge accepts whatever subset of results came back, in any order.
package calc
