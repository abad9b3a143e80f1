// Package score provides the intermediate representation (IR) for notation
// conversion.
//
// The IR is a dialect-neutral model of a score: both source dialects (the
// legacy flat-measure layout and the modern voice-container layout) parse
// into the same structures, and the interchange builder consumes only these
// structures. Nothing in this package knows about source element names or
// output element order.
//
// # Core Types
//
// The IR is organized hierarchically:
//
//   - Score: Top-level container with metadata and parts
//   - Part: An instrument with one or more staves
//   - Staff: A parallel sequence of measures
//   - Measure: Per-measure state (clef, key, time, tempo) plus voices
//   - Voice: An ordered event list with an optional starting tick offset
//   - Chord / Rest: Timed events; Chord carries notes, lyrics and marks
//
// # Ticks
//
// All durations are in ticks at a fixed resolution of 480 ticks per quarter
// note. Durations are computed once, at parse time; the builder only adds
// and compares them.
//
// # Numbering
//
// Staff and voice indices are zero-based throughout the IR. Output-side
// numbering (voice numbers unique across staves, verse numbers starting at
// one) is applied by the builder, not stored here.
package score
