// Package mscore parses native notation-editor XML into the score IR.
//
// The native format comes in two incompatible schema generations. The
// legacy generation lays each measure out as a flat child list, assigns
// events to voices through a numeric track attribute, and pairs spanners
// through explicit identifiers. The modern generation nests events in
// explicit voice containers, positions late voices with whole-note
// fractions, and pairs spanners through next/prev links. Parse detects the
// generation from the root version attribute and hands off accordingly;
// everything downstream of the voice streams is shared.
//
// The package also owns the translation tables between native vocabulary
// (duration types, clef types, articulation subtypes, ...) and interchange
// vocabulary, and the tick arithmetic that expands dotted durations.
//
// Error handling is two-tier. Structural problems (unreadable XML, missing
// root element) abort with an error. Value-level problems (an unknown
// duration name, a clef the tables do not know) never abort: each lookup
// falls back to a defined default and logs a warning, so one odd marking
// cannot take down a whole score.
package mscore
