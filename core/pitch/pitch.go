// Package pitch provides pitch-spelling arithmetic.
//
// The native notation system encodes spelling as a tonal pitch class (TPC):
// an index on the line of fifths where C = 14, G = 15, D = 16 and so on,
// with each sharp adding 7 and each flat subtracting 7. The TPC determines
// the diatonic letter and the alteration; the chromatic MIDI pitch
// determines the octave. All functions are total over int.
package pitch

import "fmt"

// TpcC is the tonal pitch class of natural C, the center of the legal
// range [-1, 33].
const TpcC = 14

// steps is the circle-of-fifths-ordered letter table. TPC mod 7 selects
// into it: C(14) -> 0, G(15) -> 1, ..., F#(20) -> 6 -> "F".
var steps = [7]string{"C", "G", "D", "A", "E", "B", "F"}

// tpcByChroma maps a chromatic pitch class (midi mod 12) to a default TPC,
// spelling black keys as sharps. Used when a note carries no spelling.
var tpcByChroma = [12]int{14, 21, 16, 23, 18, 13, 20, 15, 22, 17, 24, 19}

// StepOf returns the diatonic letter of a tonal pitch class. It is
// periodic with period 7 and correct for negative tpc.
func StepOf(tpc int) string {
	return steps[((tpc%7)+7)%7]
}

// AlterOf returns the chromatic alteration of a tonal pitch class:
// -2 (double flat) through +2 (double sharp) for tpc in the legal range.
func AlterOf(tpc int) int {
	return floorDiv(tpc+1, 7) - 2
}

// OctaveOf returns the octave of a MIDI pitch, with MIDI 60 in octave 4.
func OctaveOf(midiPitch int) int {
	return floorDiv(midiPitch, 12) - 1
}

// TpcFor returns a default tonal pitch class for a MIDI pitch, spelling
// black keys as sharps. It is the fallback for notes without spelling.
func TpcFor(midiPitch int) int {
	return tpcByChroma[((midiPitch%12)+12)%12]
}

// Spelling is a fully spelled pitch.
type Spelling struct {
	// Step is the diatonic letter, "A" through "G".
	Step string

	// Alter is the chromatic alteration, -2 through +2.
	Alter int

	// Octave is the octave number, with middle C in octave 4.
	Octave int
}

// Spell combines a tonal pitch class and a MIDI pitch into a Spelling.
func Spell(tpc, midiPitch int) Spelling {
	return Spelling{
		Step:   StepOf(tpc),
		Alter:  AlterOf(tpc),
		Octave: OctaveOf(midiPitch),
	}
}

// String renders the spelling in compact form, e.g. "C#4" or "Bbb2".
func (s Spelling) String() string {
	suffix := ""
	switch {
	case s.Alter > 0:
		for i := 0; i < s.Alter; i++ {
			suffix += "#"
		}
	case s.Alter < 0:
		for i := 0; i < -s.Alter; i++ {
			suffix += "b"
		}
	}
	return fmt.Sprintf("%s%s%d", s.Step, suffix, s.Octave)
}

// floorDiv divides rounding toward negative infinity, unlike Go's
// truncating division.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
