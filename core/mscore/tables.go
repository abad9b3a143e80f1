package mscore

import (
	"fmt"
	"strconv"
	"strings"
)

// Division is the fixed tick resolution: ticks per quarter note. All
// duration tables below are expressed in it. Source files declare their own
// division but in practice always use this value; the parser warns when a
// file disagrees.
const Division = 480

// Duration is one entry of the duration table.
type Duration struct {
	// Ticks is the undotted length in ticks.
	Ticks int

	// Name is the interchange type name ("quarter", "16th", ...).
	Name string
}

// durations maps native duration-type names to tick counts and interchange
// type names. "measure" is absent on purpose: whole-measure rests take
// their length from the time signature, not from this table.
var durations = map[string]Duration{
	"long":    {Ticks: 4 * 4 * Division, Name: "long"},
	"longa":   {Ticks: 4 * 4 * Division, Name: "long"},
	"breve":   {Ticks: 2 * 4 * Division, Name: "breve"},
	"whole":   {Ticks: 4 * Division, Name: "whole"},
	"half":    {Ticks: 2 * Division, Name: "half"},
	"quarter": {Ticks: Division, Name: "quarter"},
	"eighth":  {Ticks: Division / 2, Name: "eighth"},
	"16th":    {Ticks: Division / 4, Name: "16th"},
	"32nd":    {Ticks: Division / 8, Name: "32nd"},
	"64th":    {Ticks: Division / 16, Name: "64th"},
	"128th":   {Ticks: Division / 32, Name: "128th"},
}

// beamable is the set of duration types short enough to carry beams.
var beamable = map[string]bool{
	"eighth": true,
	"16th":   true,
	"32nd":   true,
	"64th":   true,
	"128th":  true,
}

// DurationInfo looks up a native duration-type name. The second return is
// false for unknown names; callers that want the fallback should use
// DurationTicks or DurationName instead.
func DurationInfo(name string) (Duration, bool) {
	d, ok := durations[name]
	return d, ok
}

// DurationTicks expands a native duration type plus dot count into ticks.
// Each dot adds half of the previously added value. Unknown names fall
// back to a quarter note.
func DurationTicks(name string, dots int) int {
	d, ok := durations[name]
	if !ok {
		d = durations["quarter"]
	}
	ticks := d.Ticks
	add := d.Ticks / 2
	for i := 0; i < dots; i++ {
		ticks += add
		add /= 2
	}
	return ticks
}

// DurationName translates a native duration type into the interchange type
// name. Unknown names fall back to "quarter".
func DurationName(name string) string {
	if d, ok := durations[name]; ok {
		return d.Name
	}
	return "quarter"
}

// IsBeamable reports whether a duration type is short enough to beam.
func IsBeamable(name string) bool {
	return beamable[name]
}

// TimeSigTicks returns the duration of a full measure of the given time
// signature, in ticks.
func TimeSigTicks(beats, beatType int) int {
	if beats <= 0 || beatType <= 0 {
		return 4 * Division
	}
	return beats * (4 * Division / beatType)
}

// FractionTicks parses a whole-note fraction like "1/4" or "3/8" into
// ticks. The modern dialect positions voices with such fractions.
func FractionTicks(s string) (int, error) {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return 0, fmt.Errorf("fraction %q: missing '/'", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, fmt.Errorf("fraction %q: %w", s, err)
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return 0, fmt.Errorf("fraction %q: %w", s, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("fraction %q: zero denominator", s)
	}
	return n * 4 * Division / d, nil
}

// Clef describes an interchange clef: sign, staff line and octave shift.
type Clef struct {
	Sign         string
	Line         int
	OctaveChange int
}

// clefs maps native clef-type names from both schema generations to
// interchange clefs. The legacy generation used numeric suffixes for
// octave variants; the modern one spells them out.
var clefs = map[string]Clef{
	"G":     {Sign: "G", Line: 2},
	"G1":    {Sign: "G", Line: 2, OctaveChange: 1},
	"G2":    {Sign: "G", Line: 2, OctaveChange: 2},
	"G3":    {Sign: "G", Line: 2, OctaveChange: -1},
	"G8va":  {Sign: "G", Line: 2, OctaveChange: 1},
	"G15ma": {Sign: "G", Line: 2, OctaveChange: 2},
	"G8vb":  {Sign: "G", Line: 2, OctaveChange: -1},
	"G15mb": {Sign: "G", Line: 2, OctaveChange: -2},
	"F":     {Sign: "F", Line: 4},
	"F8":    {Sign: "F", Line: 4, OctaveChange: -1},
	"F15":   {Sign: "F", Line: 4, OctaveChange: -2},
	"F8va":  {Sign: "F", Line: 4, OctaveChange: 1},
	"F15ma": {Sign: "F", Line: 4, OctaveChange: 2},
	"F8vb":  {Sign: "F", Line: 4, OctaveChange: -1},
	"F15mb": {Sign: "F", Line: 4, OctaveChange: -2},
	"F3":    {Sign: "F", Line: 3},
	"C1":    {Sign: "C", Line: 1},
	"C2":    {Sign: "C", Line: 2},
	"C3":    {Sign: "C", Line: 3},
	"C4":    {Sign: "C", Line: 4},
	"C5":    {Sign: "C", Line: 5},
	"PERC":  {Sign: "percussion", Line: 2},
	"TAB":   {Sign: "TAB", Line: 5},
}

// TrebleClef is the fallback for unknown clef names.
var TrebleClef = Clef{Sign: "G", Line: 2}

// ClefFor translates a native clef-type name. Unknown names return the
// treble clef and false.
func ClefFor(name string) (Clef, bool) {
	if c, ok := clefs[name]; ok {
		return c, true
	}
	return TrebleClef, false
}

// accidentals maps native accidental subtypes (both generations) to
// interchange accidental names.
var accidentals = map[string]string{
	"sharp":                  "sharp",
	"flat":                   "flat",
	"natural":                "natural",
	"sharp2":                 "double-sharp",
	"flat2":                  "flat-flat",
	"accidentalSharp":        "sharp",
	"accidentalFlat":         "flat",
	"accidentalNatural":      "natural",
	"accidentalDoubleSharp":  "double-sharp",
	"accidentalDoubleFlat":   "flat-flat",
	"accidentalNaturalSharp": "natural-sharp",
	"accidentalNaturalFlat":  "natural-flat",
}

// AccidentalName translates a native accidental subtype. Unknown names
// return "" and false; the builder omits the element in that case.
func AccidentalName(name string) (string, bool) {
	s, ok := accidentals[name]
	return s, ok
}

// ornaments maps native articulation subtypes that are ornaments to
// interchange ornament element names.
var ornaments = map[string]string{
	"trill":                "trill-mark",
	"ornamentTrill":        "trill-mark",
	"prall":                "inverted-mordent",
	"ornamentShortTrill":   "inverted-mordent",
	"mordent":              "mordent",
	"ornamentMordent":      "mordent",
	"turn":                 "turn",
	"ornamentTurn":         "turn",
	"reverseturn":          "inverted-turn",
	"ornamentTurnInverted": "inverted-turn",
	"schleifer":            "schleifer",
	"ornamentPrecompSlide": "schleifer",
}

// articulationMarks maps native articulation subtypes to interchange
// articulation element names. Up/down placement variants collapse to one
// element; the renderer decides placement.
var articulationMarks = map[string]string{
	"staccato":                 "staccato",
	"articStaccatoAbove":       "staccato",
	"articStaccatoBelow":       "staccato",
	"staccatissimo":            "staccatissimo",
	"articStaccatissimoAbove":  "staccatissimo",
	"articStaccatissimoBelow":  "staccatissimo",
	"tenuto":                   "tenuto",
	"articTenutoAbove":         "tenuto",
	"articTenutoBelow":         "tenuto",
	"sforzato":                 "accent",
	"articAccentAbove":         "accent",
	"articAccentBelow":         "accent",
	"marcato":                  "strong-accent",
	"articMarcatoAbove":        "strong-accent",
	"articMarcatoBelow":        "strong-accent",
	"portato":                  "detached-legato",
	"articTenutoStaccatoAbove": "detached-legato",
	"articTenutoStaccatoBelow": "detached-legato",
}

// technicalMarks maps native articulation subtypes that are playing
// technique indications to interchange technical element names.
var technicalMarks = map[string]string{
	"upbow":                     "up-bow",
	"stringsUpBow":              "up-bow",
	"downbow":                   "down-bow",
	"stringsDownBow":            "down-bow",
	"snappizzicato":             "snap-pizzicato",
	"pluckedSnapPizzicatoAbove": "snap-pizzicato",
	"pluckedSnapPizzicatoBelow": "snap-pizzicato",
	"ouvert":                    "open-string",
	"stringsHarmonic":           "harmonic",
}

// OrnamentName translates a native ornament subtype ("" and false when the
// name is not an ornament).
func OrnamentName(name string) (string, bool) {
	s, ok := ornaments[name]
	return s, ok
}

// ArticulationName translates a native articulation subtype ("" and false
// when the name is not a plain articulation).
func ArticulationName(name string) (string, bool) {
	s, ok := articulationMarks[name]
	return s, ok
}

// TechnicalName translates a native technique subtype ("" and false when
// the name is not a technique indication).
func TechnicalName(name string) (string, bool) {
	s, ok := technicalMarks[name]
	return s, ok
}

// Fermata describes an interchange fermata: shape text and orientation.
type Fermata struct {
	// Shape is the fermata shape text: "" (normal), "angled" or "square".
	Shape string

	// Inverted is true for a fermata below the staff.
	Inverted bool
}

// fermatas maps native fermata subtypes (delivered as articulation
// subtypes) to interchange fermatas.
var fermatas = map[string]Fermata{
	"fermata":              {},
	"ufermata":             {},
	"fermataAbove":         {},
	"dfermata":             {Inverted: true},
	"fermataBelow":         {Inverted: true},
	"shortfermata":         {Shape: "angled"},
	"fermataShortAbove":    {Shape: "angled"},
	"fermataShortBelow":    {Shape: "angled", Inverted: true},
	"longfermata":          {Shape: "square"},
	"fermataLongAbove":     {Shape: "square"},
	"fermataLongBelow":     {Shape: "square", Inverted: true},
	"verylongfermata":      {Shape: "square"},
	"fermataVeryLongAbove": {Shape: "square"},
	"fermataVeryLongBelow": {Shape: "square", Inverted: true},
}

// FermataFor translates a native fermata subtype. The second return is
// false when the name is not a fermata.
func FermataFor(name string) (Fermata, bool) {
	f, ok := fermatas[name]
	return f, ok
}

// IsFermata reports whether an articulation subtype is a fermata.
func IsFermata(name string) bool {
	_, ok := fermatas[name]
	return ok
}

// dynamicMarks is the set of dynamic names representable as dedicated
// interchange elements. Anything else is dropped at emission time.
var dynamicMarks = map[string]bool{
	"p": true, "pp": true, "ppp": true, "pppp": true, "ppppp": true, "pppppp": true,
	"f": true, "ff": true, "fff": true, "ffff": true, "fffff": true, "ffffff": true,
	"mp": true, "mf": true,
	"sf": true, "sfp": true, "sfpp": true, "fp": true,
	"rf": true, "rfz": true, "sfz": true, "sffz": true, "fz": true,
	"n": true, "pf": true, "sfzp": true,
}

// IsDynamic reports whether a dynamic name has a dedicated interchange
// element.
func IsDynamic(name string) bool {
	return dynamicMarks[name]
}

// graceKinds maps native grace-chord marker element names to whether the
// grace note is slashed (acciaccatura style).
var graceKinds = map[string]bool{
	"acciaccatura": true,
	"appoggiatura": false,
	"grace4":       false,
	"grace8":       false,
	"grace16":      false,
	"grace32":      false,
	"grace8after":  false,
	"grace16after": false,
	"grace32after": false,
}

// IsGraceKind reports whether an element name marks a grace chord.
func IsGraceKind(name string) bool {
	_, ok := graceKinds[name]
	return ok
}

// GraceSlash reports whether a grace kind is rendered with a slash.
func GraceSlash(name string) bool {
	return graceKinds[name]
}

// barStyles maps native end-barline subtypes to interchange bar styles.
// "normal" is absent: normal barlines are implied, not emitted.
var barStyles = map[string]string{
	"double": "light-light",
	"end":    "light-heavy",
	"final":  "light-heavy",
	"dashed": "dashed",
	"dotted": "dotted",
}

// BarStyle translates a native end-barline subtype ("" and false for
// unknown or normal barlines).
func BarStyle(subtype string) (string, bool) {
	s, ok := barStyles[subtype]
	return s, ok
}
