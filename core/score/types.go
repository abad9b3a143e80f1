package score

// types.go - Consolidated IR type definitions.
// Both dialect parsers produce these types and the interchange builder
// consumes them; nothing else should define score structure.

// Dialect identifies the source schema generation a score was parsed from.
type Dialect string

// Dialect constants.
const (
	// DialectLegacy is the flat-measure layout: measure children carry a
	// numeric track attribute and voice boundaries are inferred.
	DialectLegacy Dialect = "legacy"

	// DialectModern is the voice-container layout: measures hold explicit
	// voice elements and spanners use next/prev links.
	DialectModern Dialect = "modern"
)

// validDialects is the set of valid dialects.
var validDialects = map[Dialect]bool{
	DialectLegacy: true,
	DialectModern: true,
}

// IsValid returns true if the dialect is valid.
func (d Dialect) IsValid() bool {
	return validDialects[d]
}

// Score is the top-level container for a parsed score.
type Score struct {
	// Version is the raw schema version string from the source root element.
	Version string `json:"version"`

	// Dialect is the schema generation the score was parsed from.
	Dialect Dialect `json:"dialect"`

	// Division is the tick resolution declared by the source (ticks per
	// quarter note). Tick math uses the fixed 480 resolution regardless;
	// this field records what the file said.
	Division int `json:"division"`

	// Title is the work title, after style-text overrides.
	Title string `json:"title,omitempty"`

	// Subtitle is the work subtitle, after style-text overrides.
	Subtitle string `json:"subtitle,omitempty"`

	// Composer is the composer credit, after style-text overrides.
	Composer string `json:"composer,omitempty"`

	// Lyricist is the lyricist credit, after style-text overrides.
	Lyricist string `json:"lyricist,omitempty"`

	// MetaTags contains the raw metadata key-value pairs from the source.
	MetaTags map[string]string `json:"meta_tags,omitempty"`

	// Parts contains all parts in score order.
	Parts []*Part `json:"parts,omitempty"`
}

// MetaTag returns the value of a metadata tag, or "" if absent.
func (s *Score) MetaTag(name string) string {
	if s.MetaTags == nil {
		return ""
	}
	return s.MetaTags[name]
}

// MeasureCount returns the number of measures in the longest staff of any
// part. Staves are normally the same length; ragged input is tolerated.
func (s *Score) MeasureCount() int {
	max := 0
	for _, p := range s.Parts {
		for _, st := range p.Staves {
			if len(st.Measures) > max {
				max = len(st.Measures)
			}
		}
	}
	return max
}

// Part is a single instrument with one or more staves.
type Part struct {
	// ID is the output part identifier (e.g., "P1").
	ID string `json:"id"`

	// Name is the display name used in the part list.
	Name string `json:"name,omitempty"`

	// Instrument describes the instrument assigned to this part.
	Instrument *Instrument `json:"instrument,omitempty"`

	// Staves contains the part's staves in order. Every part has at least
	// one staff; keyboard parts typically have two.
	Staves []*Staff `json:"staves,omitempty"`
}

// MeasureCount returns the number of measures in the part's first staff.
func (p *Part) MeasureCount() int {
	if len(p.Staves) == 0 {
		return 0
	}
	return len(p.Staves[0].Measures)
}

// Instrument describes the instrument assigned to a part.
type Instrument struct {
	// LongName is the full instrument name (e.g., "Clarinet in B♭").
	LongName string `json:"long_name,omitempty"`

	// ShortName is the abbreviated name (e.g., "Cl.").
	ShortName string `json:"short_name,omitempty"`

	// TrackName is the internal track label.
	TrackName string `json:"track_name,omitempty"`

	// ID is the source instrument identifier (e.g., "wind.reed.clarinet").
	ID string `json:"id,omitempty"`

	// TransposeDiatonic is the diatonic transposition in steps. Zero for
	// concert-pitch instruments.
	TransposeDiatonic int `json:"transpose_diatonic,omitempty"`

	// TransposeChromatic is the chromatic transposition in semitones.
	// Written pitch = sounding pitch - TransposeChromatic.
	TransposeChromatic int `json:"transpose_chromatic,omitempty"`
}

// Transposes returns true if the instrument is a transposing instrument.
func (i *Instrument) Transposes() bool {
	return i != nil && (i.TransposeChromatic != 0 || i.TransposeDiatonic != 0)
}

// Staff is one staff of a part: a parallel sequence of measures.
type Staff struct {
	// ID is the source staff identifier (native numbering).
	ID string `json:"id"`

	// Index is the zero-based index of this staff within its part.
	Index int `json:"index"`

	// DefaultClef is the native clef type the staff starts with, if the
	// source declared one ("" otherwise).
	DefaultClef string `json:"default_clef,omitempty"`

	// Measures contains the staff's measures in order.
	Measures []*Measure `json:"measures,omitempty"`
}

// Measure is one measure of one staff.
type Measure struct {
	// Number is the 1-based measure number.
	Number int `json:"number"`

	// Clef is the native clef type if this measure changes clef ("" if not).
	Clef string `json:"clef,omitempty"`

	// Key, if non-nil, is a key signature change: the number of sharps
	// (positive) or flats (negative).
	Key *int `json:"key,omitempty"`

	// TimeBeats and TimeBeatType, if non-zero, are a time signature change.
	TimeBeats    int `json:"time_beats,omitempty"`
	TimeBeatType int `json:"time_beat_type,omitempty"`

	// Tempo, if non-nil, is a tempo marking anchored in this measure.
	Tempo *Tempo `json:"tempo,omitempty"`

	// RepeatStart is true if the measure opens a repeated section.
	RepeatStart bool `json:"repeat_start,omitempty"`

	// RepeatEnd, if non-zero, closes a repeated section played that many
	// times in total.
	RepeatEnd int `json:"repeat_end,omitempty"`

	// EndBarline is the native end-barline subtype ("" for a normal bar).
	EndBarline string `json:"end_barline,omitempty"`

	// Voices contains the measure's voices in order. Empty voices are not
	// stored; Voice.Index records the native voice slot.
	Voices []*Voice `json:"voices,omitempty"`
}

// HasTimeChange returns true if the measure changes the time signature.
func (m *Measure) HasTimeChange() bool {
	return m.TimeBeats != 0 && m.TimeBeatType != 0
}

// Voice is an ordered list of timed events within one measure.
type Voice struct {
	// Index is the zero-based native voice slot (0..3).
	Index int `json:"index"`

	// StartTick is the offset of the first event from measure start, in
	// ticks. Non-zero only when the voice starts late (e.g., a voice that
	// enters on beat two).
	StartTick int `json:"start_tick,omitempty"`

	// Events contains the voice's chords and rests in order.
	Events []Event `json:"events,omitempty"`
}

// Event is a timed element in a voice: a *Chord or a *Rest.
type Event interface {
	// Ticks returns the event duration in ticks.
	Ticks() int
}

// Chord is one or more simultaneous notes with a shared duration.
type Chord struct {
	// DurationType is the native duration name (e.g., "quarter", "16th").
	DurationType string `json:"duration_type"`

	// Dots is the augmentation dot count.
	Dots int `json:"dots,omitempty"`

	// Duration is the expanded duration in ticks.
	Duration int `json:"duration"`

	// Grace is the native grace category ("acciaccatura", "appoggiatura",
	// "grace4", ...) or "" for a normal chord. Grace chords occupy no time.
	Grace string `json:"grace,omitempty"`

	// Notes contains the chord's notes, low to high as in the source.
	Notes []*Note `json:"notes,omitempty"`

	// Lyrics contains syllables attached to this chord.
	Lyrics []*Lyric `json:"lyrics,omitempty"`

	// SlurStarts and SlurStops are resolved slur numbers opening and
	// closing on this chord.
	SlurStarts []int `json:"slur_starts,omitempty"`
	SlurStops  []int `json:"slur_stops,omitempty"`

	// Articulations contains native articulation and ornament subtype
	// names in source order. Unknown names survive here and are dropped at
	// emission time.
	Articulations []string `json:"articulations,omitempty"`

	// Fermata is the native fermata subtype ("" if none).
	Fermata string `json:"fermata,omitempty"`

	// Arpeggio, if non-nil, marks the chord as arpeggiated.
	Arpeggio *Arpeggio `json:"arpeggio,omitempty"`

	// Dynamic is a dynamic mark attached to this chord ("" if none).
	Dynamic string `json:"dynamic,omitempty"`

	// HairpinStart opens a hairpin at this chord: "crescendo" or
	// "diminuendo" ("" if none). HairpinStop closes one after it.
	HairpinStart string `json:"hairpin_start,omitempty"`
	HairpinStop  bool   `json:"hairpin_stop,omitempty"`

	// Expressions contains staff-text words attached to this chord.
	Expressions []string `json:"expressions,omitempty"`
}

// Ticks returns the chord duration in ticks. Grace chords report zero.
func (c *Chord) Ticks() int {
	if c.Grace != "" {
		return 0
	}
	return c.Duration
}

// IsGrace returns true if the chord is a grace chord.
func (c *Chord) IsGrace() bool {
	return c.Grace != ""
}

// Rest is a timed silence.
type Rest struct {
	// DurationType is the native duration name, or "measure" for a
	// whole-measure rest.
	DurationType string `json:"duration_type"`

	// Dots is the augmentation dot count.
	Dots int `json:"dots,omitempty"`

	// Duration is the expanded duration in ticks. For whole-measure rests
	// this is the full measure duration.
	Duration int `json:"duration"`

	// WholeMeasure is true for a whole-measure rest.
	WholeMeasure bool `json:"whole_measure,omitempty"`
}

// Ticks returns the rest duration in ticks.
func (r *Rest) Ticks() int {
	return r.Duration
}

// Note is a single pitched note within a chord.
type Note struct {
	// Pitch is the sounding MIDI pitch (60 = middle C).
	Pitch int `json:"pitch"`

	// Tpc is the concert tonal pitch class (line-of-fifths index, C = 14).
	Tpc int `json:"tpc"`

	// TpcWritten is the written tonal pitch class for transposing
	// instruments. Parsers set it equal to Tpc when the source omits it.
	TpcWritten int `json:"tpc_written"`

	// Accidental is the native accidental subtype ("" if none).
	Accidental string `json:"accidental,omitempty"`

	// TieStart is true if a tie begins on this note; TieEnd if one ends.
	TieStart bool `json:"tie_start,omitempty"`
	TieEnd   bool `json:"tie_end,omitempty"`

	// Fingering is a fingering annotation ("" if none).
	Fingering string `json:"fingering,omitempty"`
}

// Lyric is one syllable of one verse, attached to a chord.
type Lyric struct {
	// Verse is the zero-based verse index.
	Verse int `json:"verse"`

	// Syllabic is the syllable position: "single", "begin", "middle" or
	// "end". Defaults to "single".
	Syllabic string `json:"syllabic,omitempty"`

	// Text is the syllable text.
	Text string `json:"text"`

	// Label is a verse label (e.g., "1.") pending attachment in front of
	// this syllable ("" if none).
	Label string `json:"label,omitempty"`
}

// Arpeggio marks a chord as arpeggiated.
type Arpeggio struct {
	// Direction is "up", "down" or "" for an undirected arpeggio.
	Direction string `json:"direction,omitempty"`
}

// Tempo is a tempo marking.
type Tempo struct {
	// BPM is the tempo in quarter-note beats per minute.
	BPM float64 `json:"bpm"`

	// Text is the display text of the marking (may contain a metronome
	// equation, a word like "Allegro", or both).
	Text string `json:"text,omitempty"`
}
