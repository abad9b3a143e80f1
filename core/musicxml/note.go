package musicxml

import (
	"strconv"

	xml "github.com/subchen/go-xmldom"

	"github.com/notefall/lyrebird/core/mscore"
	"github.com/notefall/lyrebird/core/pitch"
	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/logging"
)

// noteContext is the per-voice emission context: the owning instrument,
// the output voice number and the staff the notes print on.
type noteContext struct {
	inst   *score.Instrument
	voice  int
	staff  int
	staves int
}

// emitVoice writes one voice's events plus the markers that keep the
// time cursor honest: a leading forward when the voice starts late and a
// trailing forward when its events fall short of the measure.
func emitVoice(mn *xml.Node, v *score.Voice, nctx noteContext, measureTicks int, tctx *timeContext) {
	if v.StartTick > 0 {
		emitForward(mn, v.StartTick)
	}
	marks := beamMarks(v.Events, tctx.beats, tctx.beatType, v.StartTick)
	used := v.StartTick
	for i, ev := range v.Events {
		switch e := ev.(type) {
		case *score.Chord:
			emitChord(mn, e, nctx, marks[i])
		case *score.Rest:
			emitRest(mn, e, nctx)
		}
		used += ev.Ticks()
	}
	if used < measureTicks {
		emitForward(mn, measureTicks-used)
	}
}

// emitChord writes the chord's directions and one note element per
// pitch, in schema child order. Notes after the first carry the chord
// marker; notations and lyrics describing the whole chord sit on the
// first note only.
func emitChord(mn *xml.Node, c *score.Chord, nctx noteContext, beam string) {
	emitDirectionsBefore(mn, c, nctx)
	for i, n := range c.Notes {
		nn := mn.CreateNode("note")
		if c.IsGrace() {
			g := nn.CreateNode("grace")
			if mscore.GraceSlash(c.Grace) {
				g.SetAttributeValue("slash", "yes")
			}
		}
		if i > 0 {
			nn.CreateNode("chord")
		}
		emitPitch(nn, n, nctx.inst)
		if !c.IsGrace() {
			textChild(nn, "duration", strconv.Itoa(c.Duration))
		}
		if n.TieEnd {
			nn.CreateNode("tie").SetAttributeValue("type", "stop")
		}
		if n.TieStart {
			nn.CreateNode("tie").SetAttributeValue("type", "start")
		}
		textChild(nn, "voice", strconv.Itoa(nctx.voice))
		textChild(nn, "type", mscore.DurationName(c.DurationType))
		for d := 0; d < c.Dots; d++ {
			nn.CreateNode("dot")
		}
		if name, ok := mscore.AccidentalName(n.Accidental); ok {
			textChild(nn, "accidental", name)
		} else if n.Accidental != "" {
			logging.Debug("unknown accidental subtype, omitted", "subtype", n.Accidental)
		}
		if nctx.staves > 1 {
			textChild(nn, "staff", strconv.Itoa(nctx.staff+1))
		}
		if beam != "" && !c.IsGrace() {
			textChild(nn, "beam", beam).SetAttributeValue("number", "1")
		}
		emitNotations(nn, c, n, i == 0)
		if i == 0 {
			emitLyrics(nn, c.Lyrics)
		}
	}
	emitDirectionsAfter(mn, c, nctx)
}

// emitRest writes a rest note. Whole-measure rests carry the measure
// marker and no visual type; their duration is the full measure.
func emitRest(mn *xml.Node, r *score.Rest, nctx noteContext) {
	nn := mn.CreateNode("note")
	rest := nn.CreateNode("rest")
	if r.WholeMeasure {
		rest.SetAttributeValue("measure", "yes")
	}
	textChild(nn, "duration", strconv.Itoa(r.Duration))
	textChild(nn, "voice", strconv.Itoa(nctx.voice))
	if !r.WholeMeasure {
		textChild(nn, "type", mscore.DurationName(r.DurationType))
		for d := 0; d < r.Dots; d++ {
			nn.CreateNode("dot")
		}
	}
	if nctx.staves > 1 {
		textChild(nn, "staff", strconv.Itoa(nctx.staff+1))
	}
}

// emitPitch writes the pitch in written terms: transposing instruments
// use the written tonal pitch class, with the chromatic pitch shifted by
// the transposition so the octave lands on the written note.
func emitPitch(nn *xml.Node, n *score.Note, inst *score.Instrument) {
	tpc, midi := n.Tpc, n.Pitch
	if inst.Transposes() {
		tpc = n.TpcWritten
		midi = n.Pitch - inst.TransposeChromatic
	}
	sp := pitch.Spell(tpc, midi)
	pn := nn.CreateNode("pitch")
	textChild(pn, "step", sp.Step)
	if sp.Alter != 0 {
		textChild(pn, "alter", strconv.Itoa(sp.Alter))
	}
	textChild(pn, "octave", strconv.Itoa(sp.Octave))
}

// validSyllabics is the set of legal syllable positions.
var validSyllabics = map[string]bool{
	"single": true,
	"begin":  true,
	"middle": true,
	"end":    true,
}

// emitLyrics writes the chord's syllables. A pending verse label becomes
// a separate text segment joined to the syllable by an elision, so "1."
// and the first word print as one underlaid unit.
func emitLyrics(nn *xml.Node, lyrics []*score.Lyric) {
	for _, ly := range lyrics {
		ln := nn.CreateNode("lyric").SetAttributeValue("number", strconv.Itoa(ly.Verse+1))
		syllabic := ly.Syllabic
		if !validSyllabics[syllabic] {
			syllabic = "single"
		}
		if ly.Label != "" {
			textChild(ln, "syllabic", "single")
			textChild(ln, "text", ly.Label)
			textChild(ln, "elision", " ")
		}
		textChild(ln, "syllabic", syllabic)
		textChild(ln, "text", ly.Text)
	}
}
