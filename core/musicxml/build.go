// Package musicxml renders the parsed score IR as MusicXML 3.1 partwise
// documents.
//
// Emission is total: any score the parsers produce builds without error,
// and values with no interchange equivalent (unknown articulation
// subtypes, exotic barline styles) are dropped element by element rather
// than failing the document. The only build errors are a nil score and a
// score with no parts.
//
// Durations are emitted at the fixed 480-ticks-per-quarter resolution.
// Within a measure the time cursor walks each staff and each voice in
// turn: a backup of one full measure rewinds before every staff after
// the first and every voice after the first, a leading forward positions
// voices that start late, and a trailing forward pads voices that end
// early, so every voice's duration sum equals the measure duration.
package musicxml

import (
	"strconv"
	"time"

	xml "github.com/subchen/go-xmldom"

	"github.com/notefall/lyrebird/core/errors"
	"github.com/notefall/lyrebird/core/mscore"
	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/logging"
)

const (
	// doctype is the document type declaration of the emitted dialect.
	doctype = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">`

	// softwareName is stamped into the encoding block.
	softwareName = "Lyrebird"
)

// Build renders a score as a MusicXML partwise document.
func Build(s *score.Score) (string, error) {
	if s == nil {
		return "", errors.NewValidation("score", "nil score")
	}
	if len(s.Parts) == 0 {
		return "", errors.NewValidation("score", "no parts to render")
	}
	doc := xml.NewDocument("score-partwise")
	doc.Root.SetAttributeValue("version", "3.1")
	doc.Directives = append(doc.Directives, doctype)

	b := &builder{score: s}
	b.emitHeader(doc.Root)
	b.emitPartList(doc.Root)
	for i, p := range s.Parts {
		b.emitPart(doc.Root, p, i)
	}
	return doc.XMLPretty(), nil
}

// builder walks the IR and grows the output document.
type builder struct {
	score *score.Score
}

func (b *builder) emitHeader(root *xml.Node) {
	s := b.score
	if s.Title != "" {
		textChild(root.CreateNode("work"), "work-title", s.Title)
	}
	id := root.CreateNode("identification")
	if s.Composer != "" {
		textChild(id, "creator", s.Composer).SetAttributeValue("type", "composer")
	}
	if s.Lyricist != "" {
		textChild(id, "creator", s.Lyricist).SetAttributeValue("type", "lyricist")
	}
	if rights := s.MetaTag("copyright"); rights != "" {
		textChild(id, "rights", rights)
	}
	enc := id.CreateNode("encoding")
	textChild(enc, "software", softwareName)
	textChild(enc, "encoding-date", time.Now().Format("2006-01-02"))
	if src := s.MetaTag("source"); src != "" {
		textChild(id, "source", src)
	}
	b.emitCredits(root)
}

// emitCredits mirrors the title-frame texts as page-one credits.
// Renderers that ignore work metadata still display these.
func (b *builder) emitCredits(root *xml.Node) {
	credit := func(kind, words string) {
		if words == "" {
			return
		}
		c := root.CreateNode("credit").SetAttributeValue("page", "1")
		textChild(c, "credit-type", kind)
		textChild(c, "credit-words", words)
	}
	credit("title", b.score.Title)
	credit("subtitle", b.score.Subtitle)
	credit("composer", b.score.Composer)
	credit("lyricist", b.score.Lyricist)
}

func (b *builder) emitPartList(root *xml.Node) {
	pl := root.CreateNode("part-list")
	for i, p := range b.score.Parts {
		id := partID(p, i)
		sp := pl.CreateNode("score-part").SetAttributeValue("id", id)
		textChild(sp, "part-name", p.Name)
		inst := p.Instrument
		if inst == nil {
			continue
		}
		if inst.ShortName != "" {
			textChild(sp, "part-abbreviation", inst.ShortName)
		}
		si := sp.CreateNode("score-instrument").SetAttributeValue("id", id+"-I1")
		name := inst.LongName
		if name == "" {
			name = inst.TrackName
		}
		if name == "" {
			name = p.Name
		}
		textChild(si, "instrument-name", name)
		if inst.ID != "" {
			textChild(si, "instrument-sound", inst.ID)
		}
	}
}

// timeContext carries the running time signature across measures. The
// measure duration used for backup and padding math derives from it.
type timeContext struct {
	beats    int
	beatType int
}

func (b *builder) emitPart(root *xml.Node, p *score.Part, idx int) {
	pn := root.CreateNode("part").SetAttributeValue("id", partID(p, idx))
	tctx := timeContext{beats: 4, beatType: 4}
	last := p.MeasureCount() - 1
	for mi := 0; mi <= last; mi++ {
		b.emitMeasure(pn, p, mi, &tctx, mi == last)
	}
}

func (b *builder) emitMeasure(pn *xml.Node, p *score.Part, mi int, tctx *timeContext, last bool) {
	lead := p.Staves[0].Measures[mi]
	if lead.HasTimeChange() {
		tctx.beats, tctx.beatType = lead.TimeBeats, lead.TimeBeatType
	}
	measureTicks := mscore.TimeSigTicks(tctx.beats, tctx.beatType)

	mn := pn.CreateNode("measure").SetAttributeValue("number", strconv.Itoa(lead.Number))
	if lead.RepeatStart {
		bl := mn.CreateNode("barline").SetAttributeValue("location", "left")
		textChild(bl, "bar-style", "heavy-light")
		bl.CreateNode("repeat").SetAttributeValue("direction", "forward")
	}
	b.emitAttributes(mn, p, mi, lead)
	if lead.Tempo != nil {
		emitTempo(mn, lead.Tempo, len(p.Staves))
	}

	for si, st := range p.Staves {
		if mi >= len(st.Measures) {
			continue
		}
		m := st.Measures[mi]
		if len(m.Voices) == 0 {
			continue
		}
		if si > 0 {
			emitBackup(mn, measureTicks)
		}
		for vi, v := range m.Voices {
			if vi > 0 {
				emitBackup(mn, measureTicks)
			}
			nctx := noteContext{
				inst:   p.Instrument,
				voice:  si*4 + v.Index + 1,
				staff:  si,
				staves: len(p.Staves),
			}
			emitVoice(mn, v, nctx, measureTicks, tctx)
		}
	}

	emitRightBarline(mn, lead, last)
}

// emitAttributes writes the measure's attributes block: divisions and
// transposition on the first measure, key, time and staff count when
// they change, and clef changes for every staff of the part.
func (b *builder) emitAttributes(mn *xml.Node, p *score.Part, mi int, lead *score.Measure) {
	type clefChange struct {
		number int
		clef   mscore.Clef
	}
	var clefs []clefChange
	for si, st := range p.Staves {
		if mi >= len(st.Measures) {
			continue
		}
		if name := st.Measures[mi].Clef; name != "" {
			c, known := mscore.ClefFor(name)
			if !known {
				logging.Debug("unknown clef name, treble assumed", "clef", name)
			}
			clefs = append(clefs, clefChange{number: si + 1, clef: c})
		}
	}
	if mi > 0 && lead.Key == nil && !lead.HasTimeChange() && len(clefs) == 0 {
		return
	}

	an := mn.CreateNode("attributes")
	if mi == 0 {
		textChild(an, "divisions", strconv.Itoa(mscore.Division))
	}
	if lead.Key != nil {
		textChild(an.CreateNode("key"), "fifths", strconv.Itoa(*lead.Key))
	}
	if lead.HasTimeChange() {
		tn := an.CreateNode("time")
		textChild(tn, "beats", strconv.Itoa(lead.TimeBeats))
		textChild(tn, "beat-type", strconv.Itoa(lead.TimeBeatType))
	}
	multi := len(p.Staves) > 1
	if multi && mi == 0 {
		textChild(an, "staves", strconv.Itoa(len(p.Staves)))
	}
	for _, cc := range clefs {
		cn := an.CreateNode("clef")
		if multi {
			cn.SetAttributeValue("number", strconv.Itoa(cc.number))
		}
		textChild(cn, "sign", cc.clef.Sign)
		if cc.clef.Line != 0 {
			textChild(cn, "line", strconv.Itoa(cc.clef.Line))
		}
		if cc.clef.OctaveChange != 0 {
			textChild(cn, "clef-octave-change", strconv.Itoa(cc.clef.OctaveChange))
		}
	}
	if mi == 0 && p.Instrument.Transposes() {
		tr := an.CreateNode("transpose")
		textChild(tr, "diatonic", strconv.Itoa(p.Instrument.TransposeDiatonic))
		textChild(tr, "chromatic", strconv.Itoa(p.Instrument.TransposeChromatic))
	}
}

// emitRightBarline closes the measure. End repeats win over explicit
// styles, and the part's final measure gets the final style unless a
// repeat already decided it.
func emitRightBarline(mn *xml.Node, m *score.Measure, last bool) {
	style := ""
	times := 0
	switch {
	case m.RepeatEnd > 0:
		style = "light-heavy"
		times = m.RepeatEnd
	case last:
		style = "light-heavy"
	case m.EndBarline != "":
		var known bool
		style, known = mscore.BarStyle(m.EndBarline)
		if !known && m.EndBarline != "normal" {
			logging.Debug("unknown barline subtype, omitted", "subtype", m.EndBarline)
		}
	}
	if style == "" {
		return
	}
	bl := mn.CreateNode("barline").SetAttributeValue("location", "right")
	textChild(bl, "bar-style", style)
	if times > 0 {
		rp := bl.CreateNode("repeat").SetAttributeValue("direction", "backward")
		if times > 2 {
			rp.SetAttributeValue("times", strconv.Itoa(times))
		}
	}
}

func emitBackup(mn *xml.Node, ticks int) {
	textChild(mn.CreateNode("backup"), "duration", strconv.Itoa(ticks))
}

func emitForward(mn *xml.Node, ticks int) {
	textChild(mn.CreateNode("forward"), "duration", strconv.Itoa(ticks))
}

func partID(p *score.Part, idx int) string {
	if p.ID != "" {
		return p.ID
	}
	return "P" + strconv.Itoa(idx+1)
}

// textChild appends a child element with character content and returns it.
func textChild(parent *xml.Node, name, text string) *xml.Node {
	n := parent.CreateNode(name)
	n.Text = text
	return n
}
