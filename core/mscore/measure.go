package mscore

import (
	"strconv"

	"github.com/antchfx/xmlquery"

	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/logging"
)

// measureContext carries the running staff state across a measure
// sequence: the time signature in force and the absolute tick position,
// which legacy tick markers are expressed in.
type measureContext struct {
	beats     int
	beatType  int
	startTick int
	number    int
}

func (p *parser) parseStaffMeasures(streamEl *xmlquery.Node, st *score.Staff) {
	ctx := &measureContext{beats: 4, beatType: 4}
	for _, child := range childElements(streamEl) {
		if child.Data != "Measure" {
			// frames and layout breaks carry no musical content
			continue
		}
		ctx.number++
		m := p.parseMeasure(child, ctx)
		st.Measures = append(st.Measures, m)
		ctx.startTick += measureLength(child, ctx)
	}

	// The first measure always carries explicit values so the builder
	// never has to guess the opening state.
	if len(st.Measures) > 0 {
		first := st.Measures[0]
		if first.Key == nil {
			zero := 0
			first.Key = &zero
		}
		if !first.HasTimeChange() {
			first.TimeBeats, first.TimeBeatType = 4, 4
		}
		if first.Clef == "" {
			first.Clef = st.DefaultClef
		}
	}
}

// measureLength returns the measure's tick length: the running time
// signature, unless the measure declares an irregular length (pickup and
// cadenza bars carry a whole-note fraction in the len attribute).
func measureLength(el *xmlquery.Node, ctx *measureContext) int {
	if la := attr(el, "len"); la != "" {
		if t, err := FractionTicks(la); err == nil && t > 0 {
			return t
		}
	}
	return TimeSigTicks(ctx.beats, ctx.beatType)
}

func (p *parser) parseMeasure(el *xmlquery.Node, ctx *measureContext) *score.Measure {
	m := &score.Measure{Number: ctx.number}

	// Section properties sit at different depths per generation, so they
	// are found by descendant search. Absence means "unchanged".
	if ks := firstDescendant(el, "KeySig"); ks != nil {
		k := keySigFifths(ks)
		m.Key = &k
	}
	if ts := firstDescendant(el, "TimeSig"); ts != nil {
		m.TimeBeats = childInt(ts, "sigN", 4)
		m.TimeBeatType = childInt(ts, "sigD", 4)
		ctx.beats, ctx.beatType = m.TimeBeats, m.TimeBeatType
	}
	if cl := firstDescendant(el, "Clef"); cl != nil {
		if name := clefTypeName(cl); name != "" {
			m.Clef = name
		}
	}
	if te := firstDescendant(el, "Tempo"); te != nil {
		m.Tempo = parseTempo(te)
	}
	if firstDescendant(el, "startRepeat") != nil {
		m.RepeatStart = true
	}
	if er := firstDescendant(el, "endRepeat"); er != nil {
		n, err := strconv.Atoi(elementText(er))
		if err != nil || n < 2 {
			n = 2
		}
		m.RepeatEnd = n
	}
	if bl := firstDescendant(el, "BarLine"); bl != nil {
		m.EndBarline = childText(bl, "subtype")
	}

	mticks := measureLength(el, ctx)
	if p.dialect == score.DialectModern {
		p.parseModernVoices(el, m, mticks)
	} else {
		p.parseLegacyVoices(el, m, ctx, mticks)
	}
	return m
}

// keySigFifths extracts the signed sharps/flats count from a key
// signature, whichever child the generation wrote it in.
func keySigFifths(ks *xmlquery.Node) int {
	if s := childText(ks, "accidental"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	if s := childText(ks, "concertKey"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	if v, err := strconv.Atoi(elementText(ks)); err == nil {
		return v
	}
	return 0
}

// clefTypeName extracts the native clef type from a clef change element.
func clefTypeName(cl *xmlquery.Node) string {
	if s := childText(cl, "concertClefType"); s != "" {
		return s
	}
	if s := childText(cl, "transposingClefType"); s != "" {
		return s
	}
	if s := childText(cl, "subtype"); s != "" {
		return s
	}
	return elementText(cl)
}

// parseTempo reads a tempo marking. The playback rate is stored in beats
// per second and converts to BPM; the display text, when present, may
// carry a metronome equation that differs from the playback rate.
func parseTempo(te *xmlquery.Node) *score.Tempo {
	bpm := childFloat(te, "tempo", 0) * 60
	text := ""
	if tx := childElement(te, "text"); tx != nil {
		text = flattenMarkText(tx)
	}
	if bpm <= 0 && text == "" {
		return nil
	}
	return &score.Tempo{BPM: bpm, Text: text}
}

// parseLegacyVoices reads a flat measure child list. Events belong to the
// voice named by their track attribute (mod 4, tracks count across
// staves); an element without one continues the current voice. A tick
// marker sets the absolute position of whatever event follows, which
// matters only when it positions the first event of a late voice.
func (p *parser) parseLegacyVoices(el *xmlquery.Node, m *score.Measure, ctx *measureContext, mticks int) {
	var slots [4]*score.Voice
	tuplets := legacyTuplets(el)
	cur := 0
	pendingTick := -1
	var last *score.Chord
	var pend pendingMarks

	for _, child := range childElements(el) {
		switch child.Data {
		case "tick":
			if t, err := strconv.Atoi(elementText(child)); err == nil {
				pendingTick = t
			}
		case "Chord", "Rest":
			v := cur
			if tr := attr(child, "track"); tr != "" {
				if t, err := strconv.Atoi(tr); err == nil {
					v = ((t % 4) + 4) % 4
				}
			}
			if v != cur {
				// marks left behind stay with the voice they came from
				pend.flushTo(last)
				last = nil
				cur = v
			}
			vo := slots[v]
			if vo == nil {
				vo = &score.Voice{Index: v}
				slots[v] = vo
			}
			if len(vo.Events) == 0 && pendingTick >= 0 {
				off := pendingTick - ctx.startTick
				if off < 0 || off > mticks {
					logging.Debug("tick marker outside measure, ignored",
						"tick", pendingTick, "measure", m.Number)
					off = 0
				}
				vo.StartTick = off
			}
			pendingTick = -1
			if child.Data == "Chord" {
				c := p.parseChord(child, tuplets.ratioFor(child))
				pend.applyTo(c)
				vo.Events = append(vo.Events, c)
				last = c
			} else {
				vo.Events = append(vo.Events, parseRest(child, tuplets.ratioFor(child), mticks))
			}
		case "Dynamic":
			if name := dynamicText(child); name != "" {
				pend.dynamic = name
			}
		case "StaffText":
			if s := markText(child); s != "" {
				pend.expressions = append(pend.expressions, s)
			}
		case "Fermata":
			if sub := childText(child, "subtype"); sub != "" {
				pend.fermata = sub
			}
		case "Hairpin":
			pend.hairpinStart = hairpinKind(childInt(child, "subtype", 0))
			if id := attr(child, "id"); id != "" {
				p.hairpins[id] = true
			}
		case "endSpanner":
			// Only hairpin ends matter here; slur geometry bodies and
			// other span ends at measure level carry no IR meaning.
			if id := attr(child, "id"); p.hairpins[id] {
				delete(p.hairpins, id)
				if last != nil {
					last.HairpinStop = true
				} else {
					pend.hairpinStop = true
				}
			}
		case "Lyrics":
			ly := parseLyric(child)
			if last != nil {
				last.Lyrics = append(last.Lyrics, ly)
			} else {
				pend.lyrics = append(pend.lyrics, ly)
			}
		}
	}
	pend.flushTo(last)

	for _, vo := range slots {
		if vo != nil {
			m.Voices = append(m.Voices, vo)
		}
	}
}

// parseModernVoices reads explicit voice containers. Spanner references
// and marks sit between events at their anchor position; start references
// buffer onto the next chord, end references bind as each kind requires.
func (p *parser) parseModernVoices(el *xmlquery.Node, m *score.Measure, mticks int) {
	for i, ve := range namedChildren(el, "voice") {
		if i >= 4 {
			logging.Warn("more than four voices in measure, extras ignored", "measure", m.Number)
			break
		}
		vo := &score.Voice{Index: i}
		var ratios []tupletRatio
		var last *score.Chord
		var pend pendingMarks

		current := func() tupletRatio {
			if len(ratios) == 0 {
				return tupletRatio{}
			}
			return ratios[len(ratios)-1]
		}

		for _, child := range childElements(ve) {
			switch child.Data {
			case "location":
				fr := childText(child, "fractions")
				if fr == "" {
					continue
				}
				t, err := FractionTicks(fr)
				switch {
				case err != nil:
					logging.Warn("unreadable voice offset", "fractions", fr, "measure", m.Number)
				case len(vo.Events) == 0 && t > 0:
					vo.StartTick = t
				default:
					logging.Debug("mid-voice location jump skipped",
						"fractions", fr, "measure", m.Number)
				}
			case "Tuplet":
				r := tupletRatio{
					normal: childInt(child, "normalNotes", 0),
					actual: childInt(child, "actualNotes", 0),
				}
				ratios = append(ratios, r.compose(current()))
			case "endTuplet":
				if len(ratios) > 0 {
					ratios = ratios[:len(ratios)-1]
				}
			case "Chord":
				c := p.parseChord(child, current())
				pend.applyTo(c)
				vo.Events = append(vo.Events, c)
				last = c
			case "Rest":
				vo.Events = append(vo.Events, parseRest(child, current(), mticks))
			case "Dynamic":
				if name := dynamicText(child); name != "" {
					pend.dynamic = name
				}
			case "StaffText", "Expression":
				if s := markText(child); s != "" {
					pend.expressions = append(pend.expressions, s)
				}
			case "Fermata":
				if sub := childText(child, "subtype"); sub != "" {
					pend.fermata = sub
				}
			case "Spanner":
				p.applyStreamSpanner(child, &pend, last)
			case "Lyrics":
				ly := parseLyric(child)
				if last != nil {
					last.Lyrics = append(last.Lyrics, ly)
				} else {
					pend.lyrics = append(pend.lyrics, ly)
				}
			}
		}
		pend.flushTo(last)
		if len(vo.Events) > 0 {
			m.Voices = append(m.Voices, vo)
		}
	}
}

// applyStreamSpanner handles a spanner reference between voice events. A
// reference with a continuation and no predecessor opens a span on the
// next chord; one with a predecessor and no continuation closes a span.
// Slurs close on the chord that follows the reference, hairpins end after
// the chord already written.
func (p *parser) applyStreamSpanner(sp *xmlquery.Node, pend *pendingMarks, last *score.Chord) {
	hasNext := childElement(sp, "next") != nil
	hasPrev := childElement(sp, "prev") != nil
	switch attr(sp, "type") {
	case "Slur":
		if hasNext && !hasPrev {
			pend.slurStarts = append(pend.slurStarts, p.slurs.push())
		} else if hasPrev && !hasNext {
			n, ok := p.slurs.pop()
			if !ok {
				logging.Debug("slur stop with no open slur")
			}
			pend.slurStops = append(pend.slurStops, n)
		}
	case "HairPin":
		if hasNext && !hasPrev {
			hp := childElement(sp, "HairPin")
			pend.hairpinStart = hairpinKind(childInt(hp, "subtype", 0))
		} else if hasPrev && !hasNext {
			if last != nil {
				last.HairpinStop = true
			} else {
				pend.hairpinStop = true
			}
		}
	}
}

// pendingMarks buffers stream-level marks until the chord they attach to.
type pendingMarks struct {
	dynamic      string
	hairpinStart string
	hairpinStop  bool
	fermata      string
	expressions  []string
	slurStarts   []int
	slurStops    []int
	lyrics       []*score.Lyric
}

func (pm *pendingMarks) isZero() bool {
	return pm.dynamic == "" && pm.hairpinStart == "" && !pm.hairpinStop &&
		pm.fermata == "" && len(pm.expressions) == 0 &&
		len(pm.slurStarts) == 0 && len(pm.slurStops) == 0 && len(pm.lyrics) == 0
}

// applyTo attaches the buffered marks to a chord and clears the buffer.
func (pm *pendingMarks) applyTo(c *score.Chord) {
	if pm.dynamic != "" {
		c.Dynamic = pm.dynamic
	}
	if pm.hairpinStart != "" {
		c.HairpinStart = pm.hairpinStart
	}
	if pm.hairpinStop {
		c.HairpinStop = true
	}
	if pm.fermata != "" && c.Fermata == "" {
		c.Fermata = pm.fermata
	}
	c.Expressions = append(c.Expressions, pm.expressions...)
	c.SlurStarts = append(c.SlurStarts, pm.slurStarts...)
	c.SlurStops = append(c.SlurStops, pm.slurStops...)
	c.Lyrics = append(c.Lyrics, pm.lyrics...)
	*pm = pendingMarks{}
}

// flushTo hands leftover marks to the last chord of a finished stream
// segment. With no chord to take them the marks are dropped.
func (pm *pendingMarks) flushTo(last *score.Chord) {
	if pm.isZero() {
		return
	}
	if last == nil {
		logging.Debug("stream marks with no chord to attach to, dropped")
		*pm = pendingMarks{}
		return
	}
	pm.applyTo(last)
}

// legacyTupletTable resolves legacy per-event tuplet references to
// duration scaling ratios.
type legacyTupletTable map[string]tupletRatio

// legacyTuplets collects the measure's tuplet declarations. A nested
// tuplet names its parent and composes with it.
func legacyTuplets(el *xmlquery.Node) legacyTupletTable {
	type decl struct {
		normal, actual int
		parent         string
	}
	decls := make(map[string]decl)
	for _, te := range namedChildren(el, "Tuplet") {
		id := attr(te, "id")
		if id == "" {
			continue
		}
		decls[id] = decl{
			normal: childInt(te, "normalNotes", 0),
			actual: childInt(te, "actualNotes", 0),
			parent: childText(te, "Tuplet"),
		}
	}
	if len(decls) == 0 {
		return nil
	}
	table := make(legacyTupletTable, len(decls))
	var resolve func(id string, depth int) tupletRatio
	resolve = func(id string, depth int) tupletRatio {
		d, ok := decls[id]
		if !ok || depth > 4 {
			return tupletRatio{}
		}
		r := tupletRatio{normal: d.normal, actual: d.actual}
		if d.parent != "" {
			r = r.compose(resolve(d.parent, depth+1))
		}
		return r
	}
	for id := range decls {
		table[id] = resolve(id, 0)
	}
	return table
}

// ratioFor returns the scaling ratio for an event, identity when the
// event is not part of a tuplet.
func (t legacyTupletTable) ratioFor(el *xmlquery.Node) tupletRatio {
	if t == nil {
		return tupletRatio{}
	}
	ref := childText(el, "Tuplet")
	if ref == "" {
		return tupletRatio{}
	}
	return t[ref]
}
