package mscore

import (
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/notefall/lyrebird/core/pitch"
	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/logging"
)

// tupletRatio scales durations for events inside a tuplet: three eighths
// in the time of two carry normal=2, actual=3. The zero value is the
// identity.
type tupletRatio struct {
	normal, actual int
}

func (t tupletRatio) scale(ticks int) int {
	if t.normal <= 0 || t.actual <= 0 {
		return ticks
	}
	return ticks * t.normal / t.actual
}

// compose stacks a nested tuplet ratio onto an enclosing one.
func (t tupletRatio) compose(o tupletRatio) tupletRatio {
	if t.normal <= 0 || t.actual <= 0 {
		return o
	}
	if o.normal <= 0 || o.actual <= 0 {
		return t
	}
	return tupletRatio{normal: t.normal * o.normal, actual: t.actual * o.actual}
}

func (p *parser) parseChord(el *xmlquery.Node, ratio tupletRatio) *score.Chord {
	c := &score.Chord{
		DurationType: childText(el, "durationType"),
		Dots:         childInt(el, "dots", 0),
	}
	if c.DurationType == "" {
		c.DurationType = "quarter"
	}
	if _, ok := DurationInfo(c.DurationType); !ok {
		logging.Warn("unknown duration type, treating as quarter",
			"duration_type", c.DurationType)
	}
	c.Duration = ratio.scale(DurationTicks(c.DurationType, c.Dots))

	for _, child := range childElements(el) {
		switch child.Data {
		case "Slur":
			// legacy start/stop references; the slur body lives elsewhere
			id := attr(child, "id")
			switch attr(child, "type") {
			case "start":
				c.SlurStarts = append(c.SlurStarts, p.slurs.numberFor(id))
			case "stop":
				c.SlurStops = append(c.SlurStops, p.slurs.numberFor(id))
			}
		case "Spanner":
			p.applyChordSpanner(child, c)
		case "Articulation":
			sub := childText(child, "subtype")
			if sub == "" {
				sub = elementText(child)
			}
			if IsFermata(sub) {
				c.Fermata = sub
			} else if sub != "" {
				c.Articulations = append(c.Articulations, sub)
			}
		case "Fermata":
			if sub := childText(child, "subtype"); sub != "" {
				c.Fermata = sub
			}
		case "Arpeggio":
			c.Arpeggio = &score.Arpeggio{
				Direction: arpeggioDirection(childInt(child, "subtype", 0)),
			}
		case "Lyrics":
			c.Lyrics = append(c.Lyrics, parseLyric(child))
		case "Note":
			c.Notes = append(c.Notes, parseNote(child))
		default:
			if IsGraceKind(child.Data) {
				c.Grace = child.Data
			}
		}
	}
	return c
}

// applyChordSpanner handles a spanner reference written as a chord child.
func (p *parser) applyChordSpanner(sp *xmlquery.Node, c *score.Chord) {
	if attr(sp, "type") != "Slur" {
		return
	}
	hasNext := childElement(sp, "next") != nil
	hasPrev := childElement(sp, "prev") != nil
	if hasNext && !hasPrev {
		c.SlurStarts = append(c.SlurStarts, p.slurs.push())
	} else if hasPrev && !hasNext {
		n, ok := p.slurs.pop()
		if !ok {
			logging.Debug("slur stop with no open slur")
		}
		c.SlurStops = append(c.SlurStops, n)
	}
}

func parseRest(el *xmlquery.Node, ratio tupletRatio, measureTicks int) *score.Rest {
	r := &score.Rest{
		DurationType: childText(el, "durationType"),
		Dots:         childInt(el, "dots", 0),
	}
	if r.DurationType == "" || r.DurationType == "measure" {
		r.DurationType = "measure"
		r.WholeMeasure = true
		r.Duration = measureTicks
		return r
	}
	if _, ok := DurationInfo(r.DurationType); !ok {
		logging.Warn("unknown duration type, treating as quarter",
			"duration_type", r.DurationType)
	}
	r.Duration = ratio.scale(DurationTicks(r.DurationType, r.Dots))
	return r
}

// tpcMissing is outside the valid line-of-fifths range and marks an
// absent tpc child.
const tpcMissing = -99

func parseNote(el *xmlquery.Node) *score.Note {
	n := &score.Note{
		Pitch: childInt(el, "pitch", 60),
		Tpc:   childInt(el, "tpc", tpcMissing),
	}
	if n.Tpc == tpcMissing {
		n.Tpc = pitch.TpcFor(n.Pitch)
	}
	n.TpcWritten = childInt(el, "tpc2", n.Tpc)
	if acc := childElement(el, "Accidental"); acc != nil {
		n.Accidental = childText(acc, "subtype")
	}
	if f := childElement(el, "Fingering"); f != nil {
		n.Fingering = markText(f)
	}

	// A tie start is a dedicated tie marker (a bare element in the legacy
	// generation, wrapped in a spanner with a continuation in the modern
	// one). A tie end is an end-of-span marker, a structurally different
	// construct; both must be checked on every note.
	n.TieStart = firstDescendant(el, "Tie") != nil
	n.TieEnd = noteTieEnd(el)
	return n
}

func noteTieEnd(el *xmlquery.Node) bool {
	if childElement(el, "endSpanner") != nil {
		return true
	}
	for _, sp := range namedChildren(el, "Spanner") {
		if attr(sp, "type") == "Tie" && childElement(sp, "prev") != nil {
			return true
		}
	}
	return false
}

var verseLabelRE = regexp.MustCompile(`^(\d+\.)\s+(.*)$`)

// parseLyric reads one syllable. A leading "1. " style prefix is split
// off as a verse label so the builder can render it as its own joined
// text segment.
func parseLyric(el *xmlquery.Node) *score.Lyric {
	ly := &score.Lyric{
		Verse:    childInt(el, "no", 0),
		Syllabic: childText(el, "syllabic"),
		Text:     markText(el),
	}
	if ly.Syllabic == "" {
		ly.Syllabic = "single"
	}
	if m := verseLabelRE.FindStringSubmatch(ly.Text); m != nil {
		ly.Label = m[1]
		ly.Text = m[2]
	}
	return ly
}

// markText extracts display text from a marking element, preferring the
// text child the newer generation writes.
func markText(el *xmlquery.Node) string {
	if tx := childElement(el, "text"); tx != nil {
		return flattenMarkText(tx)
	}
	return directText(el)
}

// directText concatenates the element's own text nodes, ignoring element
// children. Used for legacy markings that mix text with bookkeeping
// children.
func directText(n *xmlquery.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// dynamicText extracts the dynamic mark name.
func dynamicText(el *xmlquery.Node) string {
	if s := childText(el, "subtype"); s != "" {
		return s
	}
	return directText(el)
}

// hairpinKind maps a native hairpin subtype to a wedge kind. Even
// subtypes are crescendo shapes, odd ones decrescendo.
func hairpinKind(subtype int) string {
	if subtype%2 == 1 {
		return "diminuendo"
	}
	return "crescendo"
}

// arpeggioDirection maps a native arpeggio subtype to a direction.
func arpeggioDirection(subtype int) string {
	switch subtype {
	case 1, 4:
		return "up"
	case 2, 5:
		return "down"
	default:
		return ""
	}
}
