package musicxml

import (
	"strconv"

	xml "github.com/subchen/go-xmldom"

	"github.com/notefall/lyrebird/core/mscore"
	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/logging"
)

// direction opens a direction element with the given placement.
func direction(mn *xml.Node, placement string) *xml.Node {
	return mn.CreateNode("direction").SetAttributeValue("placement", placement)
}

// directionStaff pins a direction to its staff in multi-staff parts.
func directionStaff(d *xml.Node, nctx noteContext) {
	if nctx.staves > 1 {
		textChild(d, "staff", strconv.Itoa(nctx.staff+1))
	}
}

// emitDirectionsBefore writes the directions that precede their chord:
// the dynamic mark, a hairpin opening on the chord and staff-text words,
// all placed below the staff.
func emitDirectionsBefore(mn *xml.Node, c *score.Chord, nctx noteContext) {
	if mscore.IsDynamic(c.Dynamic) {
		d := direction(mn, "below")
		d.CreateNode("direction-type").CreateNode("dynamics").CreateNode(c.Dynamic)
		directionStaff(d, nctx)
	} else if c.Dynamic != "" {
		logging.Debug("unknown dynamic mark, omitted", "dynamic", c.Dynamic)
	}
	if c.HairpinStart != "" {
		d := direction(mn, "below")
		d.CreateNode("direction-type").CreateNode("wedge").SetAttributeValue("type", c.HairpinStart)
		directionStaff(d, nctx)
	}
	for _, words := range c.Expressions {
		d := direction(mn, "below")
		textChild(d.CreateNode("direction-type"), "words", words)
		directionStaff(d, nctx)
	}
}

// emitDirectionsAfter writes the directions that follow their chord: the
// stop of a hairpin that covers it.
func emitDirectionsAfter(mn *xml.Node, c *score.Chord, nctx noteContext) {
	if c.HairpinStop {
		d := direction(mn, "below")
		d.CreateNode("direction-type").CreateNode("wedge").SetAttributeValue("type", "stop")
		directionStaff(d, nctx)
	}
}

// emitTempo writes the tempo direction above the staff. Text with a
// metronome equation becomes a metronome element, preceded by any plain
// words before the equation; text without one is emitted verbatim; bare
// playback tempos print as a quarter-note equation. The sound element
// carries the playback rate either way.
func emitTempo(mn *xml.Node, t *score.Tempo, staves int) {
	if t.Text == "" && t.BPM <= 0 {
		return
	}
	d := direction(mn, "above")
	switch met := mscore.ParseMetronome(t.Text); {
	case met != nil:
		if met.Words != "" {
			textChild(d.CreateNode("direction-type"), "words", met.Words)
		}
		metn := d.CreateNode("direction-type").CreateNode("metronome")
		textChild(metn, "beat-unit", met.BeatUnit)
		if met.Dotted {
			metn.CreateNode("beat-unit-dot")
		}
		textChild(metn, "per-minute", formatBPM(met.PerMinute))
	case t.Text != "":
		textChild(d.CreateNode("direction-type"), "words", t.Text)
	default:
		metn := d.CreateNode("direction-type").CreateNode("metronome")
		textChild(metn, "beat-unit", "quarter")
		textChild(metn, "per-minute", formatBPM(t.BPM))
	}
	if staves > 1 {
		textChild(d, "staff", "1")
	}
	if t.BPM > 0 {
		d.CreateNode("sound").SetAttributeValue("tempo", formatBPM(t.BPM))
	}
}

// formatBPM renders a tempo number without trailing zeros.
func formatBPM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
