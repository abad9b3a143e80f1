package musicxml

import (
	"strconv"

	xml "github.com/subchen/go-xmldom"

	"github.com/notefall/lyrebird/core/mscore"
	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/logging"
)

// emitNotations writes one note's notations block, or nothing when there
// is none to write. Chord-level entries (slurs, marks, fermata) print on
// the chord's first note only; the arpeggiate marker prints on every
// note so renderers span the whole chord.
func emitNotations(nn *xml.Node, c *score.Chord, n *score.Note, first bool) {
	var slurStops, slurStarts []int
	var ornamentNames, articulationNames, technicalNames []string
	var fermata *mscore.Fermata
	if first {
		slurStops, slurStarts = c.SlurStops, c.SlurStarts
		for _, name := range c.Articulations {
			if o, ok := mscore.OrnamentName(name); ok {
				ornamentNames = append(ornamentNames, o)
			} else if a, ok := mscore.ArticulationName(name); ok {
				articulationNames = append(articulationNames, a)
			} else if tech, ok := mscore.TechnicalName(name); ok {
				technicalNames = append(technicalNames, tech)
			} else {
				// no interchange equivalent
				logging.Debug("unknown articulation subtype, omitted", "subtype", name)
			}
		}
		if c.Fermata != "" {
			if f, ok := mscore.FermataFor(c.Fermata); ok {
				fermata = &f
			} else {
				logging.Debug("unknown fermata subtype, omitted", "subtype", c.Fermata)
			}
		}
	}

	empty := !n.TieStart && !n.TieEnd &&
		len(slurStops) == 0 && len(slurStarts) == 0 &&
		len(ornamentNames) == 0 && len(articulationNames) == 0 &&
		len(technicalNames) == 0 && fermata == nil &&
		c.Arpeggio == nil && n.Fingering == ""
	if empty {
		return
	}

	no := nn.CreateNode("notations")
	if n.TieEnd {
		no.CreateNode("tied").SetAttributeValue("type", "stop")
	}
	if n.TieStart {
		no.CreateNode("tied").SetAttributeValue("type", "start")
	}
	for _, num := range slurStops {
		slur := no.CreateNode("slur").SetAttributeValue("type", "stop")
		slur.SetAttributeValue("number", strconv.Itoa(num))
	}
	for _, num := range slurStarts {
		slur := no.CreateNode("slur").SetAttributeValue("type", "start")
		slur.SetAttributeValue("number", strconv.Itoa(num))
	}
	if len(ornamentNames) > 0 {
		on := no.CreateNode("ornaments")
		for _, name := range ornamentNames {
			on.CreateNode(name)
		}
	}
	if len(articulationNames) > 0 {
		an := no.CreateNode("articulations")
		for _, name := range articulationNames {
			an.CreateNode(name)
		}
	}
	if len(technicalNames) > 0 {
		tn := no.CreateNode("technical")
		for _, name := range technicalNames {
			tn.CreateNode(name)
		}
	}
	if fermata != nil {
		fn := no.CreateNode("fermata")
		if fermata.Inverted {
			fn.SetAttributeValue("type", "inverted")
		} else {
			fn.SetAttributeValue("type", "upright")
		}
		if fermata.Shape != "" {
			fn.Text = fermata.Shape
		}
	}
	if c.Arpeggio != nil {
		ar := no.CreateNode("arpeggiate")
		if c.Arpeggio.Direction != "" {
			ar.SetAttributeValue("direction", c.Arpeggio.Direction)
		}
	}
	if n.Fingering != "" {
		textChild(no.CreateNode("technical"), "fingering", n.Fingering)
	}
}
