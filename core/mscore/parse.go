package mscore

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/notefall/lyrebird/core/errors"
	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/logging"
)

// Parse reads a native score document from r and returns the IR.
func Parse(r io.Reader) (*score.Score, error) {
	doc, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	root := rootElement(doc)
	if root == nil || root.Data != "museScore" {
		return nil, errors.NewParse("score XML", "", "missing museScore root element")
	}
	version := attr(root, "version")
	p := &parser{
		dialect:  dialectForVersion(version),
		slurs:    newSlurNumbers(),
		hairpins: make(map[string]bool),
	}
	scoreEl := childElement(root, "Score")
	if scoreEl == nil {
		// The oldest files hang score content directly off the root.
		scoreEl = root
	}
	return p.parseScore(scoreEl, version)
}

// ParseBytes parses a native score document held in memory.
func ParseBytes(data []byte) (*score.Score, error) {
	return Parse(bytes.NewReader(data))
}

// dialectForVersion maps the root version attribute to a schema generation.
// Generation 3 introduced voice containers; anything older, or a version
// that cannot be read, parses as the flat legacy layout.
func dialectForVersion(v string) score.Dialect {
	major, _, _ := strings.Cut(strings.TrimSpace(v), ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		logging.Warn("unreadable schema version, assuming legacy layout", "version", v)
		return score.DialectLegacy
	}
	if n >= 3 {
		return score.DialectModern
	}
	return score.DialectLegacy
}

// parser holds state shared across one document parse. A fresh parser is
// built per document, so concurrent conversions never share counters.
type parser struct {
	dialect score.Dialect
	slurs   *slurNumbers

	// hairpins holds the identifiers of open legacy hairpins, so their
	// end-of-span markers can be told apart from other spanner ends.
	hairpins map[string]bool

	// inline collects measure streams found under part staff declarations,
	// used only when the document has no score-level streams.
	inline []staffStream
}

// staffStream pairs a measure stream element with the staff it belongs to.
type staffStream struct {
	staff *score.Staff
	node  *xmlquery.Node
}

func (p *parser) parseScore(scoreEl *xmlquery.Node, version string) (*score.Score, error) {
	s := &score.Score{
		Version:  version,
		Dialect:  p.dialect,
		Division: Division,
		MetaTags: make(map[string]string),
	}
	if d := childInt(scoreEl, "Division", Division); d != Division {
		logging.Warn("nonstandard tick division declared, keeping table resolution",
			"declared", d, "used", Division)
		s.Division = d
	}

	for _, mt := range namedChildren(scoreEl, "metaTag") {
		if name := attr(mt, "name"); name != "" {
			s.MetaTags[name] = elementText(mt)
		}
	}
	s.Title = s.MetaTag("workTitle")
	s.Subtitle = s.MetaTag("subtitle")
	s.Composer = s.MetaTag("composer")
	s.Lyricist = s.MetaTag("lyricist")
	if s.Lyricist == "" {
		s.Lyricist = s.MetaTag("poet")
	}

	staffByID := make(map[string]*score.Staff)
	for i, pe := range namedChildren(scoreEl, "Part") {
		s.Parts = append(s.Parts, p.parsePart(pe, i, staffByID))
	}
	if len(s.Parts) == 0 {
		return nil, errors.NewParse("score XML", "", "score declares no parts")
	}

	streams := p.contentStreams(scoreEl, staffByID)
	p.applyFrameTexts(streams, s)
	for _, cs := range streams {
		p.parseStaffMeasures(cs.node, cs.staff)
	}
	return s, nil
}

func (p *parser) parsePart(el *xmlquery.Node, idx int, staffByID map[string]*score.Staff) *score.Part {
	part := &score.Part{ID: fmt.Sprintf("P%d", idx+1)}

	inst := childElement(el, "Instrument")
	if inst != nil {
		part.Instrument = &score.Instrument{
			LongName:           childText(inst, "longName"),
			ShortName:          childText(inst, "shortName"),
			TrackName:          childText(inst, "trackName"),
			ID:                 attr(inst, "id"),
			TransposeDiatonic:  childInt(inst, "transposeDiatonic", 0),
			TransposeChromatic: childInt(inst, "transposeChromatic", 0),
		}
		if part.Instrument.ID == "" {
			part.Instrument.ID = childText(inst, "instrumentId")
		}
	}
	part.Name = childText(el, "trackName")
	if part.Name == "" && part.Instrument != nil {
		part.Name = part.Instrument.LongName
		if part.Name == "" {
			part.Name = part.Instrument.TrackName
		}
	}

	// Starting clefs may be declared on the staff itself or on the
	// instrument, keyed by 1-based staff position.
	instClefs := make(map[int]string)
	for _, ce := range namedChildren(inst, "clef") {
		instClefs[attrInt(ce, "staff", 1)] = elementText(ce)
	}

	for i, se := range namedChildren(el, "Staff") {
		st := &score.Staff{
			ID:          attr(se, "id"),
			Index:       i,
			DefaultClef: childText(se, "defaultClef"),
		}
		if st.DefaultClef == "" {
			st.DefaultClef = instClefs[i+1]
		}
		if st.DefaultClef == "" {
			st.DefaultClef = "G"
		}
		part.Staves = append(part.Staves, st)
		if st.ID != "" {
			staffByID[st.ID] = st
		}
		if len(namedChildren(se, "Measure")) > 0 {
			p.inline = append(p.inline, staffStream{staff: st, node: se})
		}
	}
	if len(part.Staves) == 0 {
		logging.Warn("part declares no staves, fabricating one", "part", part.ID)
		part.Staves = append(part.Staves, &score.Staff{Index: 0, DefaultClef: "G"})
	}
	return part
}

// contentStreams pairs each measure stream with its declared staff. Streams
// normally sit at score level keyed by staff id; the oldest files inline
// them under the part staff declarations instead.
func (p *parser) contentStreams(scoreEl *xmlquery.Node, staffByID map[string]*score.Staff) []staffStream {
	var out []staffStream
	for _, se := range namedChildren(scoreEl, "Staff") {
		id := attr(se, "id")
		st := staffByID[id]
		if st == nil {
			logging.Warn("measure stream for undeclared staff", "staff_id", id)
			continue
		}
		out = append(out, staffStream{staff: st, node: se})
	}
	if len(out) == 0 {
		out = p.inline
	}
	return out
}

// applyFrameTexts applies styled title-frame text to the score credits.
// Frame text wins over the metadata tags, which are often stale.
func (p *parser) applyFrameTexts(streams []staffStream, s *score.Score) {
	for _, cs := range streams {
		for _, child := range childElements(cs.node) {
			switch child.Data {
			case "VBox", "HBox", "TBox":
			default:
				continue
			}
			for _, te := range namedChildren(child, "Text") {
				text := childText(te, "text")
				if text == "" {
					continue
				}
				switch strings.ToLower(childText(te, "style")) {
				case "title":
					s.Title = text
				case "subtitle":
					s.Subtitle = text
				case "composer":
					s.Composer = text
				case "lyricist", "poet":
					s.Lyricist = text
				}
			}
		}
	}
}
