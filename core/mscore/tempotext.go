package mscore

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/antchfx/xmlquery"
)

// Metronome is a parsed metronome equation from tempo display text, e.g.
// "Andante quarter. = 54". The printed equation may differ from the
// playback rate stored next to it.
type Metronome struct {
	// Words is free text preceding the equation ("" when the marking is
	// only an equation).
	Words string

	// BeatUnit is the interchange duration-type name of the beat unit.
	BeatUnit string

	// Dotted is true when the beat unit carries an augmentation dot.
	Dotted bool

	// PerMinute is the printed beats-per-minute value.
	PerMinute float64
}

// metronomeGrammar matches "unit [.] = number".
//
//nolint:govet // participle grammar tags are not standard struct tags
type metronomeGrammar struct {
	Unit      string  `parser:"@Unit"`
	Dot       bool    `parser:"@Dot?"`
	Equals    string  `parser:"\"=\""`
	PerMinute float64 `parser:"@Number"`
}

// metronomeLexer defines the lexer for metronome equations. Number is
// tried before Dot so decimal values lex as one token.
var metronomeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Unit", Pattern: `(?:128th|64th|32nd|16th|eighth|quarter|half|whole|breve|long)\b`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// metronomeParser is the participle parser for metronome equations.
var metronomeParser = participle.MustBuild[metronomeGrammar](
	participle.Lexer(metronomeLexer),
	participle.Elide("Whitespace"),
)

// ParseMetronome extracts a metronome equation from flattened tempo text.
// Free text before the equation is preserved in Words. Returns nil when
// the text holds no parseable equation, the normal case for plain
// markings like "Allegro".
func ParseMetronome(text string) *Metronome {
	idx := equationStart(text)
	if idx < 0 {
		return nil
	}
	parsed, err := metronomeParser.ParseString("", text[idx:])
	if err != nil {
		return nil
	}
	return &Metronome{
		Words:     strings.TrimSpace(text[:idx]),
		BeatUnit:  parsed.Unit,
		Dotted:    parsed.Dot,
		PerMinute: parsed.PerMinute,
	}
}

// beatUnits lists the duration words an equation can start with.
var beatUnits = []string{
	"long", "breve", "whole", "half", "quarter",
	"eighth", "16th", "32nd", "64th", "128th",
}

// equationStart returns the index of the earliest beat-unit word at a
// word boundary, or -1.
func equationStart(s string) int {
	best := -1
	for _, u := range beatUnits {
		from := 0
		for {
			i := strings.Index(s[from:], u)
			if i < 0 {
				break
			}
			i += from
			if wordBoundary(s, i, len(u)) {
				if best < 0 || i < best {
					best = i
				}
				break
			}
			from = i + 1
		}
	}
	return best
}

func wordBoundary(s string, i, n int) bool {
	if i > 0 && isWordByte(s[i-1]) {
		return false
	}
	if j := i + n; j < len(s) && isLetterByte(s[j]) {
		return false
	}
	return true
}

func isLetterByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isWordByte(b byte) bool {
	return isLetterByte(b) || (b >= '0' && b <= '9')
}

// symWords maps symbol element names embedded in rich marking text to the
// plain duration words the metronome grammar reads.
var symWords = map[string]string{
	"metNoteDoubleWhole": "breve",
	"metNoteWhole":       "whole",
	"metNoteHalfUp":      "half",
	"metNoteQuarterUp":   "quarter",
	"metNote8thUp":       "eighth",
	"metNote16thUp":      "16th",
	"metNote32ndUp":      "32nd",
	"metNote64thUp":      "64th",
	"metNote128thUp":     "128th",
	"metAugmentationDot": ".",
}

// symRunes maps symbol codepoints (the SMuFL private use area and the
// Unicode musical block) appearing as bare text to the same words.
var symRunes = map[rune]string{
	'':     "breve",
	'':     "whole",
	'':     "half",
	'':     "quarter",
	'':     "eighth",
	'':     "16th",
	'':     "32nd",
	'':     "64th",
	'':     "128th",
	'':     ".",
	'♩':     "quarter",
	'♪':     "eighth",
	'\U0001D15C': "breve",
	'\U0001D15D': "whole",
	'\U0001D15E': "half",
	'\U0001D15F': "quarter",
	'\U0001D160': "eighth",
	'\U0001D161': "16th",
	'\U0001D162': "32nd",
	'\U0001D163': "64th",
}

// flattenMarkText renders rich marking text to one plain line. Formatting
// elements contribute their text; symbol elements and symbol codepoints
// are rewritten as duration words so downstream text parsing sees a
// single vocabulary.
func flattenMarkText(n *xmlquery.Node) string {
	var b strings.Builder
	flattenInto(&b, n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func flattenInto(b *strings.Builder, n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			for _, r := range c.Data {
				if w, ok := symRunes[r]; ok {
					b.WriteString(" " + w + " ")
				} else {
					b.WriteRune(r)
				}
			}
		case xmlquery.ElementNode:
			if c.Data == "sym" {
				if w, ok := symWords[strings.TrimSpace(c.InnerText())]; ok {
					b.WriteString(" " + w + " ")
				}
				continue
			}
			flattenInto(b, c)
		}
	}
}
