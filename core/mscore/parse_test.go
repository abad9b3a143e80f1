package mscore

import (
	"math"
	"strings"
	"testing"

	"github.com/notefall/lyrebird/core/score"
)

const legacyDoc = `<?xml version="1.0" encoding="UTF-8"?>
<museScore version="2.06">
  <Score>
    <Division>480</Division>
    <metaTag name="workTitle">Old Song</metaTag>
    <metaTag name="composer">Trad.</metaTag>
    <Part>
      <Staff id="1">
        <defaultClef>F</defaultClef>
      </Staff>
      <trackName>Bass</trackName>
      <Instrument>
        <longName>Bass</longName>
        <trackName>Bass</trackName>
      </Instrument>
    </Part>
    <Staff id="1">
      <VBox>
        <Text>
          <style>Title</style>
          <text>Real Title</text>
        </Text>
      </VBox>
      <Measure>
        <KeySig><accidental>2</accidental></KeySig>
        <TimeSig><sigN>3</sigN><sigD>4</sigD></TimeSig>
        <Tempo><tempo>2</tempo><text>Allegro</text></Tempo>
        <Chord>
          <durationType>quarter</durationType>
          <Slur type="start" id="1"/>
          <Note><pitch>48</pitch><tpc>14</tpc></Note>
        </Chord>
        <Chord>
          <durationType>quarter</durationType>
          <Slur type="stop" id="1"/>
          <Note><pitch>50</pitch><tpc>16</tpc><Tie id="2"/></Note>
        </Chord>
        <Chord>
          <durationType>quarter</durationType>
          <Note><pitch>50</pitch><tpc>16</tpc><endSpanner id="2"/></Note>
        </Chord>
        <tick>480</tick>
        <Chord track="1">
          <durationType>half</durationType>
          <Note><pitch>43</pitch><tpc>15</tpc></Note>
        </Chord>
      </Measure>
      <Measure>
        <Dynamic><subtype>p</subtype></Dynamic>
        <Hairpin id="3"><subtype>0</subtype></Hairpin>
        <Chord>
          <durationType>half</durationType>
          <dots>1</dots>
          <Note><pitch>52</pitch><tpc>18</tpc></Note>
        </Chord>
        <Lyrics><no>0</no><syllabic>single</syllabic><text>1. Hey</text></Lyrics>
        <endSpanner id="3"/>
      </Measure>
      <Measure>
        <Tuplet id="5">
          <normalNotes>2</normalNotes>
          <actualNotes>3</actualNotes>
        </Tuplet>
        <Chord>
          <durationType>eighth</durationType>
          <Tuplet>5</Tuplet>
          <Slur type="start" id="1"/>
          <Note><pitch>48</pitch><tpc>14</tpc></Note>
        </Chord>
        <Chord>
          <durationType>eighth</durationType>
          <Tuplet>5</Tuplet>
          <Note><pitch>50</pitch><tpc>16</tpc></Note>
        </Chord>
        <Chord>
          <durationType>eighth</durationType>
          <Tuplet>5</Tuplet>
          <Slur type="stop" id="1"/>
          <Note><pitch>52</pitch><tpc>18</tpc></Note>
        </Chord>
        <Rest><durationType>half</durationType></Rest>
      </Measure>
      <Measure>
        <Rest><durationType>measure</durationType></Rest>
      </Measure>
    </Staff>
  </Score>
</museScore>`

const modernDoc = `<?xml version="1.0" encoding="UTF-8"?>
<museScore version="3.02">
  <Score>
    <Part>
      <Staff id="1">
        <defaultClef>G</defaultClef>
      </Staff>
      <trackName>Clarinet</trackName>
      <Instrument id="clarinet">
        <longName>Clarinet in B flat</longName>
        <trackName>Clarinet</trackName>
        <instrumentId>wind.reed.clarinet.bflat</instrumentId>
        <transposeDiatonic>-1</transposeDiatonic>
        <transposeChromatic>-2</transposeChromatic>
      </Instrument>
    </Part>
    <Staff id="1">
      <Measure>
        <voice>
          <KeySig><accidental>-1</accidental></KeySig>
          <TimeSig><sigN>6</sigN><sigD>8</sigD></TimeSig>
          <Tempo><tempo>1.5</tempo><text><sym>metNoteQuarterUp</sym> = 90</text></Tempo>
          <Spanner type="Slur">
            <Slur/>
            <next><location><fractions>1/8</fractions></location></next>
          </Spanner>
          <Chord>
            <durationType>eighth</durationType>
            <Note><pitch>62</pitch><tpc>16</tpc><tpc2>18</tpc2></Note>
          </Chord>
          <Spanner type="Slur">
            <prev><location><fractions>-1/8</fractions></location></prev>
          </Spanner>
          <Chord>
            <durationType>eighth</durationType>
            <Note>
              <pitch>64</pitch><tpc>18</tpc><tpc2>20</tpc2>
              <Spanner type="Tie">
                <Tie/>
                <next><location><fractions>1/12</fractions></location></next>
              </Spanner>
            </Note>
          </Chord>
          <Spanner type="HairPin">
            <HairPin><subtype>1</subtype></HairPin>
            <next><location><fractions>1/4</fractions></location></next>
          </Spanner>
          <Tuplet>
            <normalNotes>2</normalNotes>
            <actualNotes>3</actualNotes>
          </Tuplet>
          <Chord>
            <durationType>eighth</durationType>
            <Note>
              <pitch>64</pitch><tpc>18</tpc><tpc2>20</tpc2>
              <Spanner type="Tie">
                <prev><location><fractions>-1/12</fractions></location></prev>
              </Spanner>
            </Note>
          </Chord>
          <Chord>
            <durationType>eighth</durationType>
            <Note><pitch>65</pitch><tpc>13</tpc><tpc2>15</tpc2></Note>
          </Chord>
          <Chord>
            <durationType>eighth</durationType>
            <Note><pitch>67</pitch><tpc>15</tpc><tpc2>17</tpc2></Note>
          </Chord>
          <endTuplet/>
          <Spanner type="HairPin">
            <prev><location><fractions>-1/4</fractions></location></prev>
          </Spanner>
          <Chord>
            <durationType>16th</durationType>
            <acciaccatura/>
            <Note><pitch>69</pitch><tpc>17</tpc><tpc2>19</tpc2></Note>
          </Chord>
          <Dynamic><subtype>mf</subtype></Dynamic>
          <Fermata><subtype>fermataAbove</subtype></Fermata>
          <Chord>
            <durationType>quarter</durationType>
            <Arpeggio><subtype>1</subtype></Arpeggio>
            <Lyrics><no>1</no><syllabic>begin</syllabic><text>2. mor</text></Lyrics>
            <Note>
              <pitch>69</pitch><tpc>17</tpc><tpc2>19</tpc2>
              <Accidental><subtype>accidentalNatural</subtype></Accidental>
            </Note>
          </Chord>
        </voice>
        <voice>
          <location><fractions>3/8</fractions></location>
          <Chord>
            <durationType>quarter</durationType>
            <dots>1</dots>
            <Note><pitch>55</pitch><tpc>15</tpc><tpc2>17</tpc2></Note>
          </Chord>
        </voice>
      </Measure>
      <Measure>
        <voice>
          <Rest><durationType>measure</durationType><duration>6/8</duration></Rest>
        </voice>
      </Measure>
    </Staff>
  </Score>
</museScore>`

func TestDialectForVersion(t *testing.T) {
	tests := []struct {
		version string
		want    score.Dialect
	}{
		{"1.14", score.DialectLegacy},
		{"2.06", score.DialectLegacy},
		{"3.02", score.DialectModern},
		{"3", score.DialectModern},
		{"4.20", score.DialectModern},
		{"", score.DialectLegacy},
		{"garbage", score.DialectLegacy},
	}

	for _, tt := range tests {
		if got := dialectForVersion(tt.version); got != tt.want {
			t.Errorf("dialectForVersion(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func chordAt(t *testing.T, v *score.Voice, i int) *score.Chord {
	t.Helper()
	if i >= len(v.Events) {
		t.Fatalf("voice %d has %d events, need index %d", v.Index, len(v.Events), i)
	}
	c, ok := v.Events[i].(*score.Chord)
	if !ok {
		t.Fatalf("voice %d event %d is %T, want *score.Chord", v.Index, i, v.Events[i])
	}
	return c
}

func restAt(t *testing.T, v *score.Voice, i int) *score.Rest {
	t.Helper()
	if i >= len(v.Events) {
		t.Fatalf("voice %d has %d events, need index %d", v.Index, len(v.Events), i)
	}
	r, ok := v.Events[i].(*score.Rest)
	if !ok {
		t.Fatalf("voice %d event %d is %T, want *score.Rest", v.Index, i, v.Events[i])
	}
	return r
}

func TestParseLegacyScore(t *testing.T) {
	s, err := Parse(strings.NewReader(legacyDoc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if errs := score.ValidateScore(s); len(errs) > 0 {
		t.Fatalf("ValidateScore() = %v, want no errors", errs)
	}

	if s.Dialect != score.DialectLegacy {
		t.Errorf("Dialect = %q, want %q", s.Dialect, score.DialectLegacy)
	}
	if s.Version != "2.06" {
		t.Errorf("Version = %q, want %q", s.Version, "2.06")
	}
	if s.Division != 480 {
		t.Errorf("Division = %d, want 480", s.Division)
	}
	if s.Title != "Real Title" {
		t.Errorf("Title = %q, want %q (frame text overrides the meta tag)", s.Title, "Real Title")
	}
	if s.MetaTag("workTitle") != "Old Song" {
		t.Errorf("MetaTag(workTitle) = %q, want %q", s.MetaTag("workTitle"), "Old Song")
	}
	if s.Composer != "Trad." {
		t.Errorf("Composer = %q, want %q", s.Composer, "Trad.")
	}

	if len(s.Parts) != 1 {
		t.Fatalf("len(Parts) = %d, want 1", len(s.Parts))
	}
	part := s.Parts[0]
	if part.ID != "P1" {
		t.Errorf("Part.ID = %q, want %q", part.ID, "P1")
	}
	if part.Name != "Bass" {
		t.Errorf("Part.Name = %q, want %q", part.Name, "Bass")
	}
	if len(part.Staves) != 1 {
		t.Fatalf("len(Staves) = %d, want 1", len(part.Staves))
	}
	st := part.Staves[0]
	if st.DefaultClef != "F" {
		t.Errorf("DefaultClef = %q, want %q", st.DefaultClef, "F")
	}
	if len(st.Measures) != 4 {
		t.Fatalf("len(Measures) = %d, want 4", len(st.Measures))
	}

	m1 := st.Measures[0]
	if m1.Number != 1 {
		t.Errorf("measure 1 Number = %d, want 1", m1.Number)
	}
	if m1.Key == nil || *m1.Key != 2 {
		t.Errorf("measure 1 Key = %v, want 2", m1.Key)
	}
	if m1.TimeBeats != 3 || m1.TimeBeatType != 4 {
		t.Errorf("measure 1 time = %d/%d, want 3/4", m1.TimeBeats, m1.TimeBeatType)
	}
	if m1.Clef != "F" {
		t.Errorf("measure 1 Clef = %q, want %q (staff default filled in)", m1.Clef, "F")
	}
	if m1.Tempo == nil {
		t.Fatal("measure 1 Tempo = nil, want a marking")
	}
	if math.Abs(m1.Tempo.BPM-120) > 1e-9 {
		t.Errorf("measure 1 Tempo.BPM = %v, want 120", m1.Tempo.BPM)
	}
	if m1.Tempo.Text != "Allegro" {
		t.Errorf("measure 1 Tempo.Text = %q, want %q", m1.Tempo.Text, "Allegro")
	}

	if len(m1.Voices) != 2 {
		t.Fatalf("measure 1 len(Voices) = %d, want 2", len(m1.Voices))
	}
	v0, v1 := m1.Voices[0], m1.Voices[1]
	if v0.Index != 0 || v0.StartTick != 0 {
		t.Errorf("voice 0 = index %d start %d, want index 0 start 0", v0.Index, v0.StartTick)
	}
	if len(v0.Events) != 3 {
		t.Fatalf("voice 0 len(Events) = %d, want 3", len(v0.Events))
	}
	if v1.Index != 1 {
		t.Errorf("voice 1 Index = %d, want 1", v1.Index)
	}
	if v1.StartTick != 480 {
		t.Errorf("voice 1 StartTick = %d, want 480 (from the tick marker)", v1.StartTick)
	}
	if got := chordAt(t, v1, 0).Duration; got != 960 {
		t.Errorf("voice 1 chord duration = %d, want 960", got)
	}

	c0, c1, c2 := chordAt(t, v0, 0), chordAt(t, v0, 1), chordAt(t, v0, 2)
	if len(c0.SlurStarts) != 1 || c0.SlurStarts[0] != 1 {
		t.Errorf("chord 0 SlurStarts = %v, want [1]", c0.SlurStarts)
	}
	if len(c1.SlurStops) != 1 || c1.SlurStops[0] != 1 {
		t.Errorf("chord 1 SlurStops = %v, want [1]", c1.SlurStops)
	}
	if !c1.Notes[0].TieStart {
		t.Error("chord 1 note TieStart = false, want true")
	}
	if !c2.Notes[0].TieEnd {
		t.Error("chord 2 note TieEnd = false, want true")
	}

	m2 := st.Measures[1]
	if len(m2.Voices) != 1 {
		t.Fatalf("measure 2 len(Voices) = %d, want 1", len(m2.Voices))
	}
	mc := chordAt(t, m2.Voices[0], 0)
	if mc.Duration != 1440 {
		t.Errorf("dotted half duration = %d, want 1440", mc.Duration)
	}
	if mc.Dynamic != "p" {
		t.Errorf("Dynamic = %q, want %q", mc.Dynamic, "p")
	}
	if mc.HairpinStart != "crescendo" {
		t.Errorf("HairpinStart = %q, want %q", mc.HairpinStart, "crescendo")
	}
	if !mc.HairpinStop {
		t.Error("HairpinStop = false, want true (end-of-span marker closes it)")
	}
	if len(mc.Lyrics) != 1 {
		t.Fatalf("len(Lyrics) = %d, want 1 (sibling lyric attaches to preceding chord)", len(mc.Lyrics))
	}
	ly := mc.Lyrics[0]
	if ly.Verse != 0 || ly.Syllabic != "single" || ly.Label != "1." || ly.Text != "Hey" {
		t.Errorf("lyric = %+v, want verse 0 single label %q text %q", ly, "1.", "Hey")
	}

	m3 := st.Measures[2]
	t0, t2 := chordAt(t, m3.Voices[0], 0), chordAt(t, m3.Voices[0], 2)
	for i := 0; i < 3; i++ {
		if got := chordAt(t, m3.Voices[0], i).Duration; got != 160 {
			t.Errorf("triplet chord %d duration = %d, want 160", i, got)
		}
	}
	if len(t0.SlurStarts) != 1 || t0.SlurStarts[0] != 1 {
		t.Errorf("reused slur id start = %v, want [1] (identifier keeps its number)", t0.SlurStarts)
	}
	if len(t2.SlurStops) != 1 || t2.SlurStops[0] != 1 {
		t.Errorf("reused slur id stop = %v, want [1]", t2.SlurStops)
	}
	if got := restAt(t, m3.Voices[0], 3).Duration; got != 960 {
		t.Errorf("half rest duration = %d, want 960", got)
	}

	wr := restAt(t, st.Measures[3].Voices[0], 0)
	if !wr.WholeMeasure || wr.DurationType != "measure" {
		t.Errorf("rest = %+v, want a whole-measure rest", wr)
	}
	if wr.Duration != 1440 {
		t.Errorf("whole-measure rest duration = %d, want 1440 (3/4 carried forward)", wr.Duration)
	}
}

func TestParseModernScore(t *testing.T) {
	s, err := ParseBytes([]byte(modernDoc))
	if err != nil {
		t.Fatalf("ParseBytes() error: %v", err)
	}
	if errs := score.ValidateScore(s); len(errs) > 0 {
		t.Fatalf("ValidateScore() = %v, want no errors", errs)
	}

	if s.Dialect != score.DialectModern {
		t.Errorf("Dialect = %q, want %q", s.Dialect, score.DialectModern)
	}

	part := s.Parts[0]
	inst := part.Instrument
	if inst == nil {
		t.Fatal("Instrument = nil")
	}
	if inst.ID != "clarinet" {
		t.Errorf("Instrument.ID = %q, want %q", inst.ID, "clarinet")
	}
	if inst.TransposeChromatic != -2 || inst.TransposeDiatonic != -1 {
		t.Errorf("transpose = %d/%d, want -2/-1",
			inst.TransposeChromatic, inst.TransposeDiatonic)
	}
	if !inst.Transposes() {
		t.Error("Transposes() = false, want true")
	}

	st := part.Staves[0]
	if len(st.Measures) != 2 {
		t.Fatalf("len(Measures) = %d, want 2", len(st.Measures))
	}

	m1 := st.Measures[0]
	if m1.Key == nil || *m1.Key != -1 {
		t.Errorf("Key = %v, want -1", m1.Key)
	}
	if m1.TimeBeats != 6 || m1.TimeBeatType != 8 {
		t.Errorf("time = %d/%d, want 6/8", m1.TimeBeats, m1.TimeBeatType)
	}
	if m1.Clef != "G" {
		t.Errorf("Clef = %q, want %q", m1.Clef, "G")
	}
	if m1.Tempo == nil {
		t.Fatal("Tempo = nil, want a marking")
	}
	if math.Abs(m1.Tempo.BPM-90) > 1e-9 {
		t.Errorf("Tempo.BPM = %v, want 90", m1.Tempo.BPM)
	}
	if m1.Tempo.Text != "quarter = 90" {
		t.Errorf("Tempo.Text = %q, want %q (symbol flattened to a word)",
			m1.Tempo.Text, "quarter = 90")
	}

	if len(m1.Voices) != 2 {
		t.Fatalf("len(Voices) = %d, want 2", len(m1.Voices))
	}
	v0, v1 := m1.Voices[0], m1.Voices[1]
	if len(v0.Events) != 7 {
		t.Fatalf("voice 0 len(Events) = %d, want 7", len(v0.Events))
	}

	wantTicks := []int{240, 240, 160, 160, 160, 0, 480}
	total := 0
	for i, ev := range v0.Events {
		if got := ev.Ticks(); got != wantTicks[i] {
			t.Errorf("event %d Ticks() = %d, want %d", i, got, wantTicks[i])
		}
		total += ev.Ticks()
	}
	if total != 1440 {
		t.Errorf("voice 0 total ticks = %d, want 1440", total)
	}

	a, b := chordAt(t, v0, 0), chordAt(t, v0, 1)
	if len(a.SlurStarts) != 1 || a.SlurStarts[0] != 1 {
		t.Errorf("SlurStarts = %v, want [1]", a.SlurStarts)
	}
	if len(b.SlurStops) != 1 || b.SlurStops[0] != 1 {
		t.Errorf("SlurStops = %v, want [1]", b.SlurStops)
	}
	if a.Notes[0].TpcWritten != 18 {
		t.Errorf("TpcWritten = %d, want 18", a.Notes[0].TpcWritten)
	}
	if !b.Notes[0].TieStart {
		t.Error("tie spanner with continuation: TieStart = false, want true")
	}
	if b.Notes[0].TieEnd {
		t.Error("tie spanner with continuation: TieEnd = true, want false")
	}

	tp1, tp3 := chordAt(t, v0, 2), chordAt(t, v0, 4)
	if !tp1.Notes[0].TieEnd {
		t.Error("tie spanner with predecessor: TieEnd = false, want true")
	}
	if tp1.Notes[0].TieStart {
		t.Error("tie spanner with predecessor: TieStart = true, want false")
	}
	if tp1.HairpinStart != "diminuendo" {
		t.Errorf("HairpinStart = %q, want %q", tp1.HairpinStart, "diminuendo")
	}
	if !tp3.HairpinStop {
		t.Error("HairpinStop = false, want true (ends after the chord already written)")
	}

	gr := chordAt(t, v0, 5)
	if gr.Grace != "acciaccatura" || !gr.IsGrace() {
		t.Errorf("Grace = %q, want acciaccatura", gr.Grace)
	}

	c := chordAt(t, v0, 6)
	if c.Dynamic != "mf" {
		t.Errorf("Dynamic = %q, want %q", c.Dynamic, "mf")
	}
	if c.Fermata != "fermataAbove" {
		t.Errorf("Fermata = %q, want %q", c.Fermata, "fermataAbove")
	}
	if c.Arpeggio == nil || c.Arpeggio.Direction != "up" {
		t.Errorf("Arpeggio = %+v, want direction up", c.Arpeggio)
	}
	if len(c.Lyrics) != 1 {
		t.Fatalf("len(Lyrics) = %d, want 1", len(c.Lyrics))
	}
	if ly := c.Lyrics[0]; ly.Verse != 1 || ly.Label != "2." || ly.Text != "mor" {
		t.Errorf("lyric = %+v, want verse 1 label %q text %q", ly, "2.", "mor")
	}
	if c.Notes[0].Accidental != "accidentalNatural" {
		t.Errorf("Accidental = %q, want %q", c.Notes[0].Accidental, "accidentalNatural")
	}

	if v1.Index != 1 {
		t.Errorf("voice 1 Index = %d, want 1", v1.Index)
	}
	if v1.StartTick != 720 {
		t.Errorf("voice 1 StartTick = %d, want 720 (3/8 of a whole note)", v1.StartTick)
	}
	if got := chordAt(t, v1, 0).Duration; got != 720 {
		t.Errorf("voice 1 chord duration = %d, want 720", got)
	}

	wr := restAt(t, st.Measures[1].Voices[0], 0)
	if !wr.WholeMeasure || wr.Duration != 1440 {
		t.Errorf("rest = %+v, want whole-measure rest of 1440 ticks", wr)
	}
	if st.Measures[1].Tempo != nil {
		t.Errorf("measure 2 Tempo = %+v, want nil", st.Measures[1].Tempo)
	}
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"wrong root element", `<notAScore version="3.0"/>`},
		{"no element at all", `just some text`},
		{"score with no parts", `<museScore version="3.0"><Score></Score></museScore>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("Parse() error = nil, want structural error")
			}
		})
	}
}
