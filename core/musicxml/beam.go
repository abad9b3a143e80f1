package musicxml

import (
	"github.com/notefall/lyrebird/core/mscore"
	"github.com/notefall/lyrebird/core/score"
)

// beamWindow returns the beam grouping window in ticks: a dotted quarter
// in compound meters (eighth beat unit, beat count divisible by three),
// a quarter otherwise.
func beamWindow(beats, beatType int) int {
	if beatType == 8 && beats > 0 && beats%3 == 0 {
		return mscore.Division * 3 / 2
	}
	return mscore.Division
}

// beamMarks assigns a beam mark to each event of a voice: "begin",
// "continue" or "end" for members of a group, "" otherwise. A group is a
// run of beamable chords starting inside one beat window; it closes when
// the window changes or when a rest, an unbeamable chord or the voice
// end interrupts it. Runs of one stay unmarked. Grace chords neither
// advance the cursor nor join groups.
func beamMarks(events []score.Event, beats, beatType, startTick int) []string {
	marks := make([]string, len(events))
	window := beamWindow(beats, beatType)
	cursor := startTick
	groupWindow := -1
	var group []int

	flush := func() {
		if len(group) >= 2 {
			marks[group[0]] = "begin"
			for _, i := range group[1 : len(group)-1] {
				marks[i] = "continue"
			}
			marks[group[len(group)-1]] = "end"
		}
		group = group[:0]
	}

	for i, ev := range events {
		c, isChord := ev.(*score.Chord)
		if isChord && c.IsGrace() {
			continue
		}
		if !isChord || !mscore.IsBeamable(c.DurationType) {
			flush()
			cursor += ev.Ticks()
			continue
		}
		if len(group) > 0 && cursor/window != groupWindow {
			flush()
		}
		if len(group) == 0 {
			groupWindow = cursor / window
		}
		group = append(group, i)
		cursor += ev.Ticks()
	}
	flush()
	return marks
}
