package mscore

import "testing"

func TestDurationTicks(t *testing.T) {
	tests := []struct {
		name    string
		durType string
		dots    int
		want    int
	}{
		{"whole", "whole", 0, 1920},
		{"half", "half", 0, 960},
		{"quarter", "quarter", 0, 480},
		{"eighth", "eighth", 0, 240},
		{"16th", "16th", 0, 120},
		{"32nd", "32nd", 0, 60},
		{"64th", "64th", 0, 30},
		{"128th", "128th", 0, 15},
		{"breve", "breve", 0, 3840},
		{"long", "long", 0, 7680},
		{"dotted quarter", "quarter", 1, 720},
		{"double dotted quarter", "quarter", 2, 840},
		{"dotted eighth", "eighth", 1, 360},
		{"dotted half", "half", 1, 1440},
		{"unknown falls back to quarter", "hemidemisemiwhatever", 0, 480},
		{"unknown with dot", "hemidemisemiwhatever", 1, 720},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationTicks(tt.durType, tt.dots); got != tt.want {
				t.Errorf("DurationTicks(%q, %d) = %d, want %d", tt.durType, tt.dots, got, tt.want)
			}
		})
	}
}

func TestDurationInfo(t *testing.T) {
	d, ok := DurationInfo("16th")
	if !ok {
		t.Fatal("DurationInfo(16th) not found")
	}
	if d.Ticks != 120 || d.Name != "16th" {
		t.Errorf("DurationInfo(16th) = %+v", d)
	}

	if _, ok := DurationInfo("measure"); ok {
		t.Error("DurationInfo(measure) should not resolve; measure rests use the time signature")
	}
}

func TestDurationName(t *testing.T) {
	tests := []struct {
		durType string
		want    string
	}{
		{"quarter", "quarter"},
		{"longa", "long"},
		{"long", "long"},
		{"128th", "128th"},
		{"bogus", "quarter"},
	}
	for _, tt := range tests {
		if got := DurationName(tt.durType); got != tt.want {
			t.Errorf("DurationName(%q) = %q, want %q", tt.durType, got, tt.want)
		}
	}
}

func TestIsBeamable(t *testing.T) {
	for _, name := range []string{"eighth", "16th", "32nd", "64th", "128th"} {
		if !IsBeamable(name) {
			t.Errorf("IsBeamable(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"quarter", "half", "whole", "breve", "measure", ""} {
		if IsBeamable(name) {
			t.Errorf("IsBeamable(%q) = true, want false", name)
		}
	}
}

func TestTimeSigTicks(t *testing.T) {
	tests := []struct {
		name     string
		beats    int
		beatType int
		want     int
	}{
		{"common time", 4, 4, 1920},
		{"waltz", 3, 4, 1440},
		{"six eight", 6, 8, 1440},
		{"cut time", 2, 2, 1920},
		{"five four", 5, 4, 2400},
		{"nine eight", 9, 8, 2160},
		{"degenerate defaults to common time", 0, 0, 1920},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeSigTicks(tt.beats, tt.beatType); got != tt.want {
				t.Errorf("TimeSigTicks(%d, %d) = %d, want %d", tt.beats, tt.beatType, got, tt.want)
			}
		})
	}
}

func TestFractionTicks(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"quarter of a whole", "1/4", 480, false},
		{"eighth of a whole", "1/8", 240, false},
		{"three eighths", "3/8", 720, false},
		{"full measure of common time", "4/4", 1920, false},
		{"with spaces", " 1/2 ", 960, false},
		{"negative offset", "-1/8", -240, false},
		{"no slash", "14", 0, true},
		{"bad numerator", "x/4", 0, true},
		{"zero denominator", "1/0", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FractionTicks(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FractionTicks(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FractionTicks(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClefFor(t *testing.T) {
	tests := []struct {
		name     string
		clefType string
		want     Clef
		known    bool
	}{
		{"treble", "G", Clef{Sign: "G", Line: 2}, true},
		{"bass", "F", Clef{Sign: "F", Line: 4}, true},
		{"alto", "C3", Clef{Sign: "C", Line: 3}, true},
		{"tenor", "C4", Clef{Sign: "C", Line: 4}, true},
		{"treble octave down modern", "G8vb", Clef{Sign: "G", Line: 2, OctaveChange: -1}, true},
		{"treble octave down legacy", "G3", Clef{Sign: "G", Line: 2, OctaveChange: -1}, true},
		{"bass octave down legacy", "F8", Clef{Sign: "F", Line: 4, OctaveChange: -1}, true},
		{"percussion", "PERC", Clef{Sign: "percussion", Line: 2}, true},
		{"unknown falls back to treble", "XYZZY", TrebleClef, false},
		{"empty falls back to treble", "", TrebleClef, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := ClefFor(tt.clefType)
			if got != tt.want {
				t.Errorf("ClefFor(%q) = %+v, want %+v", tt.clefType, got, tt.want)
			}
			if known != tt.known {
				t.Errorf("ClefFor(%q) known = %v, want %v", tt.clefType, known, tt.known)
			}
		})
	}
}

func TestAccidentalName(t *testing.T) {
	tests := []struct {
		subtype string
		want    string
		ok      bool
	}{
		{"sharp", "sharp", true},
		{"accidentalSharp", "sharp", true},
		{"flat2", "flat-flat", true},
		{"accidentalDoubleFlat", "flat-flat", true},
		{"accidentalQuarterToneSharpStein", "", false},
	}
	for _, tt := range tests {
		got, ok := AccidentalName(tt.subtype)
		if got != tt.want || ok != tt.ok {
			t.Errorf("AccidentalName(%q) = %q, %v; want %q, %v", tt.subtype, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMarkTables(t *testing.T) {
	t.Run("ornaments", func(t *testing.T) {
		for subtype, want := range map[string]string{
			"trill":              "trill-mark",
			"ornamentTrill":      "trill-mark",
			"prall":              "inverted-mordent",
			"ornamentShortTrill": "inverted-mordent",
			"reverseturn":        "inverted-turn",
		} {
			got, ok := OrnamentName(subtype)
			if !ok || got != want {
				t.Errorf("OrnamentName(%q) = %q, %v; want %q", subtype, got, ok, want)
			}
		}
		if _, ok := OrnamentName("staccato"); ok {
			t.Error("OrnamentName(staccato) should not resolve")
		}
	})

	t.Run("articulations", func(t *testing.T) {
		for subtype, want := range map[string]string{
			"staccato":          "staccato",
			"articAccentAbove":  "accent",
			"sforzato":          "accent",
			"articMarcatoBelow": "strong-accent",
			"portato":           "detached-legato",
		} {
			got, ok := ArticulationName(subtype)
			if !ok || got != want {
				t.Errorf("ArticulationName(%q) = %q, %v; want %q", subtype, got, ok, want)
			}
		}
		if _, ok := ArticulationName("trill"); ok {
			t.Error("ArticulationName(trill) should not resolve")
		}
	})

	t.Run("technical", func(t *testing.T) {
		for subtype, want := range map[string]string{
			"upbow":          "up-bow",
			"stringsDownBow": "down-bow",
			"snappizzicato":  "snap-pizzicato",
		} {
			got, ok := TechnicalName(subtype)
			if !ok || got != want {
				t.Errorf("TechnicalName(%q) = %q, %v; want %q", subtype, got, ok, want)
			}
		}
	})
}

func TestFermataFor(t *testing.T) {
	tests := []struct {
		subtype string
		want    Fermata
		ok      bool
	}{
		{"fermata", Fermata{}, true},
		{"ufermata", Fermata{}, true},
		{"dfermata", Fermata{Inverted: true}, true},
		{"fermataBelow", Fermata{Inverted: true}, true},
		{"shortfermata", Fermata{Shape: "angled"}, true},
		{"longfermata", Fermata{Shape: "square"}, true},
		{"staccato", Fermata{}, false},
	}
	for _, tt := range tests {
		got, ok := FermataFor(tt.subtype)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FermataFor(%q) = %+v, %v; want %+v, %v", tt.subtype, got, ok, tt.want, tt.ok)
		}
	}

	if !IsFermata("ufermata") || IsFermata("tenuto") {
		t.Error("IsFermata misclassifies subtypes")
	}
}

func TestIsDynamic(t *testing.T) {
	for _, name := range []string{"p", "mf", "fff", "sfz", "fp"} {
		if !IsDynamic(name) {
			t.Errorf("IsDynamic(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "loud", "m", "crescendo"} {
		if IsDynamic(name) {
			t.Errorf("IsDynamic(%q) = true, want false", name)
		}
	}
}

func TestGraceKinds(t *testing.T) {
	if !IsGraceKind("acciaccatura") || !IsGraceKind("appoggiatura") || !IsGraceKind("grace16") {
		t.Error("IsGraceKind misses known grace markers")
	}
	if IsGraceKind("Chord") || IsGraceKind("") {
		t.Error("IsGraceKind accepts non-grace names")
	}
	if !GraceSlash("acciaccatura") {
		t.Error("GraceSlash(acciaccatura) = false, want true")
	}
	if GraceSlash("appoggiatura") || GraceSlash("grace4") {
		t.Error("GraceSlash should be false for unslashed grace kinds")
	}
}

func TestBarStyle(t *testing.T) {
	tests := []struct {
		subtype string
		want    string
		ok      bool
	}{
		{"double", "light-light", true},
		{"end", "light-heavy", true},
		{"final", "light-heavy", true},
		{"dashed", "dashed", true},
		{"normal", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BarStyle(tt.subtype)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BarStyle(%q) = %q, %v; want %q, %v", tt.subtype, got, ok, tt.want, tt.ok)
		}
	}
}
