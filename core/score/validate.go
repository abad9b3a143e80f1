package score

import (
	"fmt"
)

// ValidationError represents a structural problem in a parsed score.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// newValidationError creates a new ValidationError.
func newValidationError(path, message string) error {
	return &ValidationError{Path: path, Message: message}
}

// ValidateScore checks a Score for structural soundness and returns all
// problems found. A valid score may still describe odd music; this catches
// shapes the builder cannot process.
func ValidateScore(s *Score) []error {
	var errs []error

	if !s.Dialect.IsValid() {
		errs = append(errs, newValidationError("score.dialect",
			fmt.Sprintf("invalid dialect: %q", s.Dialect)))
	}

	if len(s.Parts) == 0 {
		errs = append(errs, newValidationError("score.parts", "at least one part is required"))
	}

	for i, p := range s.Parts {
		path := fmt.Sprintf("score.parts[%d]", i)
		if p.ID == "" {
			errs = append(errs, newValidationError(path+".id", "ID is required"))
		}
		if len(p.Staves) == 0 {
			errs = append(errs, newValidationError(path+".staves", "at least one staff is required"))
			continue
		}
		want := len(p.Staves[0].Measures)
		for j, st := range p.Staves {
			stPath := fmt.Sprintf("%s.staves[%d]", path, j)
			if st.Index != j {
				errs = append(errs, newValidationError(stPath+".index",
					fmt.Sprintf("index %d does not match position %d", st.Index, j)))
			}
			if len(st.Measures) != want {
				errs = append(errs, newValidationError(stPath+".measures",
					fmt.Sprintf("staff has %d measures, first staff has %d", len(st.Measures), want)))
			}
			for k, m := range st.Measures {
				errs = append(errs, validateMeasure(m, fmt.Sprintf("%s.measures[%d]", stPath, k))...)
			}
		}
	}

	return errs
}

// validateMeasure checks one measure.
func validateMeasure(m *Measure, path string) []error {
	var errs []error

	if m.TimeBeats < 0 || m.TimeBeatType < 0 {
		errs = append(errs, newValidationError(path,
			fmt.Sprintf("negative time signature %d/%d", m.TimeBeats, m.TimeBeatType)))
	}
	if (m.TimeBeats == 0) != (m.TimeBeatType == 0) {
		errs = append(errs, newValidationError(path,
			"time signature must set both beats and beat type"))
	}

	for i, v := range m.Voices {
		vPath := fmt.Sprintf("%s.voices[%d]", path, i)
		if v.Index < 0 || v.Index > 3 {
			errs = append(errs, newValidationError(vPath+".index",
				fmt.Sprintf("voice slot %d out of range 0..3", v.Index)))
		}
		if v.StartTick < 0 {
			errs = append(errs, newValidationError(vPath+".start_tick",
				fmt.Sprintf("negative start tick %d", v.StartTick)))
		}
		for j, ev := range v.Events {
			switch e := ev.(type) {
			case *Chord:
				if len(e.Notes) == 0 {
					errs = append(errs, newValidationError(
						fmt.Sprintf("%s.events[%d]", vPath, j), "chord has no notes"))
				}
			case *Rest:
				if e.Duration < 0 {
					errs = append(errs, newValidationError(
						fmt.Sprintf("%s.events[%d]", vPath, j), "rest has negative duration"))
				}
			default:
				errs = append(errs, newValidationError(
					fmt.Sprintf("%s.events[%d]", vPath, j),
					fmt.Sprintf("unknown event type %T", ev)))
			}
		}
	}

	return errs
}
