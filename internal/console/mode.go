package console

import (
	"fmt"

	"propintel-console/pkg/analysis"
	"propintel-console/pkg/measure"
)

// Mode is the single interaction mode that owns map input.
type Mode string

const (
	ModeNone             Mode = "none"
	ModeMeasureArea      Mode = "measure-area"
	ModeMeasureDistance  Mode = "measure-distance"
	ModeRoofDraw         Mode = "roof-draw"
	ModeConstructionDraw Mode = "construction-draw"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeMeasureArea, ModeMeasureDistance, ModeRoofDraw, ModeConstructionDraw:
		return m, nil
	case "":
		return ModeNone, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Drawing reports whether the mode shows a capture surface.
func (m Mode) Drawing() bool {
	return m == ModeRoofDraw || m == ModeConstructionDraw
}

// Measuring reports whether the mode routes map clicks to the measurement engine.
func (m Mode) Measuring() bool {
	return m == ModeMeasureArea || m == ModeMeasureDistance
}

// Kind is the analysis kind a drawing mode feeds.
func (m Mode) Kind() (analysis.Kind, bool) {
	switch m {
	case ModeRoofDraw:
		return analysis.KindRoof, true
	case ModeConstructionDraw:
		return analysis.KindConstruction, true
	}
	return "", false
}

func (m Mode) measureMode() measure.Mode {
	switch m {
	case ModeMeasureArea:
		return measure.ModeArea
	case ModeMeasureDistance:
		return measure.ModeDistance
	}
	return measure.ModeNone
}

// DrawModeFor is the drawing mode that feeds kind.
func DrawModeFor(kind analysis.Kind) Mode {
	if kind == analysis.KindConstruction {
		return ModeConstructionDraw
	}
	return ModeRoofDraw
}
