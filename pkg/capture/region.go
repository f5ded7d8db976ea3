package capture

import "math"

// ElementRect is the map element's bounding rect in viewport pixels.
type ElementRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// CaptureRegion is a selection expressed in the map element's own pixel space, clamped to its bounds.
type CaptureRegion struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToCaptureRegion maps a viewport rectangle onto the element and clamps it to the visible bounds.
// ok is false when nothing of the rectangle overlaps the element.
func ToCaptureRegion(bounds BoundingBox, rect ElementRect) (CaptureRegion, bool) {
	left := clamp(bounds.X-rect.Left, 0, rect.Width)
	top := clamp(bounds.Y-rect.Top, 0, rect.Height)
	right := clamp(bounds.X+bounds.Width-rect.Left, 0, rect.Width)
	bottom := clamp(bounds.Y+bounds.Height-rect.Top, 0, rect.Height)

	region := CaptureRegion{X: left, Y: top, Width: right - left, Height: bottom - top}
	if region.Width <= 0 || region.Height <= 0 {
		return CaptureRegion{}, false
	}
	return region, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
