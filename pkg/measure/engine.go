package measure

import (
	"errors"
	"math"
)

type Mode string

const (
	ModeNone     Mode = "none"
	ModeArea     Mode = "area"
	ModeDistance Mode = "distance"
)

// DefaultCloseEpsilon is how close, in degrees, a click must land to the first vertex to close a polygon.
const DefaultCloseEpsilon = 0.00001

var ErrUnknownMode = errors.New("unknown measurement mode")

// Result is the computed measurement with its display conversions.
type Result struct {
	Mode       Mode    `json:"mode"`
	Meters     float64 `json:"meters,omitempty"`
	Feet       float64 `json:"feet,omitempty"`
	Miles      float64 `json:"miles,omitempty"`
	SquareM    float64 `json:"square_meters,omitempty"`
	SquareFeet float64 `json:"square_feet,omitempty"`
	Acres      float64 `json:"acres,omitempty"`
}

type Snapshot struct {
	Mode   Mode     `json:"mode"`
	Points []LatLng `json:"points"`
	Closed bool     `json:"closed"`
	Result *Result  `json:"result,omitempty"`
}

// Engine accumulates clicked map points for one measurement at a time.
// It is not safe for concurrent use; the console coordinator serialises access.
type Engine struct {
	epsilon float64
	mode    Mode
	points  []LatLng
	result  *Result
}

func NewEngine(epsilon float64) *Engine {
	if epsilon <= 0 {
		epsilon = DefaultCloseEpsilon
	}
	return &Engine{epsilon: epsilon, mode: ModeNone}
}

// Start switches the engine to mode, discarding any previous points and result.
func (e *Engine) Start(mode Mode) error {
	switch mode {
	case ModeNone, ModeArea, ModeDistance:
	default:
		return ErrUnknownMode
	}
	e.mode = mode
	e.points = nil
	e.result = nil
	return nil
}

func (e *Engine) Mode() Mode { return e.mode }

// InProgress reports whether points have been placed without a result yet.
func (e *Engine) InProgress() bool {
	return e.result == nil && len(e.points) > 0
}

// Click advances the current measurement. It returns the result once the sequence closes.
func (e *Engine) Click(p LatLng) *Result {
	if e.result != nil {
		return nil
	}

	switch e.mode {
	case ModeArea:
		if len(e.points) >= 3 && e.nearFirst(p) {
			area := PolygonArea(e.points)
			e.result = &Result{
				Mode:       ModeArea,
				SquareM:    area,
				SquareFeet: SquareMetersToSquareFeet(area),
				Acres:      SquareMetersToAcres(area),
			}
			return e.result
		}
		e.points = append(e.points, p)
	case ModeDistance:
		e.points = append(e.points, p)
		if len(e.points) == 2 {
			d := Haversine(e.points[0], e.points[1])
			e.result = &Result{
				Mode:   ModeDistance,
				Meters: d,
				Feet:   MetersToFeet(d),
				Miles:  MetersToMiles(d),
			}
			return e.result
		}
	}
	return nil
}

func (e *Engine) nearFirst(p LatLng) bool {
	first := e.points[0]
	return math.Abs(first.Lat-p.Lat) < e.epsilon && math.Abs(first.Lng-p.Lng) < e.epsilon
}

// Cancel drops an in-progress sequence without computing anything. A computed result is kept.
func (e *Engine) Cancel() {
	if e.result == nil {
		e.points = nil
	}
}

// Leave switches to ModeNone and drops an unfinished sequence. A computed result and its
// points stay until Reset or the next Start.
func (e *Engine) Leave() {
	e.mode = ModeNone
	if e.result == nil {
		e.points = nil
	}
}

// Reset clears points and result but stays in the current mode.
func (e *Engine) Reset() {
	e.points = nil
	e.result = nil
}

func (e *Engine) Snapshot() Snapshot {
	points := make([]LatLng, len(e.points))
	copy(points, e.points)
	s := Snapshot{Mode: e.mode, Points: points, Closed: e.result != nil}
	if e.result != nil {
		r := *e.result
		s.Result = &r
	}
	return s
}
