package capture

import "sync"

// DefaultMinSize is the smallest accepted selection side, in viewport pixels.
const DefaultMinSize = 10.0

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is an axis-aligned rectangle in viewport pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func boxBetween(a, b Point) BoundingBox {
	box := BoundingBox{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}
	if box.Width < 0 {
		box.X = b.X
		box.Width = -box.Width
	}
	if box.Height < 0 {
		box.Y = b.Y
		box.Height = -box.Height
	}
	return box
}

// SurfaceState is what a client needs to draw the capture layer.
type SurfaceState struct {
	Active    bool         `json:"overlay_active"`
	Disabled  bool         `json:"disabled"`
	Dragging  bool         `json:"dragging"`
	Preview   *BoundingBox `json:"preview,omitempty"`
	Highlight *BoundingBox `json:"highlight,omitempty"`
}

// Surface turns pointer gestures into a single rectangle selection.
type Surface struct {
	mu         sync.Mutex
	minSize    float64
	active     bool
	disabled   bool
	captured   int
	hasCapture bool
	start      Point
	preview    *BoundingBox
	highlight  *BoundingBox

	onPreview      func(*BoundingBox)
	onDrawComplete func(BoundingBox)
}

type SurfaceOption func(*Surface)

func WithMinSize(size float64) SurfaceOption {
	return func(s *Surface) {
		if size > 0 {
			s.minSize = size
		}
	}
}

// OnPreview registers a callback fired with every live rectangle, and with nil when the preview clears.
func OnPreview(fn func(*BoundingBox)) SurfaceOption {
	return func(s *Surface) { s.onPreview = fn }
}

// OnDrawComplete registers the callback fired once per accepted selection.
func OnDrawComplete(fn func(BoundingBox)) SurfaceOption {
	return func(s *Surface) { s.onDrawComplete = fn }
}

func NewSurface(opts ...SurfaceOption) *Surface {
	s := &Surface{minSize: DefaultMinSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open shows the surface above the map.
func (s *Surface) Open() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
}

// Close tears the surface down, dropping any drag in progress and the highlight.
func (s *Surface) Close() {
	s.mu.Lock()
	s.active = false
	s.hasCapture = false
	hadPreview := s.preview != nil
	s.preview = nil
	s.highlight = nil
	s.mu.Unlock()

	if hadPreview {
		s.emitPreview(nil)
	}
}

func (s *Surface) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Surface) SetDisabled(disabled bool) {
	s.mu.Lock()
	s.disabled = disabled
	if disabled {
		s.hasCapture = false
		s.preview = nil
	}
	s.mu.Unlock()
}

func (s *Surface) SetHighlight(box *BoundingBox) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if box == nil {
		s.highlight = nil
		return
	}
	b := *box
	s.highlight = &b
}

// PointerDown acquires capture for pointerID and starts a drag.
func (s *Surface) PointerDown(pointerID int, p Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.disabled || s.hasCapture {
		return false
	}
	s.captured = pointerID
	s.hasCapture = true
	s.start = p
	s.preview = &BoundingBox{X: p.X, Y: p.Y}
	return true
}

// PointerMove updates the live preview. Positions outside the surface keep tracking while captured.
func (s *Surface) PointerMove(pointerID int, p Point) {
	s.mu.Lock()
	if !s.hasCapture || s.captured != pointerID {
		s.mu.Unlock()
		return
	}
	box := boxBetween(s.start, p)
	s.preview = &box
	s.mu.Unlock()

	s.emitPreview(&box)
}

// PointerUp releases capture and emits the selection if it is large enough.
func (s *Surface) PointerUp(pointerID int, p Point) {
	s.mu.Lock()
	if !s.hasCapture || s.captured != pointerID {
		s.mu.Unlock()
		return
	}
	s.hasCapture = false
	s.preview = nil
	box := boxBetween(s.start, p)
	accepted := box.Width >= s.minSize && box.Height >= s.minSize
	if accepted {
		b := box
		s.highlight = &b
	}
	s.mu.Unlock()

	s.emitPreview(nil)
	if accepted && s.onDrawComplete != nil {
		s.onDrawComplete(box)
	}
}

// PointerLeave abandons a drag that left the surface without completing.
func (s *Surface) PointerLeave(pointerID int) {
	s.abandon(pointerID)
}

// LostCapture abandons the drag when the platform revokes pointer capture.
func (s *Surface) LostCapture(pointerID int) {
	s.abandon(pointerID)
}

// Cancel abandons whatever drag is in progress, regardless of pointer.
func (s *Surface) Cancel() {
	s.mu.Lock()
	if !s.hasCapture {
		s.mu.Unlock()
		return
	}
	id := s.captured
	s.mu.Unlock()

	s.abandon(id)
}

func (s *Surface) abandon(pointerID int) {
	s.mu.Lock()
	if !s.hasCapture || s.captured != pointerID {
		s.mu.Unlock()
		return
	}
	s.hasCapture = false
	s.preview = nil
	s.mu.Unlock()

	s.emitPreview(nil)
}

func (s *Surface) State() SurfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SurfaceState{Active: s.active, Disabled: s.disabled, Dragging: s.hasCapture}
	if s.preview != nil {
		p := *s.preview
		st.Preview = &p
	}
	if s.highlight != nil {
		h := *s.highlight
		st.Highlight = &h
	}
	return st
}

func (s *Surface) emitPreview(box *BoundingBox) {
	if s.onPreview != nil {
		s.onPreview(box)
	}
}
