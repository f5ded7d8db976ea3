package dto

import (
	"encoding/json"

	"propintel-console/internal/console"
	"propintel-console/pkg/capture"
	"propintel-console/pkg/measure"
	"propintel-console/pkg/tiles"
)

// Pointer event types forwarded by the console client.
const (
	PointerDown        = "down"
	PointerMove        = "move"
	PointerUp          = "up"
	PointerLeave       = "leave"
	PointerLostCapture = "lostcapture"
)

type ModeRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=none measure-area measure-distance roof-draw construction-draw"`
}

type PointerRequest struct {
	Type      string  `json:"type" validate:"required,oneof=down move up leave lostcapture"`
	PointerID int     `json:"pointer_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type PointerResponse struct {
	// Handled is false when no drawing surface took the event.
	Handled bool `json:"handled"`
}

type MapClickRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type MapClickResponse struct {
	Result      *measure.Result  `json:"result,omitempty"`
	Measurement measure.Snapshot `json:"measurement"`
}

// FrameRequest uploads the current rendering of the map element.
type FrameRequest struct {
	ImageData string  `json:"image_data" validate:"required"`
	Width     float64 `json:"width" validate:"gte=0"`
	Height    float64 `json:"height" validate:"gte=0"`
}

type ElementRequest struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

func (r ElementRequest) Rect() capture.ElementRect {
	return capture.ElementRect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
}

type OverlayRequest struct {
	Enabled bool `json:"enabled"`
}

// TileRequest resolves one tile of an overlay. Descriptor accepts {x,y,z}, {tile:{...}} or {index:{...}}.
type TileRequest struct {
	Descriptor json.RawMessage `json:"descriptor" validate:"required"`
	Zoom       int             `json:"zoom" validate:"gte=0,lte=23"`
	URN        string          `json:"urn,omitempty"`
}

type TileResponse struct {
	Coord tiles.Coord `json:"coord"`
	URL   string      `json:"url"`
}

// ViewQueryRequest restores the viewport from a shared URL query string.
type ViewQueryRequest struct {
	Query string `json:"query" validate:"required"`
}

type ViewResponse struct {
	View  console.ViewState `json:"view"`
	Query string            `json:"query"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	TileServer  string `json:"tile_server"`
	Connections int    `json:"connections"`
}
