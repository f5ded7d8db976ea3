package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"
	"sync"
	"time"
)

var (
	ErrNoFrame        = errors.New("map element has not been rendered yet")
	ErrInvalidDataURL = errors.New("invalid image data url")
)

// Frame is one rendered snapshot of the map element.
// Width and Height are the element's size in CSS pixels; the image may be larger on high-density displays.
type Frame struct {
	Image      image.Image
	Width      float64
	Height     float64
	CapturedAt time.Time
}

// FrameSource yields the current rendering of the map element.
type FrameSource interface {
	Frame(ctx context.Context) (*Frame, error)
}

// Rasterizer produces a still image of a region of the map element.
type Rasterizer interface {
	Rasterize(ctx context.Context, region CaptureRegion) (string, error)
}

// FrameStore keeps the latest frame uploaded by the console client.
type FrameStore struct {
	mu    sync.RWMutex
	frame *Frame
}

func NewFrameStore() *FrameStore {
	return &FrameStore{}
}

// Put decodes dataURL and stores it as the current frame of an element of the given CSS size.
func (s *FrameStore) Put(dataURL string, width, height float64) error {
	img, err := DecodeDataURL(dataURL)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		b := img.Bounds()
		width, height = float64(b.Dx()), float64(b.Dy())
	}

	s.mu.Lock()
	s.frame = &Frame{Image: img, Width: width, Height: height, CapturedAt: time.Now()}
	s.mu.Unlock()
	return nil
}

func (s *FrameStore) Frame(ctx context.Context) (*Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return nil, ErrNoFrame
	}
	return s.frame, nil
}

// FrameRasterizer crops regions out of the frames of a FrameSource.
type FrameRasterizer struct {
	source FrameSource
}

func NewFrameRasterizer(source FrameSource) *FrameRasterizer {
	return &FrameRasterizer{source: source}
}

func (r *FrameRasterizer) Rasterize(ctx context.Context, region CaptureRegion) (string, error) {
	frame, err := r.source.Frame(ctx)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cropped, err := Crop(frame, region)
	if err != nil {
		return "", err
	}
	return EncodeDataURL(cropped)
}

// Crop cuts region out of frame, scaling from CSS pixels to image pixels.
func Crop(frame *Frame, region CaptureRegion) (image.Image, error) {
	bounds := frame.Image.Bounds()
	sx := float64(bounds.Dx()) / frame.Width
	sy := float64(bounds.Dy()) / frame.Height

	rect := image.Rect(
		bounds.Min.X+int(math.Floor(region.X*sx)),
		bounds.Min.Y+int(math.Floor(region.Y*sy)),
		bounds.Min.X+int(math.Ceil((region.X+region.Width)*sx)),
		bounds.Min.Y+int(math.Ceil((region.Y+region.Height)*sy)),
	).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("region %+v is outside the rendered frame", region)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), frame.Image, rect.Min, draw.Src)
	return dst, nil
}

// EncodeDataURL encodes img as a base64 PNG data URL.
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL accepts a base64 data URL or a bare base64 payload holding a PNG or JPEG.
func DecodeDataURL(dataURL string) (image.Image, error) {
	payload := dataURL
	if header, rest, found := strings.Cut(dataURL, ","); found {
		if !strings.HasPrefix(header, "data:") || !strings.Contains(header, ";base64") {
			return nil, ErrInvalidDataURL
		}
		payload = rest
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return img, nil
}
