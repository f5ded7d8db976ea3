package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"propintel-console/internal/dto"
	"propintel-console/internal/pkg/logger"
	"propintel-console/internal/repository/memory"
	"propintel-console/pkg/tiles"
)

var (
	ErrImageryNotConfigured = errors.New("imagery service is not configured")
	ErrImageryUnavailable   = errors.New("imagery discovery failed")
)

const DirectionOrtho = "ortho"

var cardinals = []string{"north", "east", "south", "west"}

type IImageryService interface {
	Discover(ctx context.Context, lat, lng float64, direction string) (*dto.ImageryResponse, error)
}

type imageryService struct {
	baseURL    string
	token      string
	httpClient *http.Client
	repo       *memory.ImageryRepository
	catalogue  *tiles.Catalogue
	logger     logger.ILogger
}

func NewImageryService(baseURL, token string, repo *memory.ImageryRepository, catalogue *tiles.Catalogue, log logger.ILogger) IImageryService {
	return &imageryService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		repo:       repo,
		catalogue:  catalogue,
		logger:     log,
	}
}

// LocationKey rounds a coordinate to five decimals (about a metre) for caching.
func LocationKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}

func (s *imageryService) Discover(ctx context.Context, lat, lng float64, direction string) (*dto.ImageryResponse, error) {
	if s.baseURL == "" {
		return nil, ErrImageryNotConfigured
	}
	if direction == "" {
		direction = DirectionOrtho
	}

	key := LocationKey(lat, lng)
	discovery, cached := s.repo.Get(key)
	if !cached {
		var err error
		discovery, err = s.fetch(ctx, lat, lng)
		if err != nil {
			return nil, err
		}
		s.repo.Save(key, discovery)
		s.logger.Info("ImageryService", "Imagery discovered", map[string]interface{}{"key": key, "captures": len(discovery.Captures)})
	}

	res := &dto.ImageryResponse{Key: key, Requested: direction, Available: available(discovery), Cached: cached}
	if img, dir, ok := pick(discovery, direction); ok {
		res.Layer = &dto.ImageryLayer{
			URN:          img.URN,
			Direction:    dir,
			ShotTime:     img.ShotTime,
			GSD:          img.CalculatedGSD,
			TileTemplate: s.catalogue.ImageryTemplate(img.URN),
			Tilebox:      img.Resources.Tilebox,
		}
	}
	return res, nil
}

func (s *imageryService) fetch(ctx context.Context, lat, lng float64) (*dto.DiscoveryResponse, error) {
	body, err := json.Marshal(dto.DiscoveryRequest{Lat: lat, Lng: lng})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/eagleview/discovery", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrImageryUnavailable, resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var out dto.DiscoveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrImageryUnavailable, err)
	}
	return &out, nil
}

// pick returns the first image looking from direction, falling back to the ortho view.
func pick(d *dto.DiscoveryResponse, direction string) (dto.ImageryImage, string, bool) {
	if direction != DirectionOrtho {
		for _, c := range d.Captures {
			if v, ok := c.Obliques[direction]; ok && len(v.Images) > 0 && v.Images[0].URN != "" {
				return v.Images[0], direction, true
			}
		}
	}
	for _, c := range d.Captures {
		if len(c.Orthos.Images) > 0 && c.Orthos.Images[0].URN != "" {
			return c.Orthos.Images[0], DirectionOrtho, true
		}
	}
	return dto.ImageryImage{}, "", false
}

func available(d *dto.DiscoveryResponse) []string {
	out := []string{}
	for _, dir := range append([]string{DirectionOrtho}, cardinals...) {
		if _, got, ok := pick(d, dir); ok && got == dir {
			out = append(out, dir)
		}
	}
	return out
}
