package service

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type ITileService interface {
	// Health probes the tile proxy. An unconfigured proxy reports "disabled".
	Health(ctx context.Context) string
}

type tileService struct {
	healthURL  string
	httpClient *http.Client
}

func NewTileService(healthURL string) ITileService {
	return &tileService{healthURL: healthURL, httpClient: &http.Client{Timeout: 3 * time.Second}}
}

func (s *tileService) Health(ctx context.Context) string {
	if s.healthURL == "" {
		return "disabled"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.healthURL, nil)
	if err != nil {
		return "error: " + err.Error()
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("unhealthy (%d)", resp.StatusCode)
	}
	return "ok"
}
