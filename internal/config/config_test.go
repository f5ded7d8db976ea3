package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, 2500*time.Millisecond, cfg.Analysis.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Analysis.PollTimeout)
	assert.Equal(t, 21.0, cfg.Console.RoofMinZoom)
	assert.Equal(t, 10.0, cfg.Console.MinBoxSize)
	assert.Equal(t, 0.00001, cfg.Console.CloseEpsilon)
	assert.Empty(t, cfg.Analysis.Roof.BaseURL)
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROOF_ANALYSIS_BASE_URL", "https://roof.example")
	t.Setenv("ANALYSIS_POLL_INTERVAL", "1500")
	t.Setenv("ANALYSIS_POLL_TIMEOUT", "90s")
	t.Setenv("ROOF_MIN_ZOOM", "20")
	t.Setenv("CAPTURE_MIN_SIZE", "not-a-number")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, "https://roof.example", cfg.Analysis.Roof.BaseURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Analysis.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.Analysis.PollTimeout)
	assert.Equal(t, 20.0, cfg.Console.RoofMinZoom)
	assert.Equal(t, 10.0, cfg.Console.MinBoxSize)
	assert.True(t, cfg.App.IsProduction())
}
