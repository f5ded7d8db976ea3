package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Analysis AnalysisConfig
	Console  ConsoleConfig
	Tiles    TilesConfig
	Imagery  ImageryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WSLogFilePath      string
	CorsAllowedOrigins string
	// NatsURL enables mirroring console events to JetStream when set.
	NatsURL string
}

type ServiceEndpoint struct {
	BaseURL string
	Token   string
}

type AnalysisConfig struct {
	Roof         ServiceEndpoint
	Construction ServiceEndpoint
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPTimeout  time.Duration
}

type ConsoleConfig struct {
	MinBoxSize   float64
	CloseEpsilon float64
	RoofMinZoom  float64
	EventTopic   string
}

type TilesConfig struct {
	FloodBaseURL string
	SloshBaseURL string
	FemaBaseURL  string
	// HealthURL is the tile proxy probed by /api/health. Empty skips the probe.
	HealthURL string
}

type ImageryConfig struct {
	BaseURL  string
	Token    string
	CacheTTL time.Duration
}

// IsProduction reports whether GO_ENV selects production logging.
func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/console.log"),
			WSLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
		},
		Analysis: AnalysisConfig{
			Roof: ServiceEndpoint{
				BaseURL: getEnv("ROOF_ANALYSIS_BASE_URL", ""),
				Token:   getEnv("ROOF_ANALYSIS_TOKEN", ""),
			},
			Construction: ServiceEndpoint{
				BaseURL: getEnv("CONSTRUCTION_ANALYSIS_BASE_URL", ""),
				Token:   getEnv("CONSTRUCTION_ANALYSIS_TOKEN", ""),
			},
			PollInterval: getEnvAsDuration("ANALYSIS_POLL_INTERVAL", 2500*time.Millisecond),
			PollTimeout:  getEnvAsDuration("ANALYSIS_POLL_TIMEOUT", 5*time.Minute),
			HTTPTimeout:  getEnvAsDuration("ANALYSIS_HTTP_TIMEOUT", 60*time.Second),
		},
		Console: ConsoleConfig{
			MinBoxSize:   getEnvAsFloat("CAPTURE_MIN_SIZE", 10),
			CloseEpsilon: getEnvAsFloat("MEASURE_CLOSE_EPSILON", 0.00001),
			RoofMinZoom:  getEnvAsFloat("ROOF_MIN_ZOOM", 21),
			EventTopic:   getEnv("CONSOLE_EVENT_TOPIC", "console.events"),
		},
		Tiles: TilesConfig{
			FloodBaseURL: getEnv("FLOOD_TILES_BASE_URL", ""),
			SloshBaseURL: getEnv("SLOSH_TILES_BASE_URL", ""),
			FemaBaseURL:  getEnv("FEMA_TILES_BASE_URL", ""),
			HealthURL:    getEnv("TILE_SERVER_HEALTH_URL", ""),
		},
		Imagery: ImageryConfig{
			BaseURL:  getEnv("IMAGERY_BASE_URL", ""),
			Token:    getEnv("IMAGERY_TOKEN", ""),
			CacheTTL: getEnvAsDuration("IMAGERY_CACHE_TTL", 0),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("2.5s") or a bare number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if ms := getEnvAsInt(key, -1); ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
