package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	OpenWeatherURL    string
	OpenMeteoURL      string
	TileBaseURL       string

	// GeocodingAPIKey enables free-text lookups for current conditions.
	GeocodingAPIKey string

	HTTPTimeout time.Duration
	// UpstreamRetries is the number of retries after a failed upstream call.
	UpstreamRetries int

	// RefreshInterval controls how often the last searched city is re-fetched (0 = never).
	RefreshInterval time.Duration

	// ForecastMaxAge bounds how long a stored forecast may be served after failed fetches.
	ForecastMaxAge time.Duration

	SettingsPath string
	LayersPath   string // optional YAML layer catalogue
	DefaultCity  string

	Port     string
	LogLevel log.Level
}

// Load reads configuration from environment with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherURL = os.Getenv("OPENWEATHER_BASE_URL")
	cfg.OpenMeteoURL = os.Getenv("OPENMETEO_BASE_URL")
	cfg.TileBaseURL = os.Getenv("OPENWEATHER_TILE_URL")
	cfg.GeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "30m"); err != nil {
		return nil, err
	}
	if cfg.ForecastMaxAge, err = getenvDuration("FORECAST_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.UpstreamRetries = getenvInt("UPSTREAM_MAX_RETRIES", 3)
	if cfg.UpstreamRetries < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_MAX_RETRIES: must not be negative")
	}

	cfg.SettingsPath = getenvDefault("SETTINGS_PATH", "data/settings.yml")
	cfg.LayersPath = os.Getenv("LAYERS_PATH")
	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", "Helsinki")
	cfg.Port = getenvDefault("PORT", "8080")

	level, err := log.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.OpenWeatherAPIKey == "" {
		log.Warn("OPENWEATHER_API_KEY is not set; only coordinate queries via Open-Meteo will work")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
