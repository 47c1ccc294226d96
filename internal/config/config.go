package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Geocoding: "openweather" (default) or "google".
	Geocoder       string
	GeocodeAPIKey  string
	GeocodeBaseURL string
	GoogleAPIKey   string

	// Forecasts: "openmeteo" (default) or "weatherapi".
	Forecaster        string
	ForecastBaseURL   string
	WeatherAPIKey     string
	WeatherAPIBaseURL string

	// Current conditions lookup: "openweather" (default) or "weatherapi".
	CurrentProvider string

	// Outbound resilience, all off by default.
	HTTPTimeout             time.Duration // 0 = no client timeout
	UpstreamMaxRetries      int
	UpstreamRateLimit       float64 // requests per second per provider, 0 = unlimited
	UpstreamBreakerFailures int     // consecutive failures that open a provider's circuit, 0 = never

	// History store: "memory", "sqlite" or "postgres".
	StoreDriver string
	DatabaseURL string

	// Periodic JSON snapshots of the history (empty dir = disabled).
	ExportDir      string
	ExportInterval time.Duration

	CORSOrigin   string
	Port         string
	OTLPEndpoint string
	LogLevel     string
	Env          string
}

// Load reads configuration from a .env file (if any) and the environment.
func Load() (*AppConfig, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", "openweather"))
	cfg.GeocodeAPIKey = getenvFirst("GEOCODE_API_KEY", "OWM_API_KEY", "OPENWEATHER_API_KEY")
	cfg.GeocodeBaseURL = getenvDefault("GEOCODE_BASE_URL", "https://api.openweathermap.org")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	cfg.Forecaster = strings.ToLower(getenvDefault("FORECASTER", "openmeteo"))
	cfg.ForecastBaseURL = getenvDefault("FORECAST_BASE_URL", "https://api.open-meteo.com")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_KEY")
	cfg.WeatherAPIBaseURL = getenvDefault("WEATHERAPI_BASE_URL", "https://api.weatherapi.com")
	cfg.CurrentProvider = strings.ToLower(getenvDefault("CURRENT_PROVIDER", "openweather"))

	switch cfg.Geocoder {
	case "openweather":
	case "google":
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("GEOCODER=google requires GOOGLE_MAPS_API_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q: want openweather or google", cfg.Geocoder)
	}

	switch cfg.Forecaster {
	case "openmeteo":
	case "weatherapi":
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("FORECASTER=weatherapi requires WEATHERAPI_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid FORECASTER %q: want openmeteo or weatherapi", cfg.Forecaster)
	}

	switch cfg.CurrentProvider {
	case "openweather":
	case "weatherapi":
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("CURRENT_PROVIDER=weatherapi requires WEATHERAPI_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid CURRENT_PROVIDER %q: want openweather or weatherapi", cfg.CurrentProvider)
	}

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	retries, err := getenvInt("UPSTREAM_MAX_RETRIES", 0)
	if err != nil {
		return nil, err
	}
	if retries < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_MAX_RETRIES: must not be negative")
	}
	cfg.UpstreamMaxRetries = retries

	rateLimit, err := strconv.ParseFloat(getenvDefault("UPSTREAM_RATE_LIMIT", "0"), 64)
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_RATE_LIMIT %q", os.Getenv("UPSTREAM_RATE_LIMIT"))
	}
	cfg.UpstreamRateLimit = rateLimit

	breakerFailures, err := getenvInt("UPSTREAM_BREAKER_FAILURES", 0)
	if err != nil {
		return nil, err
	}
	if breakerFailures < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_BREAKER_FAILURES: must not be negative")
	}
	cfg.UpstreamBreakerFailures = breakerFailures

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", "memory"))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	switch cfg.StoreDriver {
	case "memory":
	case "sqlite":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "weather-history.db"
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want memory, sqlite or postgres", cfg.StoreDriver)
	}

	cfg.ExportDir = os.Getenv("EXPORT_DIR")
	exportInterval, err := time.ParseDuration(getenvDefault("EXPORT_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_INTERVAL: %w", err)
	}
	cfg.ExportInterval = exportInterval

	cfg.CORSOrigin = getenvDefault("CORS_ORIGIN", "*")
	cfg.Port = getenvDefault("PORT", "5000")
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Env = getenvDefault("APP_ENV", "development")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvFirst returns the first non-empty variable among keys.
func getenvFirst(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
