package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-history/internal/api/http"
	"github.com/i474232898/weather-history/internal/config"
	"github.com/i474232898/weather-history/internal/logging"
	"github.com/i474232898/weather-history/internal/scheduler"
	"github.com/i474232898/weather-history/internal/store"
	"github.com/i474232898/weather-history/internal/telemetry"
	"github.com/i474232898/weather-history/internal/weather"
	"github.com/i474232898/weather-history/internal/weather/providers"
)

const serviceName = "weather-history"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		zlog.Fatal("failed to init tracer", zap.Error(err))
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	upstream := func(baseURL string) providers.Options {
		return providers.Options{
			Client:          httpClient,
			BaseURL:         baseURL,
			MaxRetries:      cfg.UpstreamMaxRetries,
			RateLimit:       cfg.UpstreamRateLimit,
			BreakerFailures: cfg.UpstreamBreakerFailures,
		}
	}

	var geocoder weather.Geocoder
	switch cfg.Geocoder {
	case "google":
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleAPIKey, upstream(""))
	default:
		geocoder = providers.NewOpenWeatherGeocoder(upstream(cfg.GeocodeBaseURL), cfg.GeocodeAPIKey)
	}
	if cfg.GeocodeAPIKey == "" && (cfg.Geocoder == "openweather" || cfg.CurrentProvider == "openweather") {
		zlog.Warn("GEOCODE_API_KEY is not set; OpenWeatherMap lookups will fail until it is configured")
	}

	var forecaster weather.Forecaster
	switch cfg.Forecaster {
	case "weatherapi":
		forecaster = providers.NewWeatherAPIProvider(upstream(cfg.WeatherAPIBaseURL), cfg.WeatherAPIKey)
	default:
		forecaster = providers.NewOpenMeteoForecaster(upstream(cfg.ForecastBaseURL))
	}

	var currentProvider weather.CurrentProvider
	switch cfg.CurrentProvider {
	case "weatherapi":
		currentProvider = providers.NewWeatherAPIProvider(upstream(cfg.WeatherAPIBaseURL), cfg.WeatherAPIKey)
	default:
		currentProvider = providers.NewOpenWeatherCurrent(upstream(cfg.GeocodeBaseURL), cfg.GeocodeAPIKey)
	}

	historyStore, closeStore, err := store.Open(cfg.StoreDriver, cfg.DatabaseURL, cfg.Env == "development", zlog)
	if err != nil {
		zlog.Fatal("failed to open history store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	service := weather.NewService(historyStore, geocoder, forecaster, zlog)
	current := weather.NewCurrentService(currentProvider, zlog)

	// Periodic JSON snapshots of the history.
	sched := scheduler.New(cfg.ExportDir, cfg.ExportInterval, service, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","status":${status},"latency":"${latency}","method":"${method}","path":"${path}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(telemetry.TracingMiddleware())
	app.Use(telemetry.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})
	app.Get("/metrics", telemetry.PrometheusHandler())

	httpapi.RegisterRoutes(app, service, current)

	go func() {
		zlog.Info("listening",
			zap.String("port", cfg.Port),
			zap.String("geocoder", geocoder.Name()),
			zap.String("forecaster", forecaster.Name()),
			zap.String("current", currentProvider.Name()),
			zap.String("store", cfg.StoreDriver),
		)
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
	sched.Stop()
	if err := closeStore(); err != nil {
		zlog.Error("error closing store", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		zlog.Error("error flushing traces", zap.Error(err))
	}
}
