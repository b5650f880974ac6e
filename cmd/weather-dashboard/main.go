package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/overlay"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(cfg.LogLevel)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	backoff := providers.DefaultBackoff
	backoff.MaxRetries = cfg.UpstreamRetries

	// OpenWeatherMap first; Open-Meteo answers coordinate queries when it fails.
	owm := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherURL)
	owm.SetBackoff(backoff)
	meteo := providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoURL)
	meteo.SetBackoff(backoff)

	var geocoder weather.Geocoder
	if cfg.GeocodingAPIKey != "" {
		geocoder = providers.NewGoogleGeocoder(cfg.GeocodingAPIKey)
	}

	service := weather.NewService(
		store.NewMemoryStore(cfg.ForecastMaxAge),
		store.NewFileSettings(cfg.SettingsPath),
		[]weather.Provider{owm, meteo},
		geocoder,
	)
	service.SetDefaultCity(cfg.DefaultCity)

	catalog := overlay.DefaultCatalog()
	if cfg.LayersPath != "" {
		catalog, err = overlay.LoadCatalog(cfg.LayersPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load layer catalog")
		}
	}
	layers := overlay.NewLayerSet(catalog, cfg.TileBaseURL, cfg.OpenWeatherAPIKey)
	defer layers.Close()

	sched := scheduler.New(cfg.RefreshInterval, service)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, service, layers)

	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}
