package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bobby-s-dev/weatherstar/internal/api"
	"github.com/bobby-s-dev/weatherstar/internal/config"
	"github.com/bobby-s-dev/weatherstar/internal/display"
	"github.com/bobby-s-dev/weatherstar/internal/render"
	"github.com/bobby-s-dev/weatherstar/internal/scheduler"
	"github.com/bobby-s-dev/weatherstar/internal/services"
	"github.com/bobby-s-dev/weatherstar/internal/settings"
	"github.com/bobby-s-dev/weatherstar/pkg/client"
)

var version = "dev"

const (
	resolveTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// stdout belongs to the display
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("weatherstar"),
		kong.Description("Looping retro weather display."),
		kong.Vars{"version": version},
	)

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	cli.Apply(cfg)

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		logger = zap.Must(zap.NewProduction())
		logger.Warn("Invalid log level, using info", zap.String("level", cfg.Server.LogLevel))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	logger.Info("Starting WeatherStar", zap.String("version", version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	clientCfg := client.ClientConfig{
		UserAgent:      cfg.WeatherAPI.UserAgent,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}
	timeout := cfg.WeatherAPI.Timeout
	noaa := client.NewNOAAClient(client.NewBaseClient("noaa", clientCfg, logger), cfg.WeatherAPI.NOAAURL, timeout)
	meteo := client.NewOpenMeteoClient(client.NewBaseClient("openmeteo", clientCfg, logger), cfg.WeatherAPI.OpenMeteoURL, cfg.WeatherAPI.AirQualityURL, timeout)
	nominatim := client.NewNominatimClient(client.NewBaseClient("nominatim", clientCfg, logger), cfg.WeatherAPI.NominatimURL, timeout)
	geolocator := client.NewIPGeolocator(client.NewBaseClient("geolocation", clientCfg, logger), cfg.WeatherAPI.GeoPrimaryURL, cfg.WeatherAPI.GeoSecondaryURL, timeout, logger.Named("geolocation"))

	weatherCache := services.NewTimedCache("weather", clock, metrics, logger)
	historyCache := services.NewTimedCache("history", clock, metrics, logger)
	newsCache := services.NewTimedCache("news", clock, metrics, logger)

	source := services.NewWeatherDataSource(noaa, meteo, nominatim, weatherCache, clock, metrics, logger.Named("weather"))
	history := services.NewHistoryAggregator(source, historyCache, logger.Named("history"))
	snapshots := services.NewSnapshotStore(clock)

	var feeds []services.Feed
	for _, f := range []services.Feed{
		{Source: services.NewsSourceMSN, URL: cfg.News.MSNURL},
		{Source: services.NewsSourceReddit, URL: cfg.News.RedditURL},
		{Source: services.NewsSourceLocal, URL: cfg.News.LocalURL},
	} {
		if f.URL != "" {
			feeds = append(feeds, f)
		}
	}

	// Settings
	settingsPath := cfg.Location.SettingsPath
	if settingsPath == "" {
		if settingsPath, err = settings.DefaultPath(); err != nil {
			logger.Fatal("Failed to locate settings file", zap.Error(err))
		}
	}
	store := settings.NewStore(settingsPath, logger.Named("settings"))
	saved, err := store.Load()
	if err != nil {
		logger.Warn("Using default settings", zap.String("path", settingsPath), zap.Error(err))
	}

	resolveCtx, cancelResolve := context.WithTimeout(ctx, resolveTimeout)
	resolver := services.NewLocationResolver(source, geolocator, logger.Named("location"))
	loc, err := resolver.Resolve(resolveCtx, services.LocationRequest{
		Latitude:   cfg.Location.Latitude,
		Longitude:  cfg.Location.Longitude,
		AutoDetect: saved.Location.AutoDetect,
		Saved:      saved.Location.Saved(),
	})
	var place string
	if err == nil {
		place = source.LocationName(resolveCtx, loc.Latitude, loc.Longitude)
	}
	cancelResolve()
	if err != nil {
		var cfgErr *services.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Fatal("Cannot start without a location", zap.Error(err))
		}
		logger.Fatal("Failed to resolve location", zap.Error(err))
	}

	if cfg.Location.Latitude != nil && cfg.Location.Longitude != nil {
		if err := store.SaveLocation(settings.LocationSettings{
			AutoDetect: false,
			Latitude:   cfg.Location.Latitude,
			Longitude:  cfg.Location.Longitude,
		}); err != nil {
			logger.Warn("Failed to save location", zap.Error(err))
		}
	}

	// Refresh worker
	var news scheduler.HeadlineRefresher
	if len(feeds) > 0 {
		news = services.NewNewsSource(client.NewBaseClient("news", clientCfg, logger), feeds, timeout, newsCache, metrics, logger.Named("news"))
	}
	refresher := scheduler.NewRefresher(scheduler.Config{
		FetchTimeout: cfg.Scheduler.FetchTimeout,
		HistorySpec:  cfg.Scheduler.HistorySpec,
		NewsSpec:     cfg.Scheduler.NewsSpec,
		PruneSpec:    cfg.Scheduler.PruneSpec,
	}, loc, place, source, history, news, snapshots,
		[]scheduler.CachePruner{weatherCache, historyCache, newsCache},
		metrics, clock, logger.Named("refresher"))
	if err := refresher.Start(ctx); err != nil {
		logger.Fatal("Failed to start refresher", zap.Error(err))
	}

	// Display
	console := render.NewConsole(os.Stdout, render.Options{
		Width: cfg.Display.Width,
		ANSI:  cfg.Display.ANSI,
	}, clock, logger.Named("render"))
	sched := display.NewDisplayScheduler(display.SchedulerConfig{
		Dwell:           cfg.Display.Dwell,
		RefreshInterval: cfg.Display.RefreshInterval,
	}, display.DefaultCatalog(), saved.Display, console,
		display.StoreData{Location: loc, Snapshots: snapshots, History: history},
		refresher, metrics, logger.Named("display"))
	loop := display.NewLoop(sched, cfg.Display.FPS, clock, logger.Named("loop"))

	watcher, err := settings.NewWatcher(store, saved.Display, func(flags display.Flags) {
		if err := loop.Send(display.SetFlagsCommand(flags)); err != nil {
			logger.Warn("Failed to apply reloaded flags", zap.Error(err))
		}
	}, settings.DefaultDebounce, logger.Named("settings"))
	if err != nil {
		logger.Warn("Settings file will not be watched", zap.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warn("Settings file will not be watched", zap.Error(err))
	}

	// Control API
	var app *fiber.App
	if cfg.Server.Listen != "off" {
		app = fiber.New(fiber.Config{
			ReadTimeout:           cfg.Server.ReadTimeout,
			WriteTimeout:          cfg.Server.WriteTimeout,
			DisableStartupMessage: true,
			ErrorHandler:          api.ErrorHandler(logger.Named("http")),
		})
		handler := api.NewHandler(loop, snapshots, history, store, refresher, loc, logger.Named("api"))
		api.SetupRoutes(app, handler, registry, logger)

		go func() {
			logger.Info("Starting control API", zap.String("address", cfg.Server.Listen))
			if err := app.Listen(cfg.Server.Listen); err != nil {
				logger.Error("Control API stopped", zap.Error(err))
			}
		}()
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Display loop failed", zap.Error(err))
	}

	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}
	refresher.Stop()

	if app != nil {
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}

	logger.Info("WeatherStar stopped")
}
