package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultUserAgent = "(weatherstar, weatherstar@example.com)"

	DefaultMSNFeed    = "https://rss.msn.com/en-us/"
	DefaultRedditFeed = "https://www.reddit.com/r/news/.rss"
	DefaultLocalFeed  = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"
)

type Config struct {
	Server struct {
		Listen       string        `validate:"required"`
		ReadTimeout  time.Duration `validate:"gt=0"`
		WriteTimeout time.Duration `validate:"gt=0"`
		LogLevel     string        `validate:"oneof=debug info warn error"`
	}

	Display struct {
		Dwell           time.Duration `validate:"gt=0"`
		RefreshInterval time.Duration `validate:"gt=0"`
		FPS             int           `validate:"min=1,max=60"`
		Width           int           `validate:"min=40,max=200"`
		ANSI            bool
	}

	Location struct {
		Latitude     *float64 `validate:"omitempty,gte=-90,lte=90"`
		Longitude    *float64 `validate:"omitempty,gte=-180,lte=180"`
		SettingsPath string
	}

	WeatherAPI struct {
		UserAgent       string        `validate:"required"`
		Timeout         time.Duration `validate:"gt=0"`
		NOAAURL         string        `validate:"required,url"`
		OpenMeteoURL    string        `validate:"required,url"`
		AirQualityURL   string        `validate:"required,url"`
		NominatimURL    string        `validate:"required,url"`
		GeoPrimaryURL   string        `validate:"required,url"`
		GeoSecondaryURL string        `validate:"required,url"`
	}

	News struct {
		MSNURL    string `validate:"omitempty,url"`
		RedditURL string `validate:"omitempty,url"`
		LocalURL  string `validate:"omitempty,url"`
	}

	Scheduler struct {
		FetchTimeout time.Duration `validate:"gt=0"`
		HistorySpec  string        `validate:"required"`
		NewsSpec     string        `validate:"required"`
		PruneSpec    string        `validate:"required"`
	}

	CircuitBreaker struct {
		Threshold int           `validate:"min=1"`
		Timeout   time.Duration `validate:"gt=0"`
	}

	Retry struct {
		MaxRetries int           `validate:"min=0"`
		Delay      time.Duration `validate:"gte=0"`
		Multiplier float64       `validate:"gte=1"`
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.Server.Listen = getEnv("LISTEN_ADDR", ":8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.Display.Dwell = parseDuration(getEnv("DISPLAY_DWELL", "15s"))
	cfg.Display.RefreshInterval = parseDuration(getEnv("REFRESH_INTERVAL", "5m"))
	cfg.Display.FPS = parseInt(getEnv("DISPLAY_FPS", "30"))
	cfg.Display.Width = parseInt(getEnv("DISPLAY_WIDTH", "64"))
	cfg.Display.ANSI = parseBool(getEnv("DISPLAY_ANSI", "true"))

	cfg.Location.Latitude = parseOptionalFloat(getEnv("LATITUDE", ""))
	cfg.Location.Longitude = parseOptionalFloat(getEnv("LONGITUDE", ""))
	cfg.Location.SettingsPath = getEnv("SETTINGS_PATH", "")

	cfg.WeatherAPI.UserAgent = getEnv("USER_AGENT", DefaultUserAgent)
	cfg.WeatherAPI.Timeout = parseDuration(getEnv("API_TIMEOUT", "10s"))
	cfg.WeatherAPI.NOAAURL = getEnv("NOAA_URL", "https://api.weather.gov")
	cfg.WeatherAPI.OpenMeteoURL = getEnv("OPENMETEO_URL", "https://api.open-meteo.com/v1")
	cfg.WeatherAPI.AirQualityURL = getEnv("AIR_QUALITY_URL", "https://air-quality-api.open-meteo.com/v1")
	cfg.WeatherAPI.NominatimURL = getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	cfg.WeatherAPI.GeoPrimaryURL = getEnv("GEO_PRIMARY_URL", "https://ipapi.co/json/")
	cfg.WeatherAPI.GeoSecondaryURL = getEnv("GEO_SECONDARY_URL", "http://ip-api.com/json/")

	cfg.News.MSNURL = getEnv("NEWS_MSN_URL", DefaultMSNFeed)
	cfg.News.RedditURL = getEnv("NEWS_REDDIT_URL", DefaultRedditFeed)
	cfg.News.LocalURL = getEnv("NEWS_LOCAL_URL", DefaultLocalFeed)

	cfg.Scheduler.FetchTimeout = parseDuration(getEnv("FETCH_TIMEOUT", "60s"))
	cfg.Scheduler.HistorySpec = getEnv("HISTORY_SCHEDULE", "@hourly")
	cfg.Scheduler.NewsSpec = getEnv("NEWS_SCHEDULE", "@every 15m")
	cfg.Scheduler.PruneSpec = getEnv("PRUNE_SCHEDULE", "@every 10m")

	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "3"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "1s"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	return cfg, nil
}

var validate = validator.New()

// Validate checks ranges and required values once env and flags are merged.
func (c *Config) Validate() error {
	if (c.Location.Latitude == nil) != (c.Location.Longitude == nil) {
		return fmt.Errorf("invalid configuration: latitude and longitude must be given together")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

func parseOptionalFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return nil
	}
	return &floatValue
}

func parseBool(value string) bool {
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		zap.L().Warn("Failed to parse bool", zap.String("value", value), zap.Error(err))
		return false
	}
	return boolValue
}
