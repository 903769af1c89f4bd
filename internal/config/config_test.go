package config

import (
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 15*time.Second, cfg.Display.Dwell)
	assert.Equal(t, 5*time.Minute, cfg.Display.RefreshInterval)
	assert.Equal(t, 30, cfg.Display.FPS)
	assert.Nil(t, cfg.Location.Latitude)
	assert.Equal(t, "https://api.weather.gov", cfg.WeatherAPI.NOAAURL)
	assert.Equal(t, 3, cfg.CircuitBreaker.Threshold)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DISPLAY_DWELL", "8s")
	t.Setenv("LATITUDE", "40.7128")
	t.Setenv("LONGITUDE", "-74.0060")
	t.Setenv("DISPLAY_ANSI", "false")
	t.Setenv("NEWS_SCHEDULE", "*/5 * * * *")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.Display.Dwell)
	require.NotNil(t, cfg.Location.Latitude)
	assert.Equal(t, 40.7128, *cfg.Location.Latitude)
	assert.Equal(t, -74.006, *cfg.Location.Longitude)
	assert.False(t, cfg.Display.ANSI)
	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.NewsSpec)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"latitude out of range", func(c *Config) {
			lat, lon := 91.0, 0.0
			c.Location.Latitude, c.Location.Longitude = &lat, &lon
		}},
		{"latitude without longitude", func(c *Config) {
			lat := 10.0
			c.Location.Latitude = &lat
		}},
		{"bad duration", func(c *Config) { c.Display.Dwell = 0 }},
		{"fps too high", func(c *Config) { c.Display.FPS = 240 }},
		{"unknown log level", func(c *Config) { c.Server.LogLevel = "verbose" }},
		{"bad url", func(c *Config) { c.WeatherAPI.NOAAURL = "not a url" }},
		{"multiplier below one", func(c *Config) { c.Retry.Multiplier = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCLI_Apply(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--lat", "40.7128", "--lon=-74.006", "--fps", "10", "--plain", "--log-level", "debug", "--listen", "127.0.0.1:9000"})
	require.NoError(t, err)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	cli.Apply(cfg)

	require.NotNil(t, cfg.Location.Latitude)
	assert.Equal(t, 40.7128, *cfg.Location.Latitude)
	assert.Equal(t, -74.006, *cfg.Location.Longitude)
	assert.Equal(t, 10, cfg.Display.FPS)
	assert.False(t, cfg.Display.ANSI)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestCLI_NoFlagsKeepsEnv(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse(nil)
	require.NoError(t, err)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	before := *cfg
	cli.Apply(cfg)

	assert.Equal(t, before, *cfg)
}
