package config

import (
	"github.com/alecthomas/kong"
)

// CLI flags override values loaded from the environment.
type CLI struct {
	Lat      *float64         `help:"Latitude of the forecast location" placeholder:"DEG"`
	Lon      *float64         `help:"Longitude of the forecast location" placeholder:"DEG"`
	Settings string           `help:"Settings file path" type:"path"`
	LogLevel string           `name:"log-level" help:"Log level (debug, info, warn, error)"`
	Listen   string           `help:"Control API listen address, or \"off\" to disable"`
	FPS      int              `name:"fps" help:"Display frames per second"`
	Plain    bool             `help:"Disable ANSI screen clearing"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`
}

// Apply copies every flag that was set onto cfg.
func (c *CLI) Apply(cfg *Config) {
	if c.Lat != nil {
		cfg.Location.Latitude = c.Lat
	}
	if c.Lon != nil {
		cfg.Location.Longitude = c.Lon
	}
	if c.Settings != "" {
		cfg.Location.SettingsPath = c.Settings
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Listen != "" {
		cfg.Server.Listen = c.Listen
	}
	if c.FPS > 0 {
		cfg.Display.FPS = c.FPS
	}
	if c.Plain {
		cfg.Display.ANSI = false
	}
}
