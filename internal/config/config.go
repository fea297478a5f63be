// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const configEnv = "ROAMDEMO"

// Config represents the application's configuration structure.
type Config struct {
	LogLevel slog.Level `fig:"loglevel" default:"0"`
	Locale   string     `fig:"locale"`

	Platform struct {
		// Allowed values: android, ios
		OS       string `fig:"os" default:"android"`
		APILevel int    `fig:"api_level" default:"29"`
	} `fig:"platform"`

	SDK struct {
		UserDescription     string `fig:"user_description" default:"test-user"`
		TripLabel           string `fig:"trip_label" default:"test-trip"`
		DisableOfflineTrip  bool   `fig:"disable_offline_trip"`
		DisableMockLocation bool   `fig:"disable_mock_location"`
	} `fig:"sdk"`

	Storage struct {
		// Allowed values: file, memory, mysql, postgres
		Driver string `fig:"driver" default:"file"`
		Path   string `fig:"path"`
		DSN    string `fig:"dsn"`
	} `fig:"storage"`

	API struct {
		Listen string `fig:"listen" default:"127.0.0.1:8087"`
	} `fig:"api"`

	Intervals struct {
		StatusRefresh time.Duration `fig:"status_refresh" default:"30s"`
	} `fig:"intervals"`

	GPSD struct {
		Host    string `fig:"host" default:"localhost"`
		Port    string `fig:"port" default:"2947"`
		Disable bool   `fig:"disable"`
	} `fig:"gpsd"`

	Events struct {
		AMQPURL  string `fig:"amqp_url"`
		Exchange string `fig:"exchange" default:"roam.session"`
	} `fig:"events"`

	Tracking struct {
		// Allowed values: ACTIVE, BALANCED, PASSIVE, TIME, DISTANCE
		Mode             string `fig:"mode" default:"ACTIVE"`
		TimeInterval     int    `fig:"time_interval" default:"5"`
		DistanceInterval int    `fig:"distance_interval" default:"10"`
		Accuracy         int    `fig:"accuracy" default:"10"`
		Timeout          int    `fig:"timeout" default:"10"`
		// Allowed values: ALL, LAST_KNOWN, GPS
		Source         string `fig:"source" default:"ALL"`
		KeepInaccurate bool   `fig:"keep_inaccurate"`
	} `fig:"tracking"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	c.Platform.OS = strings.ToLower(c.Platform.OS)
	if c.Platform.OS != "android" && c.Platform.OS != "ios" {
		return fmt.Errorf("invalid platform: %s", c.Platform.OS)
	}
	if c.Platform.APILevel < 0 {
		return fmt.Errorf("invalid API level: %d", c.Platform.APILevel)
	}
	if c.Locale == "" {
		c.Locale = getLocale()
	}

	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	switch c.Storage.Driver {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			home, _ := os.UserHomeDir()
			c.Storage.Path = filepath.Join(home, ".config", "roam-tripdemo", "settings.json")
		}
	case "mysql", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %s requires a DSN", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}

	if c.Intervals.StatusRefresh <= 0 {
		return fmt.Errorf("invalid status refresh interval: %s", c.Intervals.StatusRefresh)
	}

	c.Tracking.Mode = strings.ToUpper(c.Tracking.Mode)
	switch c.Tracking.Mode {
	case "ACTIVE", "BALANCED", "PASSIVE", "TIME", "DISTANCE":
	default:
		return fmt.Errorf("invalid tracking mode: %s", c.Tracking.Mode)
	}
	if c.Tracking.TimeInterval < 1 {
		return fmt.Errorf("invalid tracking time interval: %d", c.Tracking.TimeInterval)
	}
	if c.Tracking.DistanceInterval < 1 {
		return fmt.Errorf("invalid tracking distance interval: %d", c.Tracking.DistanceInterval)
	}
	c.Tracking.Source = strings.ToUpper(c.Tracking.Source)
	switch c.Tracking.Source {
	case "ALL", "LAST_KNOWN", "GPS":
	default:
		return fmt.Errorf("invalid tracking source: %s", c.Tracking.Source)
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
