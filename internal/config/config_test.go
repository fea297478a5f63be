// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	const (
		expectLogLevel        = slog.LevelInfo
		expectPlatform        = "android"
		expectAPILevel        = 29
		expectUserDescription = "test-user"
		expectTripLabel       = "test-trip"
		expectStorageDriver   = "file"
		expectStatusRefresh   = time.Second * 30
		expectTrackingMode    = "ACTIVE"
	)
	t.Run("new config with all defaults set", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.Platform.OS != expectPlatform {
			t.Errorf("expected platform to be: %s, got %s", expectPlatform, conf.Platform.OS)
		}
		if conf.Platform.APILevel != expectAPILevel {
			t.Errorf("expected API level to be: %d, got %d", expectAPILevel, conf.Platform.APILevel)
		}
		if conf.SDK.UserDescription != expectUserDescription {
			t.Errorf("expected user description to be: %s, got %s", expectUserDescription,
				conf.SDK.UserDescription)
		}
		if conf.SDK.TripLabel != expectTripLabel {
			t.Errorf("expected trip label to be: %s, got %s", expectTripLabel, conf.SDK.TripLabel)
		}
		if conf.Storage.Driver != expectStorageDriver {
			t.Errorf("expected storage driver to be: %s, got %s", expectStorageDriver, conf.Storage.Driver)
		}
		if !strings.HasSuffix(conf.Storage.Path, filepath.Join("roam-tripdemo", "settings.json")) {
			t.Errorf("expected default settings path, got %s", conf.Storage.Path)
		}
		if conf.Intervals.StatusRefresh != expectStatusRefresh {
			t.Errorf("expected status refresh interval to be: %s, got %s", expectStatusRefresh,
				conf.Intervals.StatusRefresh)
		}
		if conf.Tracking.Mode != expectTrackingMode {
			t.Errorf("expected tracking mode to be: %s, got %s", expectTrackingMode, conf.Tracking.Mode)
		}
		if conf.SDK.DisableOfflineTrip {
			t.Error("expected offline trips to be enabled by default")
		}
	})
	t.Run("values from env are normalized", func(t *testing.T) {
		t.Setenv("ROAMDEMO_PLATFORM_OS", "iOS")
		t.Setenv("ROAMDEMO_TRACKING_MODE", "distance")
		t.Setenv("ROAMDEMO_TRACKING_SOURCE", "last_known")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Platform.OS != "ios" {
			t.Errorf("expected platform to be ios, got %s", conf.Platform.OS)
		}
		if conf.Tracking.Mode != "DISTANCE" {
			t.Errorf("expected tracking mode to be DISTANCE, got %s", conf.Tracking.Mode)
		}
		if conf.Tracking.Source != "LAST_KNOWN" {
			t.Errorf("expected tracking source to be LAST_KNOWN, got %s", conf.Tracking.Source)
		}
	})
	t.Run("invalid values fail validation", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			value string
		}{
			{"log level", "ROAMDEMO_LOGLEVEL", "invalid"},
			{"platform", "ROAMDEMO_PLATFORM_OS", "windows"},
			{"api level", "ROAMDEMO_PLATFORM_API_LEVEL", "-1"},
			{"storage driver", "ROAMDEMO_STORAGE_DRIVER", "redis"},
			{"sql storage without DSN", "ROAMDEMO_STORAGE_DRIVER", "mysql"},
			{"tracking mode", "ROAMDEMO_TRACKING_MODE", "TURBO"},
			{"tracking source", "ROAMDEMO_TRACKING_SOURCE", "WIFI"},
			{"time interval", "ROAMDEMO_TRACKING_TIME_INTERVAL", "0"},
			{"distance interval", "ROAMDEMO_TRACKING_DISTANCE_INTERVAL", "0"},
			{"status refresh", "ROAMDEMO_INTERVALS_STATUS_REFRESH", "-1s"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				t.Setenv(tc.key, tc.value)
				if _, err := New(); err == nil {
					t.Error("expected config to fail, but didn't")
				}
			})
		}
	})
	t.Run("sql storage with DSN succeeds", func(t *testing.T) {
		t.Setenv("ROAMDEMO_STORAGE_DRIVER", "postgres")
		t.Setenv("ROAMDEMO_STORAGE_DSN", "postgres://demo@localhost/demo")
		if _, err := New(); err != nil {
			t.Errorf("failed to load config: %s", err)
		}
	})
}

func TestNewFromFile(t *testing.T) {
	t.Run("reading config from valid file succeeds", func(t *testing.T) {
		conf, err := NewFromFile("../../etc", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Platform.APILevel != 31 {
			t.Errorf("expected API level to be: %d, got %d", 31, conf.Platform.APILevel)
		}
		if conf.Storage.Driver != "memory" {
			t.Errorf("expected storage driver to be: memory, got %s", conf.Storage.Driver)
		}
		if conf.Tracking.Mode != "TIME" {
			t.Errorf("expected tracking mode to be: TIME, got %s", conf.Tracking.Mode)
		}
		if conf.Tracking.Source != "GPS" {
			t.Errorf("expected tracking source to be: GPS, got %s", conf.Tracking.Source)
		}
	})
	t.Run("reading config from non-existent file fails", func(t *testing.T) {
		_, err := NewFromFile("../../etc", "non-existent.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("reading invalid config file fails", func(t *testing.T) {
		_, err := NewFromFile("../../testdata", "invalid.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}
