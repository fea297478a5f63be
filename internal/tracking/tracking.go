// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package tracking starts and stops SDK location tracking and manages its configuration.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/settle"
)

// Mode is a tracking mode.
type Mode string

const (
	ModeActive   Mode = "ACTIVE"
	ModeBalanced Mode = "BALANCED"
	ModePassive  Mode = "PASSIVE"
	ModeTime     Mode = "TIME"
	ModeDistance Mode = "DISTANCE"
)

// Parameters of the interval based modes.
const (
	StationaryRadius  = 20
	CustomAccuracy    = 50
	CustomDistanceMin = 10
)

// ErrUnknownMode is returned by Start for an unknown mode.
var ErrUnknownMode = errors.New("unknown tracking mode")

// ParseMode parses a case-insensitive mode name.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToUpper(strings.TrimSpace(s)))
	switch mode {
	case ModeActive, ModeBalanced, ModePassive, ModeTime, ModeDistance:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, s)
	}
}

// Options selects the tracking mode. TimeInterval is in seconds, DistanceInterval in meters.
type Options struct {
	Mode             Mode
	TimeInterval     int
	DistanceInterval int
}

// ConfigOptions are the tracking configuration parameters.
type ConfigOptions struct {
	Accuracy       int
	Timeout        int
	Source         sdk.LocationSource
	KeepInaccurate bool
}

// Tracker issues the tracking calls for one platform.
type Tracker struct {
	sdk    sdk.SDK
	ios    bool
	logger *logger.Logger
}

// New returns a Tracker for the platform os (android or ios).
func New(client sdk.SDK, os string, log *logger.Logger) *Tracker {
	return &Tracker{
		sdk:    client,
		ios:    strings.EqualFold(os, "ios"),
		logger: log,
	}
}

// Start turns on publishing and offline tracking, then starts tracking in the selected mode.
// Interval modes use a custom request on iOS and the interval calls everywhere else.
func (t *Tracker) Start(opts Options) error {
	switch opts.Mode {
	case ModeActive, ModeBalanced, ModePassive, ModeTime, ModeDistance:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMode, opts.Mode)
	}

	t.sdk.PublishAndSave(nil)
	t.sdk.OfflineLocationTracking(true)

	switch opts.Mode {
	case ModeActive:
		t.sdk.StartTracking(sdk.TrackingModeActive)
	case ModeBalanced:
		t.sdk.StartTracking(sdk.TrackingModeBalanced)
	case ModePassive:
		t.sdk.StartTracking(sdk.TrackingModePassive)
	case ModeTime:
		if t.ios {
			custom := customOptions()
			custom.UpdateInterval = opts.TimeInterval
			t.sdk.StartTrackingCustom(custom)
			break
		}
		t.sdk.StartTrackingTimeInterval(opts.TimeInterval, sdk.DesiredAccuracyHigh)
	case ModeDistance:
		if t.ios {
			custom := customOptions()
			custom.DistanceFilter = max(opts.DistanceInterval, CustomDistanceMin)
			t.sdk.StartTrackingCustom(custom)
			break
		}
		t.sdk.StartTrackingDistanceInterval(opts.DistanceInterval, StationaryRadius, sdk.DesiredAccuracyHigh)
	}

	t.logger.Info("location tracking started", slog.String("mode", string(opts.Mode)),
		slog.Bool("ios", t.ios))
	return nil
}

// Stop stops publishing and tracking.
func (t *Tracker) Stop() {
	t.sdk.StopPublishing()
	t.sdk.StopTracking()
	t.logger.Info("location tracking stopped")
}

// IsTracking reports whether the SDK is tracking.
func (t *Tracker) IsTracking(ctx context.Context) (bool, error) {
	return settle.Do(ctx, func(resolve func(bool), _ func(error)) {
		t.sdk.IsLocationTracking(resolve)
	})
}

// SetConfig applies a tracking configuration. The location source is not sent on iOS.
func (t *Tracker) SetConfig(ctx context.Context, opts ConfigOptions) (sdk.TrackingConfig, error) {
	conf := sdk.TrackingConfig{
		Accuracy:        opts.Accuracy,
		Timeout:         opts.Timeout,
		DiscardLocation: !opts.KeepInaccurate,
	}
	if !t.ios {
		conf.Source = opts.Source
	}
	return configCall(ctx, func(ok func(sdk.TrackingConfig), fail func(sdk.Error)) {
		t.sdk.SetTrackingConfig(conf, ok, fail)
	})
}

// Config returns the tracking configuration.
func (t *Tracker) Config(ctx context.Context) (sdk.TrackingConfig, error) {
	return configCall(ctx, t.sdk.GetTrackingConfig)
}

// ResetConfig restores the default tracking configuration.
func (t *Tracker) ResetConfig(ctx context.Context) (sdk.TrackingConfig, error) {
	return configCall(ctx, t.sdk.ResetTrackingConfig)
}

func configCall(ctx context.Context, call func(func(sdk.TrackingConfig), func(sdk.Error))) (sdk.TrackingConfig, error) {
	return settle.Do(ctx, func(resolve func(sdk.TrackingConfig), reject func(error)) {
		call(resolve, func(err sdk.Error) { reject(err) })
	})
}

func customOptions() sdk.CustomTrackingOptions {
	return sdk.CustomTrackingOptions{
		AllowBackgroundUpdates:  true,
		Activity:                sdk.ActivityTypeFitness,
		Accuracy:                sdk.DesiredAccuracyBest,
		ShowBackgroundIndicator: true,
		AccuracyFilter:          CustomAccuracy,
	}
}
