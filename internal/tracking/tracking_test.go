// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package tracking

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"testing"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/sdk/loopback"
)

// recorder records the tracking calls. Unused methods panic through the nil interface.
type recorder struct {
	sdk.SDK
	calls  []string
	custom sdk.CustomTrackingOptions
	conf   sdk.TrackingConfig
}

func (r *recorder) PublishAndSave(map[string]any) { r.calls = append(r.calls, "publish") }
func (r *recorder) OfflineLocationTracking(b bool) {
	r.calls = append(r.calls, fmt.Sprintf("offline:%t", b))
}
func (r *recorder) StopPublishing()                  { r.calls = append(r.calls, "stop-publishing") }
func (r *recorder) StopTracking()                    { r.calls = append(r.calls, "stop-tracking") }
func (r *recorder) StartTracking(m sdk.TrackingMode) { r.calls = append(r.calls, "preset:"+string(m)) }

func (r *recorder) StartTrackingCustom(opts sdk.CustomTrackingOptions) {
	r.custom = opts
	r.calls = append(r.calls, "custom")
}

func (r *recorder) StartTrackingTimeInterval(seconds int, acc sdk.DesiredAccuracy) {
	r.calls = append(r.calls, fmt.Sprintf("time:%d:%s", seconds, acc))
}

func (r *recorder) StartTrackingDistanceInterval(meters, stationary int, acc sdk.DesiredAccuracy) {
	r.calls = append(r.calls, fmt.Sprintf("distance:%d:%d:%s", meters, stationary, acc))
}

func (r *recorder) SetTrackingConfig(conf sdk.TrackingConfig, ok func(sdk.TrackingConfig), _ func(sdk.Error)) {
	r.conf = conf
	ok(conf)
}

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, bytes.NewBuffer(nil))
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" time ")
	if err != nil {
		t.Fatalf("failed to parse mode: %s", err)
	}
	if mode != ModeTime {
		t.Errorf("expected mode %s, got %s", ModeTime, mode)
	}
	if _, err = ParseMode("walking"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestTracker_Start(t *testing.T) {
	tests := []struct {
		name string
		os   string
		opts Options
		want []string
	}{
		{"active preset", "android", Options{Mode: ModeActive}, []string{"publish", "offline:true", "preset:ACTIVE"}},
		{"passive preset on ios", "ios", Options{Mode: ModePassive}, []string{"publish", "offline:true", "preset:PASSIVE"}},
		{
			"time interval on android", "android", Options{Mode: ModeTime, TimeInterval: 5},
			[]string{"publish", "offline:true", "time:5:HIGH"},
		},
		{
			"distance interval on android", "android", Options{Mode: ModeDistance, DistanceInterval: 15},
			[]string{"publish", "offline:true", "distance:15:20:HIGH"},
		},
		{"time interval on ios", "ios", Options{Mode: ModeTime, TimeInterval: 5}, []string{"publish", "offline:true", "custom"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			if err := New(rec, tc.os, testLogger()).Start(tc.opts); err != nil {
				t.Fatalf("failed to start tracking: %s", err)
			}
			if !slices.Equal(rec.calls, tc.want) {
				t.Errorf("expected calls %v, got %v", tc.want, rec.calls)
			}
		})
	}

	t.Run("ios custom options", func(t *testing.T) {
		rec := &recorder{}
		if err := New(rec, "ios", testLogger()).Start(Options{Mode: ModeDistance, DistanceInterval: 3}); err != nil {
			t.Fatalf("failed to start tracking: %s", err)
		}
		if rec.custom.Activity != sdk.ActivityTypeFitness || rec.custom.Accuracy != sdk.DesiredAccuracyBest {
			t.Errorf("unexpected custom options: %+v", rec.custom)
		}
		if rec.custom.AccuracyFilter != CustomAccuracy {
			t.Errorf("expected accuracy filter %d, got %d", CustomAccuracy, rec.custom.AccuracyFilter)
		}
		if rec.custom.DistanceFilter != CustomDistanceMin {
			t.Errorf("expected distance filter %d, got %d", CustomDistanceMin, rec.custom.DistanceFilter)
		}
	})
	t.Run("unknown mode issues nothing", func(t *testing.T) {
		rec := &recorder{}
		if err := New(rec, "android", testLogger()).Start(Options{Mode: "WALK"}); !errors.Is(err, ErrUnknownMode) {
			t.Errorf("expected ErrUnknownMode, got %v", err)
		}
		if len(rec.calls) != 0 {
			t.Errorf("expected no calls, got %v", rec.calls)
		}
	})
}

func TestTracker_Stop(t *testing.T) {
	rec := &recorder{}
	New(rec, "android", testLogger()).Stop()
	want := []string{"stop-publishing", "stop-tracking"}
	if !slices.Equal(rec.calls, want) {
		t.Errorf("expected calls %v, got %v", want, rec.calls)
	}
}

func TestTracker_SetConfig(t *testing.T) {
	opts := ConfigOptions{Accuracy: 20, Timeout: 5, Source: sdk.LocationSourceGPS}
	t.Run("android sends source", func(t *testing.T) {
		rec := &recorder{}
		conf, err := New(rec, "android", testLogger()).SetConfig(t.Context(), opts)
		if err != nil {
			t.Fatalf("failed to set config: %s", err)
		}
		if conf.Source != sdk.LocationSourceGPS || !conf.DiscardLocation {
			t.Errorf("unexpected config: %+v", conf)
		}
	})
	t.Run("ios omits source", func(t *testing.T) {
		rec := &recorder{}
		opts.KeepInaccurate = true
		if _, err := New(rec, "ios", testLogger()).SetConfig(t.Context(), opts); err != nil {
			t.Fatalf("failed to set config: %s", err)
		}
		if rec.conf.Source != "" || rec.conf.DiscardLocation {
			t.Errorf("unexpected config: %+v", rec.conf)
		}
	})
}

func TestTracker_WithLoopback(t *testing.T) {
	client := loopback.New(testLogger())
	tracker := New(client, "android", testLogger())
	ctx := t.Context()

	if err := tracker.Start(Options{Mode: ModeBalanced}); err != nil {
		t.Fatalf("failed to start tracking: %s", err)
	}
	tracking, err := tracker.IsTracking(ctx)
	if err != nil || !tracking {
		t.Errorf("expected tracking, got %t, %v", tracking, err)
	}
	tracker.Stop()
	if tracking, _ = tracker.IsTracking(ctx); tracking {
		t.Error("expected tracking to be stopped")
	}

	if _, err = tracker.SetConfig(ctx, ConfigOptions{Accuracy: 99, Timeout: 1}); err != nil {
		t.Fatalf("failed to set config: %s", err)
	}
	conf, err := tracker.Config(ctx)
	if err != nil || conf.Accuracy != 99 {
		t.Errorf("expected accuracy 99, got %+v, %v", conf, err)
	}
	if conf, err = tracker.ResetConfig(ctx); err != nil || conf != loopback.DefaultTrackingConfig {
		t.Errorf("expected default config, got %+v, %v", conf, err)
	}

	client.Fail(loopback.OpGetTrackingConfig, sdk.Error{Code: "GS777"})
	if _, err = tracker.Config(ctx); !errors.Is(err, sdk.ErrorCode("GS777")) {
		t.Errorf("expected GS777, got %v", err)
	}
}
