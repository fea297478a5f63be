// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
)

func TestNew(t *testing.T) {
	source := New("localhost", "2947", logger.New(slog.LevelInfo))
	if source == nil {
		t.Fatal("expected source to be non-nil")
	}
	if source.addr != "localhost:2947" {
		t.Errorf("expected address localhost:2947, got %s", source.addr)
	}
	if source.Name() != name {
		t.Errorf("expected name %s, got %s", name, source.Name())
	}
}

func TestSource_Stream(t *testing.T) {
	t.Run("connection fails on first run but then emits 2D fixes only", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			buf := bytes.NewBuffer(nil)
			source := New("localhost", "2947", logger.NewLogger(slog.LevelDebug, buf))
			source.period = time.Millisecond * 10
			runs := 0
			source.watchFn = func(_ string, onTPV func(*gpsd.TPVReport)) (chan bool, error) {
				runs++
				if runs == 1 {
					return nil, errors.New("intentionally failing")
				}
				done := make(chan bool)
				go func() {
					onTPV(&gpsd.TPVReport{Mode: gpsd.NoFix, Lat: 1, Lon: 1})
					onTPV(&gpsd.TPVReport{Mode: gpsd.Mode2D, Lat: 51, Lon: 7, Epx: 3, Epy: 4})
				}()
				return done, nil
			}

			var got sdk.Location
			select {
			case got = <-source.Stream(ctx):
				cancel()
			case <-ctx.Done():
				t.Fatalf("context done before result: %s", ctx.Err())
			}
			synctest.Wait()

			if got.Latitude != 51 || got.Longitude != 7 {
				t.Errorf("expected 51,7, got %f,%f", got.Latitude, got.Longitude)
			}
			if got.Accuracy != 5 {
				t.Errorf("expected accuracy 5, got %f", got.Accuracy)
			}
			if got.Source != name {
				t.Errorf("expected source %s, got %s", name, got.Source)
			}
			if !bytes.Contains(buf.Bytes(), []byte("failed to connect to gpsd")) {
				t.Errorf("expected connection failure to be logged, got: %s", buf.String())
			}
		})
	})
	t.Run("stream closes when context is canceled", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			source := New("localhost", "2947", logger.NewLogger(slog.LevelDebug, bytes.NewBuffer(nil)))
			source.watchFn = func(string, func(*gpsd.TPVReport)) (chan bool, error) {
				return make(chan bool), nil
			}
			out := source.Stream(ctx)
			cancel()
			synctest.Wait()
			if _, ok := <-out; ok {
				t.Error("expected stream to be closed")
			}
		})
	})
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name string
		tpv  gpsd.TPVReport
		want float64
	}{
		{"epx and epy", gpsd.TPVReport{Mode: gpsd.Mode3D, Epx: 8.1, Epy: 11.4}, math.Hypot(8.1, 11.4)},
		{"3d fallback", gpsd.TPVReport{Mode: gpsd.Mode3D}, 10},
		{"2d fallback", gpsd.TPVReport{Mode: gpsd.Mode2D}, 25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := accuracy(&tc.tpv); got != tc.want {
				t.Errorf("expected %f, got %f", tc.want, got)
			}
		})
	}
}
