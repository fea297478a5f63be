// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gpsd streams TPV reports from a gpsd daemon as SDK locations.
package gpsd

import (
	"context"
	"log/slog"
	"math"
	"net"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
)

const name = "gpsd"

// watchFunc connects to gpsd at addr, installs onTPV as TPV handler and starts watching. The
// returned channel fires when the watch ends.
type watchFunc func(addr string, onTPV func(*gpsd.TPVReport)) (chan bool, error)

// Source streams gpsd fixes with at least a 2D fix.
type Source struct {
	addr    string
	logger  *logger.Logger
	period  time.Duration
	watchFn watchFunc
}

// New returns a Source for the gpsd daemon at host:port.
func New(host, port string, log *logger.Logger) *Source {
	return &Source{
		addr:    net.JoinHostPort(host, port),
		logger:  log,
		period:  time.Second * 30,
		watchFn: watchGPSD,
	}
}

func (s *Source) Name() string {
	return name
}

// Stream connects to gpsd and emits a location for every TPV report with at least a 2D fix.
// Lost or failed connections are retried after the source period.
func (s *Source) Stream(ctx context.Context) <-chan sdk.Location {
	out := make(chan sdk.Location)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			done, err := s.watchFn(s.addr, func(tpv *gpsd.TPVReport) {
				if tpv.Mode < gpsd.Mode2D {
					return
				}
				select {
				case <-ctx.Done():
				case out <- locationFromTPV(tpv):
				}
			})
			if err != nil {
				s.logger.Warn("failed to connect to gpsd", logger.Err(err), slog.String("addr", s.addr))
			} else {
				select {
				case <-ctx.Done():
					// go-gpsd has no Close(); the session ends with the process
					return
				case <-done:
					s.logger.Debug("gpsd watch ended, reconnecting", slog.String("addr", s.addr))
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.period):
			}
		}
	}()

	return out
}

func watchGPSD(addr string, onTPV func(*gpsd.TPVReport)) (chan bool, error) {
	session, err := gpsd.Dial(addr)
	if err != nil {
		return nil, err
	}
	session.AddFilter("TPV", func(r interface{}) {
		if tpv, ok := r.(*gpsd.TPVReport); ok {
			onTPV(tpv)
		}
	})
	return session.Watch(), nil
}

func locationFromTPV(tpv *gpsd.TPVReport) sdk.Location {
	recorded := tpv.Time
	if recorded.IsZero() {
		recorded = time.Now()
	}
	return sdk.Location{
		Latitude:   tpv.Lat,
		Longitude:  tpv.Lon,
		Altitude:   tpv.Alt,
		Accuracy:   accuracy(tpv),
		Speed:      tpv.Speed,
		Source:     name,
		RecordedAt: recorded,
	}
}

func accuracy(tpv *gpsd.TPVReport) float64 {
	if tpv.Epx > 0 && tpv.Epy > 0 {
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	if tpv.Mode >= gpsd.Mode3D {
		return 10
	}
	return 25
}
