// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gpspoll reads a single fix from gpsd. It backs the current location requests of the
// loopback SDK.
package gpspoll

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/wneessen/roam-tripdemo/internal/sdk"
)

const (
	fallbackAccuracy3DFix = 10  // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25  // worse than 3D, but still accurate enough
	fallbackAccuracyNoFix = 1e6 // effectively unusable
	watchTimeout          = time.Second * 2
	sourceName            = "gpsd"
)

var (
	ErrNoFix         = errors.New("gpspoll: no usable fix")
	ErrNotAccurate   = errors.New("gpspoll: fix is not accurate enough")
	ErrNoTPVResponse = errors.New("gpspoll: no TPV response received from gpsd")
)

// Client is a minimal gpsd client
type Client struct {
	Addr string
}

// Fix represents a single GPS fix from gpsd.
type Fix struct {
	Lat   float64
	Lon   float64
	Alt   float64
	Acc   float64
	Speed float64
	Mode  int
	Time  time.Time
}

type tpvResponse struct {
	Class string    `json:"class"`
	Time  time.Time `json:"time"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	Alt   float64   `json:"alt"`
	Speed float64   `json:"speed"`
	Mode  int       `json:"mode"`
	Epx   float64   `json:"epx"`
	Epy   float64   `json:"epy"`
	Eph   float64   `json:"eph"`
}

// New constructs a new Client for the given host and port.
func New(host, port string) *Client {
	return &Client{
		Addr: net.JoinHostPort(host, port),
	}
}

// Poll connects to gpsd, enables WATCH and returns the first TPV report. The connection is
// closed before returning.
func (c *Client) Poll(ctx context.Context) (Fix, error) {
	var zero Fix

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return zero, fmt.Errorf("gpspoll: dial gpsd: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// Without a deadline on ctx a silent gpsd would block forever
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(watchTimeout))
	}

	if _, err = fmt.Fprint(conn, `?WATCH={"enable":true,"json":true}`+"\n"); err != nil {
		return zero, fmt.Errorf("gpspoll: write WATCH: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		var resp tpvResponse
		if err = json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		if resp.Class != "TPV" {
			continue
		}

		return Fix{
			Lat:   resp.Lat,
			Lon:   resp.Lon,
			Alt:   resp.Alt,
			Acc:   horizontalAccuracyMeters(resp),
			Speed: resp.Speed,
			Mode:  resp.Mode,
			Time:  resp.Time,
		}, nil
	}

	if err = scanner.Err(); err != nil {
		return zero, fmt.Errorf("gpspoll: scan gpsd response: %w", err)
	}
	return zero, ErrNoTPVResponse
}

// Current polls gpsd and returns the fix as an SDK location. Fixes without at least a 2D fix
// or with an accuracy worse than minAccuracy meters are rejected. A minAccuracy of 0 accepts
// any accuracy.
func (c *Client) Current(ctx context.Context, minAccuracy float64) (sdk.Location, error) {
	fix, err := c.Poll(ctx)
	if err != nil {
		return sdk.Location{}, err
	}
	if !fix.Has2DFix() {
		return sdk.Location{}, ErrNoFix
	}
	if minAccuracy > 0 && fix.Acc > minAccuracy {
		return sdk.Location{}, fmt.Errorf("%w: %.1fm > %.1fm", ErrNotAccurate, fix.Acc, minAccuracy)
	}
	return fix.Location(), nil
}

// Has2DFix reports whether the fix has at least a 2D fix.
func (f Fix) Has2DFix() bool {
	return f.Mode >= 2
}

// Location converts the fix into an SDK location.
func (f Fix) Location() sdk.Location {
	recorded := f.Time
	if recorded.IsZero() {
		recorded = time.Now()
	}
	return sdk.Location{
		Latitude:   f.Lat,
		Longitude:  f.Lon,
		Altitude:   f.Alt,
		Accuracy:   f.Acc,
		Speed:      f.Speed,
		Source:     sourceName,
		RecordedAt: recorded,
	}
}

func horizontalAccuracyMeters(tpv tpvResponse) float64 {
	switch {
	case tpv.Eph > 0:
		return tpv.Eph
	case tpv.Epx > 0 && tpv.Epy > 0:
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	switch tpv.Mode {
	case 3:
		return fallbackAccuracy3DFix
	case 2:
		return fallbackAccuracy2DFix
	default:
		return fallbackAccuracyNoFix
	}
}
