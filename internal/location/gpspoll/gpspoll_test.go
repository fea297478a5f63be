// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpspoll

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"
	"testing"
	"time"
)

const (
	tpvFull  = `{"class":"TPV","device":"/dev/ttyACM0","mode":3,"time":"2025-11-24T10:44:41.000Z","lat":51.000000000,"lon":7.000000000,"alt":75.0000,"epx":8.100,"epy":11.400,"epv":27.600,"speed":0.229,"eph":17.670}`
	tpvNoFix = `{"class":"TPV","device":"/dev/ttyACM0","mode":1,"time":"2025-11-24T10:44:41.000Z","lat":51.0,"lon":7.0}`
)

func TestNew(t *testing.T) {
	client := New("localhost", "2947")
	if client == nil {
		t.Fatal("expected client to be non-nil")
	}
	if client.Addr != "localhost:2947" {
		t.Errorf("expected client address to be localhost:2947, got %s", client.Addr)
	}
}

func TestClient_Poll(t *testing.T) {
	t.Run("poll derives accuracy from the TPV report", func(t *testing.T) {
		tests := []struct {
			name string
			tpv  string
			acc  float64
			mode int
		}{
			{"eph present", tpvFull, 17.67, 3},
			{
				"no eph uses epx and epy",
				`{"class":"TPV","mode":3,"lat":51.0,"lon":7.0,"epx":8.100,"epy":11.400}`,
				math.Hypot(8.100, 11.400), 3,
			},
			{"3d fix fallback", `{"class":"TPV","mode":3,"lat":51.0,"lon":7.0}`, fallbackAccuracy3DFix, 3},
			{"2d fix fallback", `{"class":"TPV","mode":2,"lat":51.0,"lon":7.0}`, fallbackAccuracy2DFix, 2},
			{"no fix fallback", tpvNoFix, fallbackAccuracyNoFix, 1},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				client := New(splitAddr(t, startMockGPSD(t.Context(), t, tc.tpv)))
				fix, err := client.Poll(t.Context())
				if err != nil {
					t.Fatalf("failed to poll for fix: %s", err)
				}
				if fix.Lat != 51 || fix.Lon != 7 {
					t.Errorf("expected coordinates 51,7, got %f,%f", fix.Lat, fix.Lon)
				}
				if fix.Acc != tc.acc {
					t.Errorf("expected accuracy to be %f, got %f", tc.acc, fix.Acc)
				}
				if fix.Mode != tc.mode {
					t.Errorf("expected mode to be %d, got %d", tc.mode, fix.Mode)
				}
			})
		}
	})
	t.Run("poll with a canceled context fails", func(t *testing.T) {
		client := New(splitAddr(t, startMockGPSD(t.Context(), t, tpvFull)))
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := client.Poll(ctx); err == nil {
			t.Fatal("expected Poll() to fail with context canceled")
		}
	})
	t.Run("poll with broken JSON fails", func(t *testing.T) {
		client := New(splitAddr(t, startMockGPSD(t.Context(), t, "invalid")))
		if _, err := client.Poll(t.Context()); err == nil {
			t.Fatal("expected Poll() to fail on broken JSON")
		}
	})
	t.Run("poll without gpsd fails", func(t *testing.T) {
		ln, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			t.Fatalf("failed to listen: %s", err)
		}
		addr := ln.Addr().String()
		_ = ln.Close()
		if _, err = New(splitAddr(t, addr)).Poll(t.Context()); err == nil {
			t.Fatal("expected Poll() to fail without gpsd")
		}
	})
}

func TestClient_Current(t *testing.T) {
	t.Run("accurate fix is converted to a location", func(t *testing.T) {
		client := New(splitAddr(t, startMockGPSD(t.Context(), t, tpvFull)))
		loc, err := client.Current(t.Context(), 50)
		if err != nil {
			t.Fatalf("failed to get current location: %s", err)
		}
		if loc.Latitude != 51 || loc.Longitude != 7 || loc.Altitude != 75 {
			t.Errorf("unexpected location: %+v", loc)
		}
		if loc.Source != sourceName {
			t.Errorf("expected source %q, got %q", sourceName, loc.Source)
		}
		want := time.Date(2025, 11, 24, 10, 44, 41, 0, time.UTC)
		if !loc.RecordedAt.Equal(want) {
			t.Errorf("expected recorded time %s, got %s", want, loc.RecordedAt)
		}
	})
	t.Run("inaccurate fix is rejected", func(t *testing.T) {
		client := New(splitAddr(t, startMockGPSD(t.Context(), t, tpvFull)))
		if _, err := client.Current(t.Context(), 5); !errors.Is(err, ErrNotAccurate) {
			t.Errorf("expected ErrNotAccurate, got %v", err)
		}
	})
	t.Run("missing fix is rejected", func(t *testing.T) {
		client := New(splitAddr(t, startMockGPSD(t.Context(), t, tpvNoFix)))
		if _, err := client.Current(t.Context(), 0); !errors.Is(err, ErrNoFix) {
			t.Errorf("expected ErrNoFix, got %v", err)
		}
	})
}

func TestFix_Has2DFix(t *testing.T) {
	for mode, want := range map[int]bool{0: false, 1: false, 2: true, 3: true} {
		if got := (Fix{Mode: mode}).Has2DFix(); got != want {
			t.Errorf("expected Has2DFix() for mode %d to be %t, got %t", mode, want, got)
		}
	}
}

func splitAddr(t *testing.T, addr string) (string, string) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("failed to parse mock gpsd address: %s", err)
	}
	return host, port
}

func startMockGPSD(ctx context.Context, t *testing.T, tpv string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen for mock gpsd: %s", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		handleMockGPSDConnection(ctx, conn, t, tpv)
	}()

	t.Cleanup(func() {
		if closeErr := ln.Close(); closeErr != nil {
			t.Logf("failed to close mock gpsd listener: %s", closeErr)
		}
		wg.Wait()
	})

	return ln.Addr().String()
}

func handleMockGPSDConnection(ctx context.Context, conn net.Conn, t *testing.T, tpv string) {
	defer func() {
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(time.Millisecond * 200))
	_, _ = bufio.NewReader(conn).ReadString('\n')
	_ = conn.SetReadDeadline(time.Time{})

	lines := []string{
		`{"class":"VERSION","release":"gpsd 3.26","proto_major":3,"proto_minor":14}`,
		`{"class":"DEVICES","devices":[{"class":"DEVICE","path":"/dev/ttyACM0","driver":"MockGPS"}]}`,
		tpv,
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(conn, line); err != nil {
			t.Logf("failed to write mock gpsd line: %s", err)
			return
		}
	}
	// Keep the connection open until the client hung up or the test ends
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	select {
	case <-ctx.Done():
	default:
		_, _ = conn.Read(buf)
	}
}
