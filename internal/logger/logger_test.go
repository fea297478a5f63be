// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	if New(slog.LevelInfo) == nil {
		t.Fatal("expected logger to be non-nil")
	}
}

func TestNewLogger(t *testing.T) {
	// One record per level, as the adapter and reconciler emit them.
	records := []struct {
		level slog.Level
		msg   string
	}{
		{slog.LevelDebug, "trip transition"},
		{slog.LevelInfo, "location tracking started"},
		{slog.LevelWarn, "best-effort trip cleanup failed"},
		{slog.LevelError, "failed to persist identifier"},
	}
	tests := []struct {
		name  string
		level slog.Level
		want  int
	}{
		{"debug logs every record", slog.LevelDebug, 4},
		{"info skips transitions", slog.LevelInfo, 3},
		{"warn keeps failures only", slog.LevelWarn, 2},
		{"error keeps persistence failures", slog.LevelError, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			l := NewLogger(tc.level, buf)
			for _, r := range records {
				l.Log(t.Context(), r.level, r.msg, slog.String("trip_id", "trip-1"),
					slog.String("operation", "stopTrip"))
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if buf.Len() == 0 {
				lines = nil
			}
			if len(lines) != tc.want {
				t.Fatalf("expected %d records, got %d: %q", tc.want, len(lines), buf.String())
			}
			for i, line := range lines {
				r := records[len(records)-tc.want+i]
				if !strings.Contains(line, `msg="`+r.msg+`"`) {
					t.Errorf("expected record %q, got: %q", r.msg, line)
				}
				if !strings.Contains(line, "trip_id=trip-1 operation=stopTrip") {
					t.Errorf("expected trip and operation attributes, got: %q", line)
				}
			}
		})
	}
}

func TestErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sdk rejection", errors.New("GS402"), `error=GS402`},
		{"wrapped failure", errors.New("failed to sync trip: trip not found"),
			`error="failed to sync trip: trip not found"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			l := NewLogger(slog.LevelDebug, buf)
			l.Warn("best-effort trip cleanup failed", slog.String("operation", "syncTrip"), Err(tc.err))
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("expected %q in log output, got: %q", tc.want, buf.String())
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	l := &Logger{NewLogger(slog.LevelDebug, buf).With(slog.String("trip_id", "trip-1"))}
	l.Info("trip stopped", slog.String("state", "STOPPED"))

	if !strings.Contains(buf.String(), "trip_id=trip-1 state=STOPPED") {
		t.Errorf("expected trip attributes in log output, got: %q", buf.String())
	}
}
