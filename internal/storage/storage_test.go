// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestOpen(t *testing.T) {
	t.Run("memory and file drivers open", func(t *testing.T) {
		tests := []struct {
			driver string
		}{
			{"memory"},
			{"file"},
			{"FILE"},
		}
		for _, tc := range tests {
			t.Run(tc.driver, func(t *testing.T) {
				store, err := Open(t.Context(), tc.driver, filepath.Join(t.TempDir(), "settings.json"), "")
				if err != nil {
					t.Fatalf("failed to open store: %s", err)
				}
				if store == nil {
					t.Fatal("expected store to be non-nil")
				}
			})
		}
	})
	t.Run("unsupported driver fails", func(t *testing.T) {
		if _, err := Open(t.Context(), "redis", "", ""); err == nil {
			t.Error("expected open to fail for unsupported driver")
		}
	})
	t.Run("mysql with invalid DSN fails", func(t *testing.T) {
		if _, err := Open(t.Context(), "mysql", "", "invalid"); err == nil {
			t.Error("expected open to fail for invalid MySQL DSN")
		}
	})
}

func TestMemory(t *testing.T) {
	store := NewMemory()
	if _, err := store.Get(t.Context(), KeyUserID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing key, got %v", err)
	}
	if err := store.Set(t.Context(), KeyUserID, "user-1"); err != nil {
		t.Fatalf("failed to set value: %s", err)
	}
	got, err := store.Get(t.Context(), KeyUserID)
	if err != nil {
		t.Fatalf("failed to get value: %s", err)
	}
	if got != "user-1" {
		t.Errorf("expected %q, got %q", "user-1", got)
	}
	if store.Writes(KeyUserID) != 1 {
		t.Errorf("expected 1 write, got %d", store.Writes(KeyUserID))
	}
	if store.Writes(KeyTripID) != 0 {
		t.Errorf("expected 0 writes, got %d", store.Writes(KeyTripID))
	}
}

func TestFile(t *testing.T) {
	t.Run("values survive reopening", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "settings.json")
		store, err := NewFile(path)
		if err != nil {
			t.Fatalf("failed to open file store: %s", err)
		}
		if err = store.Set(t.Context(), KeyTripID, "trip-1"); err != nil {
			t.Fatalf("failed to set value: %s", err)
		}
		if err = store.Set(t.Context(), KeyUserID, "user-1"); err != nil {
			t.Fatalf("failed to set value: %s", err)
		}

		reopened, err := NewFile(path)
		if err != nil {
			t.Fatalf("failed to reopen file store: %s", err)
		}
		for key, want := range map[string]string{KeyTripID: "trip-1", KeyUserID: "user-1"} {
			got, err := reopened.Get(t.Context(), key)
			if err != nil {
				t.Fatalf("failed to get %s: %s", key, err)
			}
			if got != want {
				t.Errorf("expected %s to be %q, got %q", key, want, got)
			}
		}
	})
	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		store, err := NewFile(filepath.Join(t.TempDir(), "settings.json"))
		if err != nil {
			t.Fatalf("failed to open file store: %s", err)
		}
		if _, err = store.Get(t.Context(), KeyUserID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
	t.Run("empty path fails", func(t *testing.T) {
		if _, err := NewFile(""); err == nil {
			t.Error("expected empty path to fail")
		}
	})
	t.Run("broken JSON fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		if err := os.WriteFile(path, []byte("{invalid"), 0o600); err != nil {
			t.Fatalf("failed to write test file: %s", err)
		}
		if _, err := NewFile(path); err == nil {
			t.Error("expected broken JSON to fail")
		}
	})
	t.Run("empty file is treated as empty store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("failed to write test file: %s", err)
		}
		if _, err := NewFile(path); err != nil {
			t.Errorf("expected empty file to open, got %s", err)
		}
	})
}

func TestSQL(t *testing.T) {
	dialects := []Dialect{DialectMySQL, DialectPostgres}
	for _, dialect := range dialects {
		t.Run(dialect.Name+" set and get", func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock init error: %s", err)
			}
			mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_settings").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("INSERT INTO kv_settings").WithArgs(KeyUserID, "user-1").
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectQuery("SELECT setting_value FROM kv_settings").WithArgs(KeyUserID).
				WillReturnRows(sqlmock.NewRows([]string{"setting_value"}).AddRow("user-1"))
			mock.ExpectQuery("SELECT setting_value FROM kv_settings").WithArgs(KeyTripID).
				WillReturnRows(sqlmock.NewRows([]string{"setting_value"}))
			mock.ExpectClose()

			store, err := NewSQL(t.Context(), db, dialect)
			if err != nil {
				t.Fatalf("failed to create SQL store: %s", err)
			}
			if err = store.Set(t.Context(), KeyUserID, "user-1"); err != nil {
				t.Fatalf("failed to set value: %s", err)
			}
			got, err := store.Get(t.Context(), KeyUserID)
			if err != nil {
				t.Fatalf("failed to get value: %s", err)
			}
			if got != "user-1" {
				t.Errorf("expected %q, got %q", "user-1", got)
			}
			if _, err = store.Get(t.Context(), KeyTripID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if err = store.Close(); err != nil {
				t.Errorf("failed to close store: %s", err)
			}
			if err = mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %s", err)
			}
		})
	}
	t.Run("table creation failure is returned", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock init error: %s", err)
		}
		defer func() { _ = db.Close() }()
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
		if _, err = NewSQL(t.Context(), db, DialectMySQL); err == nil {
			t.Error("expected table creation failure")
		}
	})
	t.Run("write failure is returned", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock init error: %s", err)
		}
		defer func() { _ = db.Close() }()
		mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO kv_settings").WillReturnError(errors.New("read-only"))
		store, err := NewSQL(t.Context(), db, DialectPostgres)
		if err != nil {
			t.Fatalf("failed to create SQL store: %s", err)
		}
		if err = store.Set(t.Context(), KeyTripID, "trip-1"); err == nil {
			t.Error("expected write failure")
		}
	})
}
