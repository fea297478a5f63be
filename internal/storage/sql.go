// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Dialect holds the statements that differ between the supported SQL databases.
type Dialect struct {
	Name   string
	Create string
	Select string
	Upsert string
}

var (
	DialectMySQL = Dialect{
		Name: "mysql",
		Create: `CREATE TABLE IF NOT EXISTS kv_settings (
	setting_key VARCHAR(64) NOT NULL PRIMARY KEY,
	setting_value TEXT NOT NULL
)`,
		Select: `SELECT setting_value FROM kv_settings WHERE setting_key = ?`,
		Upsert: `INSERT INTO kv_settings (setting_key, setting_value) VALUES (?, ?)
ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)`,
	}
	DialectPostgres = Dialect{
		Name: "postgres",
		Create: `CREATE TABLE IF NOT EXISTS kv_settings (
	setting_key VARCHAR(64) PRIMARY KEY,
	setting_value TEXT NOT NULL
)`,
		Select: `SELECT setting_value FROM kv_settings WHERE setting_key = $1`,
		Upsert: `INSERT INTO kv_settings (setting_key, setting_value) VALUES ($1, $2)
ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value`,
	}
)

// SQL is a Store backed by a single kv_settings table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL connects to the database described by dsn and prepares the settings table.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQL, error) {
	db, err := openDB(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to %s: %w", dialect.Name, err), db.Close())
	}
	store, err := NewSQL(ctx, db, dialect)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return store, nil
}

// NewSQL wraps an open database handle and makes sure the settings table exists.
func NewSQL(ctx context.Context, db *sql.DB, dialect Dialect) (*SQL, error) {
	if _, err := db.ExecContext(ctx, dialect.Create); err != nil {
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}
	return &SQL{db: db, dialect: dialect}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.Select, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", ErrNotFound
	case err != nil:
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Upsert, key, value); err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func openDB(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect.Name {
	case DialectMySQL.Name:
		conf, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse MySQL DSN: %w", err)
		}
		conn, err := mysql.NewConnector(conf)
		if err != nil {
			return nil, fmt.Errorf("failed to create MySQL connector: %w", err)
		}
		return sql.OpenDB(conn), nil
	case DialectPostgres.Name:
		conf, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PostgreSQL DSN: %w", err)
		}
		return stdlib.OpenDB(*conf), nil
	default:
		return nil, fmt.Errorf("unsupported SQL dialect: %s", dialect.Name)
	}
}
