// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package storage provides the durable key-value settings store the demo keeps its user and
// trip identifiers in.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	KeyUserID = "userId"
	KeyTripID = "tripId"
)

var ErrNotFound = errors.New("storage: key not found")

// Store is a durable string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns the Store for the given driver. path is used by the file driver, dsn by the SQL
// drivers.
func Open(ctx context.Context, driver, path, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(path)
	case "mysql":
		return OpenSQL(ctx, DialectMySQL, dsn)
	case "postgres":
		return OpenSQL(ctx, DialectPostgres, dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}
