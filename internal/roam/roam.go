// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package roam adapts the callback-style location SDK into single-settlement operations and
// reconciles the asymmetric start and stop trip calls into one toggle.
package roam

import (
	"context"
	"log/slog"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/settle"
	"github.com/wneessen/roam-tripdemo/internal/storage"
)

// DefaultTripLabel is the description every trip is started with.
const DefaultTripLabel = "test-trip"

// Adapter wraps the SDK calls the demo awaits. It never fabricates identifiers or errors; it only
// forwards or relabels what the SDK reports.
type Adapter struct {
	sdk       sdk.SDK
	store     storage.Store
	logger    *logger.Logger
	tripLabel string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTripLabel overrides the description trips are started with.
func WithTripLabel(label string) Option {
	return func(a *Adapter) {
		if label != "" {
			a.tripLabel = label
		}
	}
}

// New returns an Adapter that persists created identifiers in store.
func New(client sdk.SDK, store storage.Store, log *logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		sdk:       client,
		store:     store,
		logger:    log,
		tripLabel: DefaultTripLabel,
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

// CreateUser creates a user and persists its id under storage.KeyUserID.
func (a *Adapter) CreateUser(ctx context.Context, description string) (string, error) {
	call := settle.New[string]()
	a.sdk.CreateUser(description,
		func(user sdk.User) {
			a.settleWithPersist(ctx, call, "create user", storage.KeyUserID, user.UserID)
		},
		func(err sdk.Error) {
			reject(a, call, "create user", err)
		},
	)
	return call.Wait(ctx)
}

// CreateTrip creates a trip and persists its id under storage.KeyTripID.
func (a *Adapter) CreateTrip(ctx context.Context, offline bool) (string, error) {
	call := settle.New[string]()
	a.sdk.CreateTrip(offline,
		func(trip sdk.Trip) {
			a.settleWithPersist(ctx, call, "create trip", storage.KeyTripID, trip.ID)
		},
		func(err sdk.Error) {
			reject(a, call, "create trip", err)
		},
	)
	return call.Wait(ctx)
}

// LoadUser looks up a user. On failure it returns the bare sdk.ErrorCode instead of the full
// payload, so callers can match it with errors.Is.
func (a *Adapter) LoadUser(ctx context.Context, userID string) (string, error) {
	call := settle.New[string]()
	a.sdk.GetUser(userID,
		func(user sdk.User) {
			resolve(a, call, "load user", user.UserID)
		},
		func(err sdk.Error) {
			reject(a, call, "load user", err.Code)
		},
	)
	return call.Wait(ctx)
}

// GetTripSummary returns the summary the SDK reports for a trip.
func (a *Adapter) GetTripSummary(ctx context.Context, tripID string) (sdk.TripSummary, error) {
	call := settle.New[sdk.TripSummary]()
	a.sdk.GetTripSummary(tripID,
		func(summary sdk.TripSummary) {
			resolve(a, call, "get trip summary", summary)
		},
		func(err sdk.Error) {
			a.logger.Debug("trip summary request failed", logger.Err(err), slog.String("trip_id", tripID))
			reject(a, call, "get trip summary", err)
		},
	)
	return call.Wait(ctx)
}

// settleWithPersist resolves call with id and writes id to key before waiters are released.
// Persisting happens only for the settling callback; a failed write is logged and does not turn
// the SDK success into a failure.
func (a *Adapter) settleWithPersist(ctx context.Context, call *settle.Call[string], op, key, id string) {
	settled := call.Settle(func() (string, error) {
		if err := a.store.Set(context.WithoutCancel(ctx), key, id); err != nil {
			a.logger.Error("failed to persist identifier", logger.Err(err), slog.String("key", key),
				slog.String("operation", op))
		}
		return id, nil
	})
	if !settled {
		a.strayCallback(op)
	}
}

func resolve[T any](a *Adapter, call *settle.Call[T], op string, value T) {
	if !call.Resolve(value) {
		a.strayCallback(op)
	}
}

func reject[T any](a *Adapter, call *settle.Call[T], op string, err error) {
	if !call.Reject(err) {
		a.strayCallback(op)
	}
}

func (a *Adapter) strayCallback(op string) {
	a.logger.Warn("ignoring additional SDK callback for settled call", slog.String("operation", op))
}
