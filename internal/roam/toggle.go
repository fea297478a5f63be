// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package roam

import (
	"context"
	"log/slog"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/settle"
)

// TripState is the caller-side view of a trip. It is derived from which toggle branch ran and
// never read back from the SDK.
type TripState string

const (
	TripUnknown TripState = "Unknown"
	TripStarted TripState = "STARTED"
	TripStopped TripState = "STOPPED"
)

// ToggleTrip stops the trip if ongoing is true and starts it otherwise.
//
// Stopping issues stop, flush, sync and delete in that order. Only the stop call settles the
// result; the other three are detached and their failures are only logged. ongoing is taken
// as given, the SDK's own trip status is not consulted.
func (a *Adapter) ToggleTrip(ctx context.Context, tripID string, ongoing bool) (TripState, error) {
	call := settle.New[TripState]()
	log := a.logger.With(slog.String("trip_id", tripID))

	if !ongoing {
		log.Debug("starting trip", slog.String("label", a.tripLabel))
		a.sdk.StartTrip(tripID, a.tripLabel,
			func(status sdk.TripStatus) {
				log.Debug("trip started", slog.String("status", status.Status))
				resolve(a, call, "start trip", TripStarted)
			},
			func(err sdk.Error) {
				log.Error("failed to start trip", logger.Err(err))
				reject(a, call, "start trip", err)
			},
		)
		return call.Wait(ctx)
	}

	log.Debug("stopping trip")
	a.sdk.StopTrip(tripID,
		func(status sdk.TripStatus) {
			log.Debug("trip stopped", slog.String("status", status.Status))
			resolve(a, call, "stop trip", TripStopped)
		},
		func(err sdk.Error) {
			log.Error("failed to stop trip", logger.Err(err))
			reject(a, call, "stop trip", err)
		},
	)

	// Best-effort cleanup. Nothing below may influence the settlement above.
	a.detach("publish and save", func(_ func(), _ func(sdk.Error)) {
		a.sdk.PublishAndSave(nil)
	})
	a.detach("sync trip", func(done func(), fail func(sdk.Error)) {
		a.sdk.SyncTrip(tripID, func(sdk.TripStatus) { done() }, fail)
	})
	a.detach("delete trip", func(done func(), fail func(sdk.Error)) {
		a.sdk.DeleteTrip(tripID, func(sdk.TripStatus) { done() }, fail)
	})

	return call.Wait(ctx)
}
