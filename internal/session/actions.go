// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/roam-tripdemo/internal/permission"
	"github.com/wneessen/roam-tripdemo/internal/roam"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/settle"
	"github.com/wneessen/roam-tripdemo/internal/tracking"
)

// CreateUser creates the test user.
func (s *Session) CreateUser(ctx context.Context) (string, error) {
	userID, err := s.adapter.CreateUser(ctx, s.conf.SDK.UserDescription)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	s.update(FieldUserID, func(st *State) any {
		st.UserID.Set(userID)
		return userID
	})
	return userID, nil
}

// CreateTrip creates a trip. A new trip starts in the Unknown state with no summary.
func (s *Session) CreateTrip(ctx context.Context) (string, error) {
	tripID, err := s.adapter.CreateTrip(ctx, !s.conf.SDK.DisableOfflineTrip)
	if err != nil {
		return "", fmt.Errorf("failed to create trip: %w", err)
	}
	s.update(FieldTripID, func(st *State) any {
		st.TripID.Set(tripID)
		st.TripSubscribed = false
		return tripID
	})
	s.update(FieldTripState, func(st *State) any {
		st.TripState = roam.TripUnknown
		return st.TripState
	})
	s.update(FieldTripSummary, func(st *State) any {
		st.Summary = Summary{}
		return st.Summary
	})
	return tripID, nil
}

// LoadUser loads userID, or the created user if userID is empty. An id the SDK does not know
// is reported as ErrInvalidUserID.
func (s *Session) LoadUser(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		s.mu.RLock()
		created := s.state.UserID
		s.mu.RUnlock()
		if !created.IsSet() {
			return "", ErrNoUser
		}
		userID = created.Value()
	}

	loaded, err := s.adapter.LoadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sdk.ErrInvalidUserID) {
			return "", fmt.Errorf("%w: %w", ErrInvalidUserID, err)
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	s.update(FieldLoadedUserID, func(st *State) any {
		st.LoadedUserID.Set(loaded)
		return loaded
	})
	return loaded, nil
}

// ToggleTrip starts the current trip, or stops it if it was started by the previous toggle.
func (s *Session) ToggleTrip(ctx context.Context) (roam.TripState, error) {
	tripID, err := s.tripID()
	if err != nil {
		return roam.TripUnknown, err
	}
	s.mu.RLock()
	ongoing := s.state.TripState == roam.TripStarted
	s.mu.RUnlock()

	state, err := s.adapter.ToggleTrip(ctx, tripID, ongoing)
	if err != nil {
		return roam.TripUnknown, fmt.Errorf("failed to toggle trip: %w", err)
	}
	s.update(FieldTripState, func(st *State) any {
		st.TripState = state
		return state
	})
	return state, nil
}

// TripSummary requests the summary of the current trip.
func (s *Session) TripSummary(ctx context.Context) (Summary, error) {
	tripID, err := s.tripID()
	if err != nil {
		return Summary{}, err
	}

	result, err := s.adapter.GetTripSummary(ctx, tripID)
	if err != nil {
		var summary Summary
		summary.Status.Set(SummaryError)
		s.update(FieldTripSummary, func(st *State) any {
			st.Summary = summary
			return summary
		})
		return summary, fmt.Errorf("failed to get trip summary: %w", err)
	}

	var summary Summary
	summary.Status.Set(SummarySuccess)
	summary.Distance.Set(result.DistanceCovered)
	summary.Duration.Set(result.Duration)
	summary.ElevationGain.Set(result.ElevationGain)
	summary.RoutePoints.Set(len(result.Route))
	s.update(FieldTripSummary, func(st *State) any {
		st.Summary = summary
		return summary
	})
	return summary, nil
}

// EnableEvents turns on the SDK events of the demo configuration.
func (s *Session) EnableEvents(ctx context.Context) (sdk.EventsStatus, error) {
	status, err := settle.Do(ctx, func(resolve func(sdk.EventsStatus), reject func(error)) {
		s.sdk.ToggleEvents(sdk.Configuration.Events, resolve, func(err sdk.Error) { reject(err) })
	})
	if err != nil {
		return status, fmt.Errorf("failed to toggle events: %w", err)
	}
	s.update(FieldEvents, func(st *State) any {
		st.Events.Set(status)
		return status
	})
	return status, nil
}

// EnableListeners turns on the SDK listeners of the demo configuration.
func (s *Session) EnableListeners(ctx context.Context) (sdk.ListenerStatus, error) {
	status, err := settle.Do(ctx, func(resolve func(sdk.ListenerStatus), reject func(error)) {
		s.sdk.ToggleListener(sdk.Configuration.Listeners, resolve, func(err sdk.Error) { reject(err) })
	})
	if err != nil {
		return status, fmt.Errorf("failed to toggle listeners: %w", err)
	}
	s.update(FieldListeners, func(st *State) any {
		st.Listeners.Set(status)
		return status
	})
	return status, nil
}

// SubscribeLocation subscribes to the location updates of the loaded user.
func (s *Session) SubscribeLocation() error {
	s.mu.RLock()
	loaded := s.state.LoadedUserID
	s.mu.RUnlock()
	if !loaded.IsSet() {
		return ErrNoLoadedUser
	}

	s.sdk.Subscribe(sdk.SubscribeLocation, loaded.Value())
	s.update(FieldLocationSubscription, func(st *State) any {
		st.LocationSubscribed = true
		return true
	})
	return nil
}

// SubscribeTrip subscribes to the status updates of the current trip.
func (s *Session) SubscribeTrip() error {
	tripID, err := s.tripID()
	if err != nil {
		return err
	}

	s.sdk.SubscribeTripStatus(tripID)
	s.update(FieldTripSubscription, func(st *State) any {
		st.TripSubscribed = true
		return true
	})
	return nil
}

// ListenLocation starts counting location updates. Starting it twice is a no-op.
func (s *Session) ListenLocation() error {
	s.mu.RLock()
	subscribed := s.state.LocationSubscribed
	s.mu.RUnlock()
	if !subscribed {
		return fmt.Errorf("%w: location", ErrNotSubscribed)
	}
	s.startLocationListener()
	return nil
}

// ListenTripUpdates starts counting trip status updates. Every update is published with the
// SDK as trip metadata. Starting it twice is a no-op.
func (s *Session) ListenTripUpdates() error {
	s.mu.Lock()
	if !s.state.TripSubscribed {
		s.mu.Unlock()
		return fmt.Errorf("%w: trip", ErrNotSubscribed)
	}
	if s.state.TripListening {
		s.mu.Unlock()
		return nil
	}
	s.state.TripListening = true
	s.mu.Unlock()

	s.bus.Publish(FieldTripListener, true)
	s.sdk.StartTripStatusListener(s.onTripUpdate)
	return nil
}

// StartTracking starts tracking in mode, or in the configured mode if mode is empty.
func (s *Session) StartTracking(ctx context.Context, mode string) error {
	if mode == "" {
		mode = s.conf.Tracking.Mode
	}
	parsed, err := tracking.ParseMode(mode)
	if err != nil {
		return err
	}

	if err = s.tracker.Start(tracking.Options{
		Mode:             parsed,
		TimeInterval:     s.conf.Tracking.TimeInterval,
		DistanceInterval: s.conf.Tracking.DistanceInterval,
	}); err != nil {
		return err
	}
	s.update(FieldTrackingMode, func(st *State) any {
		st.TrackingMode.Set(string(parsed))
		return parsed
	})
	_, err = s.refreshTracking(ctx)
	return err
}

// StopTracking stops publishing and tracking.
func (s *Session) StopTracking(ctx context.Context) error {
	s.tracker.Stop()
	s.update(FieldTrackingMode, func(st *State) any {
		st.TrackingMode.Reset()
		return nil
	})
	_, err := s.refreshTracking(ctx)
	return err
}

// SetTrackingConfig applies the configured tracking parameters.
func (s *Session) SetTrackingConfig(ctx context.Context) (sdk.TrackingConfig, error) {
	return s.trackingConfigCall(ctx, "set", func(ctx context.Context) (sdk.TrackingConfig, error) {
		return s.tracker.SetConfig(ctx, tracking.ConfigOptions{
			Accuracy:       s.conf.Tracking.Accuracy,
			Timeout:        s.conf.Tracking.Timeout,
			Source:         sdk.LocationSource(s.conf.Tracking.Source),
			KeepInaccurate: s.conf.Tracking.KeepInaccurate,
		})
	})
}

// TrackingConfig returns the tracking configuration of the SDK.
func (s *Session) TrackingConfig(ctx context.Context) (sdk.TrackingConfig, error) {
	return s.trackingConfigCall(ctx, "get", s.tracker.Config)
}

// ResetTrackingConfig restores the default tracking configuration.
func (s *Session) ResetTrackingConfig(ctx context.Context) (sdk.TrackingConfig, error) {
	return s.trackingConfigCall(ctx, "reset", s.tracker.ResetConfig)
}

// ResetBatchConfig restores the default batch receiver configuration.
func (s *Session) ResetBatchConfig(ctx context.Context) (sdk.BatchConfig, error) {
	conf, err := settle.Do(ctx, func(resolve func(sdk.BatchConfig), reject func(error)) {
		s.sdk.ResetBatchReceiverConfig(resolve, func(err sdk.Error) { reject(err) })
	})
	if err != nil {
		return conf, fmt.Errorf("failed to reset batch receiver config: %w", err)
	}
	s.update(FieldBatchConfig, func(st *State) any {
		st.BatchConfig.Set(conf)
		return conf
	})
	return conf, nil
}

// CurrentLocation requests a single location fix.
func (s *Session) CurrentLocation(ctx context.Context) (sdk.Location, error) {
	loc, err := settle.Do(ctx, func(resolve func(sdk.Location), reject func(error)) {
		s.sdk.GetCurrentLocation(sdk.DesiredAccuracyHigh, s.conf.Tracking.Accuracy, resolve,
			func(err sdk.Error) { reject(err) })
	})
	if err != nil {
		return loc, fmt.Errorf("failed to get current location: %w", err)
	}
	s.update(FieldCurrentLocation, func(st *State) any {
		st.CurrentLocation.Set(loc)
		return loc
	})
	return loc, nil
}

// UpdateCurrentLocation starts the location listener and asks the SDK to publish one location
// with at least updateLocationAccuracy meters. The location arrives as a location update.
func (s *Session) UpdateCurrentLocation() {
	s.startLocationListener()
	if s.perms.Platform().IsIOS() {
		s.sdk.UpdateCurrentLocationIos(updateLocationAccuracy)
		return
	}
	s.sdk.UpdateCurrentLocation(sdk.DesiredAccuracyHigh, updateLocationAccuracy)
}

// CheckPermissions queries the permissions the platform needs.
func (s *Session) CheckPermissions(ctx context.Context) (permission.Status, error) {
	status, err := s.perms.Check(ctx)
	if err != nil {
		return status, err
	}
	s.update(FieldPermissions, func(st *State) any {
		st.Permissions = status
		return status
	})
	return status, nil
}

// RequestPermission forwards a permission request to the SDK.
func (s *Session) RequestPermission(kind permission.Kind) error {
	return s.perms.Request(kind)
}

func (s *Session) trackingConfigCall(ctx context.Context, op string,
	call func(context.Context) (sdk.TrackingConfig, error),
) (sdk.TrackingConfig, error) {
	conf, err := call(ctx)
	if err != nil {
		return conf, fmt.Errorf("failed to %s tracking config: %w", op, err)
	}
	s.update(FieldTrackingConfig, func(st *State) any {
		st.TrackingConfig.Set(conf)
		return conf
	})
	return conf, nil
}

func (s *Session) startLocationListener() {
	s.mu.Lock()
	if s.state.LocationListening {
		s.mu.Unlock()
		return
	}
	s.state.LocationListening = true
	s.mu.Unlock()

	s.bus.Publish(FieldLocationListener, true)
	s.sdk.StartLocationListener(s.onLocations)
}

func (s *Session) onLocations(locations []sdk.Location) {
	if len(locations) == 0 {
		return
	}
	last := locations[len(locations)-1]
	s.update(FieldLocationUpdate, func(st *State) any {
		st.LocationUpdates += len(locations)
		st.LastLocation.Set(last)
		st.LastUpdate.Set(s.now())
		return st.LocationUpdates
	})
}

func (s *Session) onTripUpdate(update sdk.TripStatusUpdate) {
	s.update(FieldTripUpdate, func(st *State) any {
		st.TripUpdates++
		st.LastTripUpdate.Set(update)
		st.LastUpdate.Set(s.now())
		return st.TripUpdates
	})
	s.sdk.PublishAndSave(map[string]any{
		"METADATA": map[string]any{
			"tripId":    update.TripID,
			"distance":  update.Distance,
			"duration":  update.Duration.Seconds(),
			"tripState": "ongoing",
		},
	})
	s.logger.Debug("trip status update", slog.String("trip_id", update.TripID),
		slog.Float64("distance", update.Distance))
}
