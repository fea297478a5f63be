// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package loopback implements the SDK surface in-process. It keeps users and trips in memory,
// appends the locations it is fed to running trips and reports through the same callback pairs
// a native binding would. It is a stand-in for the native SDK, not a tracking engine.
package loopback

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wneessen/roam-tripdemo/internal/location"
	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
)

// Error codes reported by the loopback SDK besides sdk.ErrInvalidUserID.
const (
	CodeTripNotFound  sdk.ErrorCode = "GS404"
	CodeTripState     sdk.ErrorCode = "GS409"
	CodeNoLocation    sdk.ErrorCode = "GS503"
	CodeInjectedFault sdk.ErrorCode = "GS500"
)

// Trip status values reported in sdk.TripStatus.
const (
	StatusCreated = "CREATED"
	StatusStarted = "STARTED"
	StatusStopped = "STOPPED"
	StatusSynced  = "SYNCED"
	StatusDeleted = "DELETED"
)

// Op names an SDK call that reports through callbacks. Faults are injected per Op.
type Op string

const (
	OpCreateUser          Op = "createUser"
	OpGetUser             Op = "getUser"
	OpCreateTrip          Op = "createTrip"
	OpStartTrip           Op = "startTrip"
	OpStopTrip            Op = "stopTrip"
	OpSyncTrip            Op = "syncTrip"
	OpDeleteTrip          Op = "deleteTrip"
	OpGetTripSummary      Op = "getTripSummary"
	OpGetCurrentLocation  Op = "getCurrentLocation"
	OpSetTrackingConfig   Op = "setTrackingConfig"
	OpGetTrackingConfig   Op = "getTrackingConfig"
	OpResetTrackingConfig Op = "resetTrackingConfig"
	OpResetBatchConfig    Op = "resetBatchReceiverConfig"
	OpToggleEvents        Op = "toggleEvents"
	OpToggleListener      Op = "toggleListener"
)

// Permission names a permission the loopback SDK keeps a status for.
type Permission string

const (
	PermissionLocation           Permission = "location"
	PermissionLocationServices   Permission = "locationServices"
	PermissionBackgroundLocation Permission = "backgroundLocation"
)

// DefaultTrackingConfig is the tracking configuration after ResetTrackingConfig.
var DefaultTrackingConfig = sdk.TrackingConfig{
	Accuracy: 10,
	Timeout:  10,
	Source:   sdk.LocationSourceAll,
}

// DefaultBatchConfig is the batch receiver configuration after ResetBatchReceiverConfig.
var DefaultBatchConfig = sdk.BatchConfig{
	NetworkState: "BOTH",
	BatchCount:   1,
	BatchWindow:  0,
}

// LocationProvider answers one-shot current location requests.
type LocationProvider interface {
	Current(ctx context.Context, minAccuracy float64) (sdk.Location, error)
}

type trip struct {
	id          string
	offline     bool
	status      string
	description string
	createdAt   time.Time
	startedAt   time.Time
	stoppedAt   time.Time
	route       []sdk.RoutePoint
	deleted     bool
}

// SDK is the in-process sdk.SDK implementation.
type SDK struct {
	logger *logger.Logger
	now    func() time.Time

	async    bool
	double   bool
	provider LocationProvider

	mu              sync.Mutex
	users           map[string]sdk.User
	trips           map[string]*trip
	faults          map[Op]sdk.Error
	permissions     map[Permission]sdk.PermissionStatus
	trackingConfig  sdk.TrackingConfig
	batchConfig     sdk.BatchConfig
	events          sdk.EventsStatus
	listeners       sdk.ListenerStatus
	subscriptions   map[sdk.SubscriptionKind]string
	subscribedTrips map[string]bool
	tracking        bool
	trackingMode    string
	publishing      bool
	metadata        map[string]any
	offline         bool
	mockAllowed     bool
	accuracyEngine  bool
	lastLocation    *sdk.Location
	currentUpdates  int
	locationFns     []func([]sdk.Location)
	tripStatusFns   []func(sdk.TripStatusUpdate)
	wg              sync.WaitGroup
}

// Option configures the loopback SDK.
type Option func(*SDK)

// WithAsync delivers every callback on its own goroutine.
func WithAsync() Option {
	return func(s *SDK) {
		s.async = true
	}
}

// WithDoubleCallback delivers every callback twice.
func WithDoubleCallback() Option {
	return func(s *SDK) {
		s.double = true
	}
}

// WithLocationProvider answers GetCurrentLocation with provider instead of the last fed location.
func WithLocationProvider(provider LocationProvider) Option {
	return func(s *SDK) {
		s.provider = provider
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *SDK) {
		if now != nil {
			s.now = now
		}
	}
}

var _ sdk.SDK = (*SDK)(nil)

// New returns an empty loopback SDK with all permissions granted.
func New(log *logger.Logger, opts ...Option) *SDK {
	s := &SDK{
		logger:          log,
		now:             time.Now,
		users:           make(map[string]sdk.User),
		trips:           make(map[string]*trip),
		faults:          make(map[Op]sdk.Error),
		subscriptions:   make(map[sdk.SubscriptionKind]string),
		subscribedTrips: make(map[string]bool),
		trackingConfig:  DefaultTrackingConfig,
		batchConfig:     DefaultBatchConfig,
		permissions: map[Permission]sdk.PermissionStatus{
			PermissionLocation:           sdk.PermissionGranted,
			PermissionLocationServices:   sdk.PermissionEnabled,
			PermissionBackgroundLocation: sdk.PermissionGranted,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fail makes every following call of op report err. An empty error code is replaced with
// CodeInjectedFault.
func (s *SDK) Fail(op Op, err sdk.Error) {
	if err.Code == "" {
		err.Code = CodeInjectedFault
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// Heal removes an injected fault for op.
func (s *SDK) Heal(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, op)
}

// SetPermission overrides the status of a permission.
func (s *SDK) SetPermission(perm Permission, status sdk.PermissionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[perm] = status
}

// Wait blocks until all asynchronously delivered callbacks have returned.
func (s *SDK) Wait() {
	s.wg.Wait()
}

// CreateUser issues a new user id.
func (s *SDK) CreateUser(description string, onSuccess func(sdk.User), onError func(sdk.Error)) {
	s.mu.Lock()
	fault, failed := s.faults[OpCreateUser]
	user := sdk.User{UserID: uuid.NewString(), Description: description}
	if !failed {
		s.users[user.UserID] = user
	}
	s.mu.Unlock()

	if failed {
		s.deliver(func() { onError(fault) })
		return
	}
	s.logger.Debug("user created", slog.String("user_id", user.UserID))
	s.deliver(func() { onSuccess(user) })
}

// GetUser looks up a user created earlier.
func (s *SDK) GetUser(userID string, onSuccess func(sdk.User), onError func(sdk.Error)) {
	s.mu.Lock()
	fault, failed := s.faults[OpGetUser]
	user, ok := s.users[userID]
	s.mu.Unlock()

	switch {
	case failed:
		s.deliver(func() { onError(fault) })
	case !ok:
		s.deliver(func() {
			onError(sdk.Error{Code: sdk.ErrInvalidUserID, Message: "Invalid user id"})
		})
	default:
		s.deliver(func() { onSuccess(user) })
	}
}

// CreateTrip issues a new trip id.
func (s *SDK) CreateTrip(offline bool, onSuccess func(sdk.Trip), onError func(sdk.Error)) {
	s.mu.Lock()
	fault, failed := s.faults[OpCreateTrip]
	created := &trip{
		id:        uuid.NewString(),
		offline:   offline,
		status:    StatusCreated,
		createdAt: s.now(),
	}
	if !failed {
		s.trips[created.id] = created
	}
	s.mu.Unlock()

	if failed {
		s.deliver(func() { onError(fault) })
		return
	}
	result := sdk.Trip{ID: created.id, IsOffline: created.offline, CreatedAt: created.createdAt}
	s.deliver(func() { onSuccess(result) })
}

// StartTrip starts a created or stopped trip.
func (s *SDK) StartTrip(tripID, description string, onSuccess func(sdk.TripStatus),
	onError func(sdk.Error),
) {
	s.tripTransition(OpStartTrip, tripID, onSuccess, onError, func(t *trip) *sdk.Error {
		if t.status == StatusStarted {
			return &sdk.Error{Code: CodeTripState, Message: "Trip already started"}
		}
		t.status = StatusStarted
		t.description = description
		t.startedAt = s.now()
		t.stoppedAt = time.Time{}
		return nil
	})
}

// StopTrip stops a started trip.
func (s *SDK) StopTrip(tripID string, onSuccess func(sdk.TripStatus), onError func(sdk.Error)) {
	s.tripTransition(OpStopTrip, tripID, onSuccess, onError, func(t *trip) *sdk.Error {
		if t.status != StatusStarted {
			return &sdk.Error{Code: CodeTripState, Message: "Trip not started"}
		}
		t.status = StatusStopped
		t.stoppedAt = s.now()
		return nil
	})
}

// SyncTrip marks a trip as synced.
func (s *SDK) SyncTrip(tripID string, onSuccess func(sdk.TripStatus), onError func(sdk.Error)) {
	s.tripTransition(OpSyncTrip, tripID, onSuccess, onError, func(t *trip) *sdk.Error {
		if t.status == StatusStarted {
			return &sdk.Error{Code: CodeTripState, Message: "Trip still running"}
		}
		t.status = StatusSynced
		return nil
	})
}

// DeleteTrip removes a trip from the device. Its summary stays available.
func (s *SDK) DeleteTrip(tripID string, onSuccess func(sdk.TripStatus), onError func(sdk.Error)) {
	s.tripTransition(OpDeleteTrip, tripID, onSuccess, onError, func(t *trip) *sdk.Error {
		if t.status == StatusStarted {
			return &sdk.Error{Code: CodeTripState, Message: "Trip still running"}
		}
		t.status = StatusDeleted
		t.deleted = true
		return nil
	})
}

// GetTripSummary reports distance, duration and elevation gain over the recorded route.
func (s *SDK) GetTripSummary(tripID string, onSuccess func(sdk.TripSummary), onError func(sdk.Error)) {
	s.mu.Lock()
	fault, failed := s.faults[OpGetTripSummary]
	t, ok := s.trips[tripID]
	var summary sdk.TripSummary
	if ok {
		summary = s.summarize(t)
	}
	s.mu.Unlock()

	switch {
	case failed:
		s.deliver(func() { onError(fault) })
	case !ok:
		s.deliver(func() { onError(tripNotFound(tripID)) })
	default:
		s.deliver(func() { onSuccess(summary) })
	}
}

// SubscribeTripStatus delivers status updates of tripID to trip status listeners.
func (s *SDK) SubscribeTripStatus(tripID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribedTrips[tripID] = true
}

func (s *SDK) PublishAndSave(metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishing = true
	s.metadata = maps.Clone(metadata)
}

func (s *SDK) StopPublishing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishing = false
}

func (s *SDK) OfflineLocationTracking(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = enabled
}

func (s *SDK) StartTracking(mode sdk.TrackingMode) {
	s.startTracking(string(mode))
}

func (s *SDK) StartTrackingCustom(sdk.CustomTrackingOptions) {
	s.startTracking("CUSTOM")
}

func (s *SDK) StartTrackingTimeInterval(int, sdk.DesiredAccuracy) {
	s.startTracking("TIME")
}

func (s *SDK) StartTrackingDistanceInterval(int, int, sdk.DesiredAccuracy) {
	s.startTracking("DISTANCE")
}

func (s *SDK) StopTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = false
	s.trackingMode = ""
}

func (s *SDK) IsLocationTracking(onResult func(bool)) {
	s.mu.Lock()
	tracking := s.tracking
	s.mu.Unlock()
	s.deliver(func() { onResult(tracking) })
}

func (s *SDK) EnableAccuracyEngine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accuracyEngine = true
}

func (s *SDK) AllowMockLocation(allowed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mockAllowed = allowed
}

// GetCurrentLocation asks the location provider for a fix. Without a provider the last fed
// location is reported. The lookup is bounded by the tracking config timeout.
func (s *SDK) GetCurrentLocation(_ sdk.DesiredAccuracy, minAccuracy int, onSuccess func(sdk.Location),
	onError func(sdk.Error),
) {
	s.mu.Lock()
	fault, failed := s.faults[OpGetCurrentLocation]
	provider := s.provider
	timeout := time.Duration(s.trackingConfig.Timeout) * time.Second
	var last *sdk.Location
	if s.lastLocation != nil {
		loc := *s.lastLocation
		last = &loc
	}
	s.mu.Unlock()

	if failed {
		s.deliver(func() { onError(fault) })
		return
	}
	if provider == nil {
		if last == nil {
			s.deliver(func() {
				onError(sdk.Error{Code: CodeNoLocation, Message: "No location available"})
			})
			return
		}
		s.deliver(func() { onSuccess(*last) })
		return
	}

	if timeout <= 0 {
		timeout = time.Duration(DefaultTrackingConfig.Timeout) * time.Second
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		loc, err := provider.Current(ctx, float64(minAccuracy))
		if err != nil {
			s.logger.Debug("current location lookup failed", logger.Err(err))
			s.deliver(func() {
				onError(sdk.Error{Code: CodeNoLocation, Message: "No location available",
					Description: err.Error()})
			})
			return
		}
		s.RecordLocation(loc)
		s.deliver(func() { onSuccess(loc) })
	}()
}

// UpdateCurrentLocation resolves one location and delivers it to the location listeners, also
// while tracking is off.
func (s *SDK) UpdateCurrentLocation(_ sdk.DesiredAccuracy, minAccuracy int) {
	s.updateCurrentLocation(minAccuracy)
}

func (s *SDK) UpdateCurrentLocationIos(minAccuracy int) {
	s.updateCurrentLocation(minAccuracy)
}

func (s *SDK) SetTrackingConfig(conf sdk.TrackingConfig, onSuccess func(sdk.TrackingConfig),
	onError func(sdk.Error),
) {
	s.configCall(OpSetTrackingConfig, onSuccess, onError, func() sdk.TrackingConfig {
		if conf.Source == "" {
			conf.Source = s.trackingConfig.Source
		}
		s.trackingConfig = conf
		return s.trackingConfig
	})
}

func (s *SDK) GetTrackingConfig(onSuccess func(sdk.TrackingConfig), onError func(sdk.Error)) {
	s.configCall(OpGetTrackingConfig, onSuccess, onError, func() sdk.TrackingConfig {
		return s.trackingConfig
	})
}

func (s *SDK) ResetTrackingConfig(onSuccess func(sdk.TrackingConfig), onError func(sdk.Error)) {
	s.configCall(OpResetTrackingConfig, onSuccess, onError, func() sdk.TrackingConfig {
		s.trackingConfig = DefaultTrackingConfig
		return s.trackingConfig
	})
}

func (s *SDK) ResetBatchReceiverConfig(onSuccess func(sdk.BatchConfig), onError func(sdk.Error)) {
	s.mu.Lock()
	fault, failed := s.faults[OpResetBatchConfig]
	if !failed {
		s.batchConfig = DefaultBatchConfig
	}
	conf := s.batchConfig
	s.mu.Unlock()

	if failed {
		s.deliver(func() { onError(fault) })
		return
	}
	s.deliver(func() { onSuccess(conf) })
}

func (s *SDK) ToggleEvents(opts sdk.EventsOptions, onSuccess func(sdk.EventsStatus), onError func(sdk.Error)) {
	s.mu.Lock()
	fault, failed := s.faults[OpToggleEvents]
	if !failed {
		s.events = sdk.EventsStatus{
			GeofenceEvents:       opts.Geofence,
			TripsEvents:          opts.Trip,
			LocationEvents:       opts.Location,
			MovingGeofenceEvents: opts.MovingGeofence,
		}
	}
	status := s.events
	s.mu.Unlock()

	if failed {
		s.deliver(func() { onError(fault) })
		return
	}
	s.deliver(func() { onSuccess(status) })
}

func (s *SDK) ToggleListener(opts sdk.ListenerOptions, onSuccess func(sdk.ListenerStatus),
	onError func(sdk.Error),
) {
	s.mu.Lock()
	fault, failed := s.faults[OpToggleListener]
	if !failed {
		s.listeners = sdk.ListenerStatus{
			LocationListenerStatus: opts.LocationListener,
			EventListenerStatus:    opts.EventListener,
		}
	}
	status := s.listeners
	s.mu.Unlock()

	if failed {
		s.deliver(func() { onError(fault) })
		return
	}
	s.deliver(func() { onSuccess(status) })
}

func (s *SDK) Subscribe(kind sdk.SubscriptionKind, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[kind] = userID
}

func (s *SDK) StartLocationListener(onLocations func([]sdk.Location)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationFns = append(s.locationFns, onLocations)
}

func (s *SDK) StartTripStatusListener(onUpdate func(sdk.TripStatusUpdate)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tripStatusFns = append(s.tripStatusFns, onUpdate)
}

func (s *SDK) CheckLocationPermission(onResult func(sdk.PermissionStatus)) {
	s.checkPermission(PermissionLocation, onResult)
}

func (s *SDK) CheckLocationServices(onResult func(sdk.PermissionStatus)) {
	s.checkPermission(PermissionLocationServices, onResult)
}

func (s *SDK) CheckBackgroundLocationPermission(onResult func(sdk.PermissionStatus)) {
	s.checkPermission(PermissionBackgroundLocation, onResult)
}

func (s *SDK) RequestLocationPermission() {
	s.SetPermission(PermissionLocation, sdk.PermissionGranted)
}

func (s *SDK) RequestLocationServices() {
	s.SetPermission(PermissionLocationServices, sdk.PermissionEnabled)
}

func (s *SDK) RequestBackgroundLocationPermission() {
	s.SetPermission(PermissionBackgroundLocation, sdk.PermissionGranted)
}

// RecordLocation feeds a location into the SDK. It is appended to every started trip and
// delivered to the location and trip status listeners. Invalid coordinates are dropped.
func (s *SDK) RecordLocation(loc sdk.Location) {
	if !location.Valid(loc) {
		s.logger.Warn("dropping invalid location", slog.Float64("lat", loc.Latitude),
			slog.Float64("lon", loc.Longitude))
		return
	}
	if loc.RecordedAt.IsZero() {
		loc.RecordedAt = s.now()
	}

	s.mu.Lock()
	s.lastLocation = &loc
	var updates []sdk.TripStatusUpdate
	for _, t := range s.trips {
		if t.status != StatusStarted {
			continue
		}
		t.route = append(t.route, sdk.RoutePoint{
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			Altitude:   loc.Altitude,
			RecordedAt: loc.RecordedAt,
		})
		if s.subscribedTrips[t.id] {
			summary := s.summarize(t)
			updates = append(updates, sdk.TripStatusUpdate{
				TripID:    t.id,
				Distance:  summary.DistanceCovered,
				Duration:  summary.Duration,
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
			})
		}
	}
	var locationFns []func([]sdk.Location)
	if s.tracking {
		locationFns = append(locationFns, s.locationFns...)
	}
	tripStatusFns := append([]func(sdk.TripStatusUpdate){}, s.tripStatusFns...)
	s.mu.Unlock()

	for _, fn := range locationFns {
		s.deliver(func() { fn([]sdk.Location{loc}) })
	}
	for _, update := range updates {
		for _, fn := range tripStatusFns {
			s.deliver(func() { fn(update) })
		}
	}
}

// Feed records every location of source until the source stream is closed or ctx is done.
func (s *SDK) Feed(ctx context.Context, source location.Source) error {
	s.logger.Info("feeding locations into loopback SDK", slog.String("source", source.Name()))
	stream := source.Stream(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case loc, ok := <-stream:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return errors.New("location source stream closed")
			}
			s.RecordLocation(loc)
		}
	}
}

// State is a read-only view of the loopback SDK switches.
type State struct {
	Tracking       bool
	TrackingMode   string
	Publishing     bool
	Metadata       map[string]any
	Offline        bool
	MockAllowed    bool
	AccuracyEngine bool
	Subscriptions  map[sdk.SubscriptionKind]string
	CurrentUpdates int
}

// State returns the current switch state.
func (s *SDK) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Tracking:       s.tracking,
		TrackingMode:   s.trackingMode,
		Publishing:     s.publishing,
		Metadata:       maps.Clone(s.metadata),
		Offline:        s.offline,
		MockAllowed:    s.mockAllowed,
		AccuracyEngine: s.accuracyEngine,
		Subscriptions:  maps.Clone(s.subscriptions),
		CurrentUpdates: s.currentUpdates,
	}
}

func (s *SDK) startTracking(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = true
	s.trackingMode = mode
}

func (s *SDK) updateCurrentLocation(minAccuracy int) {
	s.mu.Lock()
	s.currentUpdates++
	s.mu.Unlock()

	s.GetCurrentLocation(sdk.DesiredAccuracyHigh, minAccuracy, func(loc sdk.Location) {
		s.mu.Lock()
		var fns []func([]sdk.Location)
		if !s.tracking || s.provider == nil {
			fns = append(fns, s.locationFns...)
		}
		s.mu.Unlock()
		for _, fn := range fns {
			fn([]sdk.Location{loc})
		}
	}, func(err sdk.Error) {
		s.logger.Warn("current location update failed", slog.String("code", string(err.Code)),
			slog.String("description", err.Description))
	})
}

func (s *SDK) checkPermission(perm Permission, onResult func(sdk.PermissionStatus)) {
	s.mu.Lock()
	status := s.permissions[perm]
	s.mu.Unlock()
	s.deliver(func() { onResult(status) })
}

func (s *SDK) configCall(op Op, onSuccess func(sdk.TrackingConfig), onError func(sdk.Error),
	apply func() sdk.TrackingConfig,
) {
	s.mu.Lock()
	fault, failed := s.faults[op]
	var conf sdk.TrackingConfig
	if !failed {
		conf = apply()
	}
	s.mu.Unlock()

	if failed {
		s.deliver(func() { onError(fault) })
		return
	}
	s.deliver(func() { onSuccess(conf) })
}

// tripTransition applies change to a known, not deleted trip under the lock and reports the
// resulting status.
func (s *SDK) tripTransition(op Op, tripID string, onSuccess func(sdk.TripStatus), onError func(sdk.Error),
	change func(*trip) *sdk.Error,
) {
	s.mu.Lock()
	fault, failed := s.faults[op]
	t, ok := s.trips[tripID]
	var changeErr *sdk.Error
	var status sdk.TripStatus
	switch {
	case failed:
	case !ok || t.deleted:
		ok = false
	default:
		changeErr = change(t)
		status = sdk.TripStatus{TripID: t.id, Status: t.status}
	}
	s.mu.Unlock()

	switch {
	case failed:
		s.deliver(func() { onError(fault) })
	case !ok:
		s.deliver(func() { onError(tripNotFound(tripID)) })
	case changeErr != nil:
		s.deliver(func() { onError(*changeErr) })
	default:
		s.logger.Debug("trip transition", slog.String("trip_id", tripID), slog.String("operation", string(op)),
			slog.String("status", status.Status))
		s.deliver(func() { onSuccess(status) })
	}
}

// summarize must be called with the lock held.
func (s *SDK) summarize(t *trip) sdk.TripSummary {
	summary := sdk.TripSummary{
		TripID: t.id,
		Route:  append([]sdk.RoutePoint(nil), t.route...),
	}
	for i := 1; i < len(t.route); i++ {
		prev, cur := t.route[i-1], t.route[i]
		summary.DistanceCovered += location.Distance(
			sdk.Location{Latitude: prev.Latitude, Longitude: prev.Longitude},
			sdk.Location{Latitude: cur.Latitude, Longitude: cur.Longitude},
		)
		if gain := cur.Altitude - prev.Altitude; gain > 0 {
			summary.ElevationGain += gain
		}
	}
	if !t.startedAt.IsZero() {
		end := t.stoppedAt
		if end.IsZero() {
			end = s.now()
		}
		summary.Duration = end.Sub(t.startedAt)
	}
	return summary
}

// deliver invokes fn synchronously or on its own goroutine, twice in double callback mode.
func (s *SDK) deliver(fn func()) {
	times := 1
	if s.double {
		times = 2
	}
	for range times {
		if !s.async {
			fn()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			fn()
		}()
	}
}

func tripNotFound(tripID string) sdk.Error {
	return sdk.Error{Code: CodeTripNotFound, Message: "Trip not found", Description: tripID}
}
