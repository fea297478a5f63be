// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package session holds the demo state and runs the demo actions against the SDK. Every state
// change is published to the event bus.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/wneessen/roam-tripdemo/internal/config"
	"github.com/wneessen/roam-tripdemo/internal/events"
	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/permission"
	"github.com/wneessen/roam-tripdemo/internal/roam"
	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/storage"
	"github.com/wneessen/roam-tripdemo/internal/tracking"
	"github.com/wneessen/roam-tripdemo/internal/vartype"
)

const (
	statusRefreshJob = "status_refresh_job"
	// updateLocationAccuracy is the accuracy in meters of a requested current location update.
	updateLocationAccuracy = 50
)

// Fields published to the event bus.
const (
	FieldUserID               = "userId"
	FieldTripID               = "tripId"
	FieldLoadedUserID         = "loadedUserId"
	FieldTripState            = "tripState"
	FieldTracking             = "tracking"
	FieldTrackingMode         = "trackingMode"
	FieldTrackingConfig       = "trackingConfig"
	FieldBatchConfig          = "batchConfig"
	FieldEvents               = "events"
	FieldListeners            = "listeners"
	FieldLocationSubscription = "locationSubscription"
	FieldTripSubscription     = "tripSubscription"
	FieldLocationListener     = "locationListener"
	FieldTripListener         = "tripListener"
	FieldLocationUpdate       = "locationUpdate"
	FieldTripUpdate           = "tripUpdate"
	FieldTripSummary          = "tripSummary"
	FieldPermissions          = "permissions"
	FieldCurrentLocation      = "currentLocation"
)

// Summary status values.
const (
	SummarySuccess = "SUCCESS"
	SummaryError   = "ERROR"
)

var (
	// ErrNoUser is returned when an action needs a created user.
	ErrNoUser = errors.New("no user created")
	// ErrNoTrip is returned when an action needs a created trip.
	ErrNoTrip = errors.New("no trip created")
	// ErrNoLoadedUser is returned when an action needs a loaded user.
	ErrNoLoadedUser = errors.New("no user loaded")
	// ErrNotSubscribed is returned when a listener is started without the matching subscription.
	ErrNotSubscribed = errors.New("not subscribed")
	// ErrInvalidUserID is returned when the SDK does not know the user to load.
	ErrInvalidUserID = errors.New("invalid user id")
)

// Summary is the last requested trip summary.
type Summary struct {
	Status        vartype.VarString               `json:"status"`
	Distance      vartype.VarFloat64              `json:"distance"`
	Duration      vartype.Variable[time.Duration] `json:"duration"`
	ElevationGain vartype.VarFloat64              `json:"elevationGain"`
	RoutePoints   vartype.VarInt                  `json:"routePoints"`
}

// State is the demo state. Unset values have not been reported by the SDK yet.
type State struct {
	UserID             vartype.VarString                      `json:"userId"`
	TripID             vartype.VarString                      `json:"tripId"`
	LoadedUserID       vartype.VarString                      `json:"loadedUserId"`
	TripState          roam.TripState                         `json:"tripState"`
	Tracking           vartype.VarBool                        `json:"tracking"`
	TrackingMode       vartype.VarString                      `json:"trackingMode"`
	TrackingConfig     vartype.Variable[sdk.TrackingConfig]   `json:"trackingConfig"`
	BatchConfig        vartype.Variable[sdk.BatchConfig]      `json:"batchConfig"`
	Events             vartype.Variable[sdk.EventsStatus]     `json:"events"`
	Listeners          vartype.Variable[sdk.ListenerStatus]   `json:"listeners"`
	LocationSubscribed bool                                   `json:"locationSubscribed"`
	TripSubscribed     bool                                   `json:"tripSubscribed"`
	LocationListening  bool                                   `json:"locationListening"`
	TripListening      bool                                   `json:"tripListening"`
	LocationUpdates    int                                    `json:"locationUpdates"`
	TripUpdates        int                                    `json:"tripUpdates"`
	LastLocation       vartype.Variable[sdk.Location]         `json:"lastLocation"`
	LastTripUpdate     vartype.Variable[sdk.TripStatusUpdate] `json:"lastTripUpdate"`
	LastUpdate         vartype.Variable[time.Time]            `json:"lastUpdate"`
	Summary            Summary                                `json:"summary"`
	Permissions        permission.Status                      `json:"permissions"`
	CurrentLocation    vartype.Variable[sdk.Location]         `json:"currentLocation"`
}

// Session runs the demo actions.
type Session struct {
	conf      *config.Config
	sdk       sdk.SDK
	adapter   *roam.Adapter
	store     storage.Store
	perms     *permission.Checker
	tracker   *tracking.Tracker
	bus       *events.Bus
	logger    *logger.Logger
	scheduler gocron.Scheduler
	now       func() time.Time

	// publishMu orders publishes like the state changes they report.
	publishMu sync.Mutex
	mu        sync.RWMutex
	state     State
}

// New returns a Session for client. Created identifiers are persisted in store.
func New(conf *config.Config, client sdk.SDK, store storage.Store, bus *events.Bus,
	log *logger.Logger,
) (*Session, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	platform := permission.Platform{OS: conf.Platform.OS, APILevel: conf.Platform.APILevel}
	session := &Session{
		conf:      conf,
		sdk:       client,
		adapter:   roam.New(client, store, log, roam.WithTripLabel(conf.SDK.TripLabel)),
		store:     store,
		perms:     permission.New(client, platform),
		tracker:   tracking.New(client, conf.Platform.OS, log),
		bus:       bus,
		logger:    log,
		scheduler: scheduler,
		now:       time.Now,
		state: State{
			TripState: roam.TripUnknown,
			Permissions: permission.Status{
				Location:           vartype.Placeholder,
				LocationServices:   vartype.Placeholder,
				BackgroundLocation: vartype.Placeholder,
			},
		},
	}
	return session, nil
}

// Init restores the persisted identifiers and queries the initial SDK status.
func (s *Session) Init(ctx context.Context) error {
	for _, key := range []string{storage.KeyUserID, storage.KeyTripID} {
		value, err := s.store.Get(ctx, key)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			continue
		case err != nil:
			return fmt.Errorf("failed to read %s from storage: %w", key, err)
		}
		s.logger.Debug("restored identifier", slog.String("key", key), slog.String("value", value))
		if key == storage.KeyUserID {
			s.update(FieldUserID, func(st *State) any { st.UserID.Set(value); return value })
			continue
		}
		s.update(FieldTripID, func(st *State) any { st.TripID.Set(value); return value })
	}

	if s.perms.Platform().IsAndroid() && !s.conf.SDK.DisableMockLocation {
		s.sdk.AllowMockLocation(true)
	}
	s.sdk.EnableAccuracyEngine()

	if _, err := s.refreshTracking(ctx); err != nil {
		return err
	}
	if _, err := s.ResetBatchConfig(ctx); err != nil {
		s.logger.Warn("failed to reset batch receiver config", logger.Err(err))
	}
	if _, err := s.CheckPermissions(ctx); err != nil {
		return err
	}
	return nil
}

// Run refreshes permissions and tracking status periodically until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.conf.Intervals.StatusRefresh),
		gocron.NewTask(s.refreshStatus),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(statusRefreshJob),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", statusRefreshJob, err)
	}
	s.scheduler.Start()

	<-ctx.Done()
	return s.scheduler.Shutdown()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Platform returns the platform the session runs on.
func (s *Session) Platform() permission.Platform {
	return s.perms.Platform()
}

func (s *Session) refreshStatus(ctx context.Context) {
	if _, err := s.CheckPermissions(ctx); err != nil {
		s.logger.Error("failed to refresh permissions", logger.Err(err))
	}
	if _, err := s.refreshTracking(ctx); err != nil {
		s.logger.Error("failed to refresh tracking status", logger.Err(err))
	}
}

func (s *Session) refreshTracking(ctx context.Context) (bool, error) {
	isTracking, err := s.tracker.IsTracking(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to query tracking status: %w", err)
	}
	s.update(FieldTracking, func(st *State) any {
		st.Tracking.Set(isTracking)
		return isTracking
	})
	return isTracking, nil
}

// update applies fn under the state lock and publishes its result as the new value of field.
func (s *Session) update(field string, fn func(*State) any) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	value := fn(&s.state)
	s.mu.Unlock()
	s.bus.Publish(field, value)
}

func (s *Session) tripID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.TripID.IsSet() {
		return "", ErrNoTrip
	}
	return s.state.TripID.Value(), nil
}
