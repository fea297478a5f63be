// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package sdk

import (
	"time"
)

// User is the success payload of the user calls.
type User struct {
	UserID      string `json:"userId"`
	Description string `json:"description,omitempty"`
}

// Trip is the success payload of CreateTrip.
type Trip struct {
	ID        string    `json:"id"`
	IsOffline bool      `json:"isOffline"`
	CreatedAt time.Time `json:"createdAt"`
}

// TripStatus is the success payload of the trip lifecycle calls.
type TripStatus struct {
	TripID  string `json:"tripId"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// RoutePoint is a single recorded point of a trip route.
type RoutePoint struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	RecordedAt time.Time `json:"recordedAt"`
}

// TripSummary is the aggregate report the SDK computes for a trip. Distance and elevation gain
// are in meters.
type TripSummary struct {
	TripID          string        `json:"tripId"`
	DistanceCovered float64       `json:"distanceCovered"`
	Duration        time.Duration `json:"duration"`
	ElevationGain   float64       `json:"elevationGain"`
	Route           []RoutePoint  `json:"route"`
}

// Location is a location update as delivered by the SDK.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	Accuracy   float64   `json:"accuracy"`
	Speed      float64   `json:"speed"`
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// TripStatusUpdate is delivered to trip status listeners while a subscribed trip is running.
type TripStatusUpdate struct {
	TripID    string        `json:"tripId"`
	Distance  float64       `json:"distance"`
	Duration  time.Duration `json:"duration"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
}

// TrackingMode is a preset tracking mode.
type TrackingMode string

const (
	TrackingModeActive   TrackingMode = "ACTIVE"
	TrackingModeBalanced TrackingMode = "BALANCED"
	TrackingModePassive  TrackingMode = "PASSIVE"
)

// DesiredAccuracy is the requested accuracy level.
type DesiredAccuracy string

const (
	DesiredAccuracyHigh   DesiredAccuracy = "HIGH"
	DesiredAccuracyMedium DesiredAccuracy = "MEDIUM"
	DesiredAccuracyLow    DesiredAccuracy = "LOW"
	DesiredAccuracyBest   DesiredAccuracy = "BEST"
)

// ActivityType hints the expected movement type to the iOS location manager.
type ActivityType string

const (
	ActivityTypeOther      ActivityType = "OTHER"
	ActivityTypeAutomotive ActivityType = "AUTOMOTIVE"
	ActivityTypeFitness    ActivityType = "FITNESS"
)

// CustomTrackingOptions are the parameters of a custom (iOS) tracking request.
type CustomTrackingOptions struct {
	AllowBackgroundUpdates  bool
	PauseAutomatically      bool
	Activity                ActivityType
	Accuracy                DesiredAccuracy
	ShowBackgroundIndicator bool
	DistanceFilter          int
	AccuracyFilter          int
	UpdateInterval          int
}

// LocationSource selects where the SDK sources locations from. The empty value leaves the
// choice to the SDK.
type LocationSource string

const (
	LocationSourceAll       LocationSource = "ALL"
	LocationSourceLastKnown LocationSource = "LAST_KNOWN"
	LocationSourceGPS       LocationSource = "GPS"
)

// TrackingConfig controls how the SDK accepts location fixes.
type TrackingConfig struct {
	Accuracy        int            `json:"accuracy"`
	Timeout         int            `json:"timeout"`
	Source          LocationSource `json:"source,omitempty"`
	DiscardLocation bool           `json:"discardLocation"`
}

// BatchConfig is the batch receiver configuration reported by the SDK.
type BatchConfig struct {
	NetworkState string `json:"networkState"`
	BatchCount   int    `json:"batchCount"`
	BatchWindow  int    `json:"batchWindow"`
}

// EventsOptions selects which event kinds the SDK generates.
type EventsOptions struct {
	Geofence       bool
	Trip           bool
	Location       bool
	MovingGeofence bool
}

// EventsStatus is the events state reported after ToggleEvents.
type EventsStatus struct {
	GeofenceEvents       bool `json:"geofenceEvents"`
	TripsEvents          bool `json:"tripsEvents"`
	LocationEvents       bool `json:"locationEvents"`
	MovingGeofenceEvents bool `json:"movingGeofenceEvents"`
}

// ListenerOptions selects which listeners the SDK delivers to.
type ListenerOptions struct {
	LocationListener bool
	EventListener    bool
}

// ListenerStatus is the listener state reported after ToggleListener.
type ListenerStatus struct {
	LocationListenerStatus bool `json:"locationListenerStatus"`
	EventListenerStatus    bool `json:"eventListenerStatus"`
}

// SubscriptionKind selects what a Subscribe call subscribes to.
type SubscriptionKind string

const (
	SubscribeLocation SubscriptionKind = "LOCATION"
	SubscribeEvents   SubscriptionKind = "EVENTS"
	SubscribeBoth     SubscriptionKind = "BOTH"
)

// PermissionStatus is the status string the SDK reports for permission checks.
type PermissionStatus string

const (
	PermissionGranted  PermissionStatus = "GRANTED"
	PermissionDenied   PermissionStatus = "DENIED"
	PermissionEnabled  PermissionStatus = "ENABLED"
	PermissionDisabled PermissionStatus = "DISABLED"
)

// Configuration is the events and listener setup the demo runs with. Geofence events are
// not used.
var Configuration = struct {
	Events    EventsOptions
	Listeners ListenerOptions
}{
	Events:    EventsOptions{Trip: true, Location: true},
	Listeners: ListenerOptions{LocationListener: true, EventListener: true},
}
