// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package sdk describes the callback surface of the native location SDK. The SDK is an external
// collaborator: every call returns immediately and reports its outcome by invoking one of the
// supplied handlers, possibly from another goroutine.
package sdk

// SDK is the callback-style surface of the location SDK. Implementations are expected to invoke
// exactly one of the success or error handlers per call, but consumers must not rely on it.
type SDK interface {
	// Users
	CreateUser(description string, onSuccess func(User), onError func(Error))
	GetUser(userID string, onSuccess func(User), onError func(Error))

	// Trips
	CreateTrip(offline bool, onSuccess func(Trip), onError func(Error))
	StartTrip(tripID, description string, onSuccess func(TripStatus), onError func(Error))
	StopTrip(tripID string, onSuccess func(TripStatus), onError func(Error))
	SyncTrip(tripID string, onSuccess func(TripStatus), onError func(Error))
	DeleteTrip(tripID string, onSuccess func(TripStatus), onError func(Error))
	GetTripSummary(tripID string, onSuccess func(TripSummary), onError func(Error))
	SubscribeTripStatus(tripID string)

	// Location publishing and tracking
	PublishAndSave(metadata map[string]any)
	StopPublishing()
	OfflineLocationTracking(enabled bool)
	StartTracking(mode TrackingMode)
	StartTrackingCustom(opts CustomTrackingOptions)
	StartTrackingTimeInterval(seconds int, accuracy DesiredAccuracy)
	StartTrackingDistanceInterval(meters, stationaryMeters int, accuracy DesiredAccuracy)
	StopTracking()
	IsLocationTracking(onResult func(bool))
	EnableAccuracyEngine()
	AllowMockLocation(allowed bool)
	GetCurrentLocation(accuracy DesiredAccuracy, minAccuracy int, onSuccess func(Location), onError func(Error))
	UpdateCurrentLocation(accuracy DesiredAccuracy, minAccuracy int)
	UpdateCurrentLocationIos(minAccuracy int)

	// Tracking and batch configuration
	SetTrackingConfig(conf TrackingConfig, onSuccess func(TrackingConfig), onError func(Error))
	GetTrackingConfig(onSuccess func(TrackingConfig), onError func(Error))
	ResetTrackingConfig(onSuccess func(TrackingConfig), onError func(Error))
	ResetBatchReceiverConfig(onSuccess func(BatchConfig), onError func(Error))

	// Events, listeners and subscriptions
	ToggleEvents(opts EventsOptions, onSuccess func(EventsStatus), onError func(Error))
	ToggleListener(opts ListenerOptions, onSuccess func(ListenerStatus), onError func(Error))
	Subscribe(kind SubscriptionKind, userID string)
	StartLocationListener(onLocations func([]Location))
	StartTripStatusListener(onUpdate func(TripStatusUpdate))

	// Permissions
	CheckLocationPermission(onResult func(PermissionStatus))
	CheckLocationServices(onResult func(PermissionStatus))
	CheckBackgroundLocationPermission(onResult func(PermissionStatus))
	RequestLocationPermission()
	RequestLocationServices()
	RequestBackgroundLocationPermission()
}
