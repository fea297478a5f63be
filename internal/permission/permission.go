// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package permission checks and requests the location permissions the running platform needs.
package permission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/roam-tripdemo/internal/sdk"
	"github.com/wneessen/roam-tripdemo/internal/settle"
)

// NotApplicable is reported for capabilities the platform does not need.
const NotApplicable = "N/A"

// BackgroundAPILevel is the first Android API level with a separate background location
// permission.
const BackgroundAPILevel = 29

// Kind names a requestable permission.
type Kind string

const (
	KindLocation           Kind = "location"
	KindLocationServices   Kind = "location_services"
	KindBackgroundLocation Kind = "background_location"
)

// ErrUnknownKind is returned by Request for an unknown permission kind.
var ErrUnknownKind = errors.New("unknown permission kind")

// ErrNotNeeded is returned by Request for a permission the platform does not need.
var ErrNotNeeded = errors.New("permission not needed on this platform")

// Platform describes the device the SDK runs on.
type Platform struct {
	OS       string
	APILevel int
}

func (p Platform) IsAndroid() bool {
	return strings.EqualFold(p.OS, "android")
}

func (p Platform) IsIOS() bool {
	return strings.EqualFold(p.OS, "ios")
}

// LocationServicesNeeded reports whether location services are checked separately.
func (p Platform) LocationServicesNeeded() bool {
	return p.IsAndroid()
}

// BackgroundLocationNeeded reports whether the background location permission is checked
// separately.
func (p Platform) BackgroundLocationNeeded() bool {
	return p.LocationServicesNeeded() && p.APILevel >= BackgroundAPILevel
}

// Status is a snapshot of the permission checks.
type Status struct {
	Location           string `json:"location"`
	LocationServices   string `json:"locationServices"`
	BackgroundLocation string `json:"backgroundLocation"`
}

// Checker checks and requests permissions through the SDK.
type Checker struct {
	sdk      sdk.SDK
	platform Platform
}

// New returns a Checker for platform.
func New(client sdk.SDK, platform Platform) *Checker {
	return &Checker{sdk: client, platform: platform}
}

// Platform returns the platform the Checker was created for.
func (c *Checker) Platform() Platform {
	return c.platform
}

// Check queries every permission the platform needs. Unneeded ones are reported as
// NotApplicable.
func (c *Checker) Check(ctx context.Context) (Status, error) {
	status := Status{
		LocationServices:   NotApplicable,
		BackgroundLocation: NotApplicable,
	}

	var err error
	status.Location, err = c.check(ctx, c.sdk.CheckLocationPermission)
	if err != nil {
		return status, fmt.Errorf("failed to check location permission: %w", err)
	}
	if c.platform.LocationServicesNeeded() {
		if status.LocationServices, err = c.check(ctx, c.sdk.CheckLocationServices); err != nil {
			return status, fmt.Errorf("failed to check location services: %w", err)
		}
	}
	if c.platform.BackgroundLocationNeeded() {
		if status.BackgroundLocation, err = c.check(ctx, c.sdk.CheckBackgroundLocationPermission); err != nil {
			return status, fmt.Errorf("failed to check background location permission: %w", err)
		}
	}
	return status, nil
}

// Request forwards a permission request to the SDK.
func (c *Checker) Request(kind Kind) error {
	switch kind {
	case KindLocation:
		c.sdk.RequestLocationPermission()
	case KindLocationServices:
		if !c.platform.LocationServicesNeeded() {
			return ErrNotNeeded
		}
		c.sdk.RequestLocationServices()
	case KindBackgroundLocation:
		if !c.platform.BackgroundLocationNeeded() {
			return ErrNotNeeded
		}
		c.sdk.RequestBackgroundLocationPermission()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return nil
}

func (c *Checker) check(ctx context.Context, call func(func(sdk.PermissionStatus))) (string, error) {
	return settle.Do(ctx, func(resolve func(string), _ func(error)) {
		call(func(status sdk.PermissionStatus) { resolve(string(status)) })
	})
}
