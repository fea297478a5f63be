// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package location provides the location feeds that drive the loopback SDK.
package location

import (
	"context"
	"math"

	"github.com/wneessen/roam-tripdemo/internal/sdk"
)

const EarthRadius = 6371000.0 // meters

// Source streams location updates until ctx is done. The returned channel is closed when the
// source stops.
type Source interface {
	Name() string
	Stream(ctx context.Context) <-chan sdk.Location
}

// Distance returns the great-circle distance in meters between two locations using the
// Haversine formula.
func Distance(a, b sdk.Location) float64 {
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

// Valid checks if the coordinates are within the EPSG:4326 bounds.
func Valid(l sdk.Location) bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}
