// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo implements the coordinate primitives used to check geocoding results: the
// Chile bounding box and great-circle distances.
package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000.0

// Point represents a geographic coordinate in WGS84.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Bounds is a rectangular latitude/longitude range.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// ChileBounds approximates continental Chile plus its extremes.
var ChileBounds = Bounds{MinLat: -56.0, MaxLat: -17.0, MinLon: -76.0, MaxLon: -66.0}

// String returns the point as "lat,lon".
func (p Point) String() string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) && !math.IsNaN(p.Lon) && !math.IsInf(p.Lon, 0)
}

// Valid checks if the coordinate is valid according to the EPSG logic
func (p Point) Valid() bool {
	return p.Finite() && p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Contains reports whether p lies inside b. Borders are inclusive.
func (b Bounds) Contains(p Point) bool {
	if !p.Finite() {
		return false
	}
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// InChile reports whether p lies inside ChileBounds.
func InChile(p Point) bool {
	return ChileBounds.Contains(p)
}

// Distance returns the great-circle distance between a and b in meters. We are using the
// Haversine formula on a sphere with the mean earth radius.
func Distance(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}
