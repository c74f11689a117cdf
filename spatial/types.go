// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the geographic value types shared by the geocoders
// and the map collaborators.
package spatial

import (
	"fmt"
	"math"
)

const earthRadius = 6371e3 // meters

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Valid reports whether the point lies inside the WGS84 coordinate ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}

	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p Point) HaversineDistance(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Bounds is an axis-aligned box in latitude/longitude space.
type Bounds struct {
	SouthWest Point `json:"south_west"`
	NorthEast Point `json:"north_east"`
}

// NewBounds returns the box with the given corners. Corners are stored as
// given; use Valid to check them.
func NewBounds(southWest, northEast Point) Bounds {
	return Bounds{SouthWest: southWest, NorthEast: northEast}
}

// BoundsFromPoints returns the smallest box containing every point. A single
// point yields a zero-area box. It panics when called without points.
func BoundsFromPoints(points ...Point) Bounds {
	if len(points) == 0 {
		panic("spatial: BoundsFromPoints needs at least one point")
	}

	b := Bounds{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}

	return b
}

func (b Bounds) South() float64 { return b.SouthWest.Lat }
func (b Bounds) West() float64  { return b.SouthWest.Lng }
func (b Bounds) North() float64 { return b.NorthEast.Lat }
func (b Bounds) East() float64  { return b.NorthEast.Lng }

// CrossesAntimeridian reports whether the box wraps across the 180th
// meridian, that is west lies east of east.
func (b Bounds) CrossesAntimeridian() bool {
	return b.West() > b.East()
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Point {
	lng := (b.West() + b.East()) / 2
	if b.CrossesAntimeridian() {
		lng = normalizeLng((b.West() + b.East() + 360) / 2)
	}

	return Point{
		Lat: (b.South() + b.North()) / 2,
		Lng: lng,
	}
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p Point) bool {
	if p.Lat < b.South() || p.Lat > b.North() {
		return false
	}

	if b.CrossesAntimeridian() {
		return p.Lng >= b.West() || p.Lng <= b.East()
	}

	return p.Lng >= b.West() && p.Lng <= b.East()
}

// Extend returns the smallest box containing both b and p. A box crossing
// the antimeridian grows on the side closest to p.
func (b Bounds) Extend(p Point) Bounds {
	out := Bounds{
		SouthWest: Point{Lat: math.Min(b.South(), p.Lat), Lng: b.West()},
		NorthEast: Point{Lat: math.Max(b.North(), p.Lat), Lng: b.East()},
	}

	switch {
	case !b.CrossesAntimeridian():
		out.SouthWest.Lng = math.Min(b.West(), p.Lng)
		out.NorthEast.Lng = math.Max(b.East(), p.Lng)
	case p.Lng >= b.West() || p.Lng <= b.East():
	case b.West()-p.Lng < p.Lng-b.East():
		out.SouthWest.Lng = p.Lng
	default:
		out.NorthEast.Lng = p.Lng
	}

	return out
}

// Valid reports whether both corners are valid points and south is not
// above north. West may lie east of east for boxes crossing the
// antimeridian.
func (b Bounds) Valid() bool {
	return b.SouthWest.Valid() && b.NorthEast.Valid() && b.South() <= b.North()
}

// IsPoint reports whether the box has zero area on both axes.
func (b Bounds) IsPoint() bool {
	return b.SouthWest == b.NorthEast
}

// String renders the box as its two corners.
func (b Bounds) String() string {
	return fmt.Sprintf("BOX(%f %f, %f %f)", b.West(), b.South(), b.East(), b.North())
}

// normalizeLng maps lng into [-180, 180].
func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}

	for lng < -180 {
		lng += 360
	}

	return lng
}
