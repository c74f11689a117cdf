// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundsFromPoints(t *testing.T) {
	p := Point{Lat: -34.9011, Lng: -56.1645}

	b := BoundsFromPoints(p)
	assert.True(t, b.IsPoint())
	assert.True(t, b.Contains(p))
	assert.Equal(t, p, b.Center())

	b = BoundsFromPoints(p, Point{Lat: -34.8, Lng: -56.2}, Point{Lat: -35, Lng: -56})
	assert.Equal(t, Bounds{
		SouthWest: Point{Lat: -35, Lng: -56.2},
		NorthEast: Point{Lat: -34.8, Lng: -56},
	}, b)
	assert.False(t, b.IsPoint())
	assert.True(t, b.Valid())
}

func TestBoundsContains(t *testing.T) {
	b := NewBounds(Point{Lat: 48.8, Lng: 2.2}, Point{Lat: 48.9, Lng: 2.4})

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", b.Center(), true},
		{"south west corner", b.SouthWest, true},
		{"north east corner", b.NorthEast, true},
		{"north of box", Point{Lat: 49, Lng: 2.3}, false},
		{"west of box", Point{Lat: 48.85, Lng: 2.1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Contains(tt.p))
		})
	}
}

func TestBoundsAcrossAntimeridian(t *testing.T) {
	fiji := NewBounds(Point{Lat: -21.94, Lng: 172}, Point{Lat: -12.26, Lng: -178.5})
	assert.True(t, fiji.CrossesAntimeridian())
	assert.True(t, fiji.Valid())

	center := fiji.Center()
	assert.InDelta(t, -17.1, center.Lat, 1e-9)
	assert.InDelta(t, 176.75, center.Lng, 1e-9)
	assert.True(t, fiji.Contains(center))

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"west of the meridian", Point{Lat: -17, Lng: 178}, true},
		{"east of the meridian", Point{Lat: -17, Lng: -179}, true},
		{"on the meridian", Point{Lat: -17, Lng: 180}, true},
		{"outside the gap", Point{Lat: -17, Lng: 0}, false},
		{"south of box", Point{Lat: -30, Lng: 178}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fiji.Contains(tt.p))
		})
	}

	// the shorter way to the point wins
	grown := fiji.Extend(Point{Lat: -17, Lng: -170})
	assert.Equal(t, -170.0, grown.East())
	assert.Equal(t, 172.0, grown.West())

	grown = fiji.Extend(Point{Lat: -17, Lng: 165})
	assert.Equal(t, 165.0, grown.West())
	assert.Equal(t, -178.5, grown.East())

	same := fiji.Extend(Point{Lat: -10, Lng: 179})
	assert.Equal(t, -10.0, same.North())
	assert.Equal(t, fiji.West(), same.West())
	assert.Equal(t, fiji.East(), same.East())

	// boxes on the near side of the meridian keep the plain midpoint
	assert.Equal(t, Point{Lat: 1.5, Lng: 1.5}, NewBounds(Point{Lat: 1, Lng: 1}, Point{Lat: 2, Lng: 2}).Center())
}

func TestBoundsValid(t *testing.T) {
	assert.True(t, NewBounds(Point{Lat: 1, Lng: 1}, Point{Lat: 2, Lng: 2}).Valid())
	assert.False(t, NewBounds(Point{Lat: 2, Lng: 1}, Point{Lat: 1, Lng: 2}).Valid(), "south above north")
	assert.True(t, NewBounds(Point{Lat: 1, Lng: 179}, Point{Lat: 2, Lng: -179}).Valid(), "crossing the antimeridian")
	assert.False(t, NewBounds(Point{Lat: -91, Lng: 1}, Point{Lat: 2, Lng: 2}).Valid())
	assert.False(t, Point{Lat: math.NaN()}.Valid())
}

func TestHaversineDistance(t *testing.T) {
	montevideo := Point{Lat: -34.9011, Lng: -56.1645}
	maldonado := Point{Lat: -34.9000, Lng: -54.9500}

	d := montevideo.HaversineDistance(maldonado)
	assert.InDelta(t, 110_800, d, 1_500)
	assert.Zero(t, montevideo.HaversineDistance(montevideo))
}
