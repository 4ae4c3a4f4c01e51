package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	// Berlin Alexanderplatz to Hamburg Hauptbahnhof is roughly 255 km.
	d := Haversine(52.5219, 13.4132, 53.5530, 10.0069)
	assert.InDelta(t, 255.0, d, 5.0)

	assert.Equal(t, 0.0, Haversine(48.1, 11.5, 48.1, 11.5))
}

func TestDistanceZeroOnlyForEqualCoordinates(t *testing.T) {
	p := LatLng{Lat: 50.1109, Lng: 8.6821}
	assert.Equal(t, 0.0, Distance(p, p))

	q := LatLng{Lat: 50.1110, Lng: 8.6821}
	assert.Greater(t, Distance(p, q), 0.0)
}

func TestDistanceTriangleSanity(t *testing.T) {
	a := LatLng{Lat: 52.52, Lng: 13.40}
	b := LatLng{Lat: 48.14, Lng: 11.58}
	c := LatLng{Lat: 50.94, Lng: 6.96}

	ab := Distance(a, b)
	bc := Distance(b, c)
	ac := Distance(a, c)

	for _, d := range []float64{ab, bc, ac} {
		assert.GreaterOrEqual(t, d, 0.0)
	}
	assert.LessOrEqual(t, ac, ab+bc+1e-6)
	assert.LessOrEqual(t, ab, ac+bc+1e-6)
}

func TestHaversineAntipodal(t *testing.T) {
	d := Haversine(0, 0, 0, 180)
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1e-6)
}

func TestIsValidLatLng(t *testing.T) {
	assert.True(t, IsValidLatLng(0, 0))
	assert.True(t, IsValidLatLng(-90, 180))
	assert.False(t, IsValidLatLng(91, 0))
	assert.False(t, IsValidLatLng(0, -181))
	assert.False(t, IsValidLatLng(math.NaN(), 0))
	assert.False(t, IsValidLatLng(0, math.Inf(1)))
}

func TestBoundsExtendAndUnion(t *testing.T) {
	var b Bounds
	require.True(t, b.Empty())

	b = b.Extend(LatLng{Lat: 50, Lng: 8})
	assert.True(t, b.IsPoint())

	b = b.Extend(LatLng{Lat: 51, Lng: 7})
	assert.Equal(t, LatLng{Lat: 50, Lng: 7}, b.SouthWest)
	assert.Equal(t, LatLng{Lat: 51, Lng: 8}, b.NorthEast)

	other := NewBounds(LatLng{Lat: 49, Lng: 9})
	u := b.Union(other)
	assert.Equal(t, LatLng{Lat: 49, Lng: 7}, u.SouthWest)
	assert.Equal(t, LatLng{Lat: 51, Lng: 9}, u.NorthEast)
	assert.True(t, u.Contains(LatLng{Lat: 50, Lng: 8}))

	assert.Equal(t, b, b.Union(Bounds{}))
	assert.Equal(t, other, Bounds{}.Union(other))
}

func TestBoundsIgnoresInvalidPoints(t *testing.T) {
	b := NewBounds(LatLng{Lat: 120, Lng: 0})
	assert.True(t, b.Empty())
}

func TestProjectRoundTrip(t *testing.T) {
	ll := LatLng{Lat: 50.7374, Lng: 7.0982}
	for _, zoom := range []float64{0, 5, 13, 18} {
		back := Unproject(Project(ll, zoom), zoom)
		assert.InDelta(t, ll.Lat, back.Lat, 1e-9)
		assert.InDelta(t, ll.Lng, back.Lng, 1e-9)
	}
}

func TestBoundsZoomRespectsCeiling(t *testing.T) {
	single := NewBounds(LatLng{Lat: 50, Lng: 8})
	assert.Equal(t, 15.0, BoundsZoom(single, 800, 600, 50, 15))

	wide := NewBounds(LatLng{Lat: 47.3, Lng: 5.9}, LatLng{Lat: 55.0, Lng: 15.0})
	z := BoundsZoom(wide, 800, 600, 50, 15)
	assert.Less(t, z, 8.0)
	assert.Greater(t, z, 0.0)
}
