package geo

import "math"

// TileSize is the pixel edge of a Web Mercator tile at zoom 0.
const TileSize = 256.0

const maxMercatorLat = 85.0511287798

// Point is a position in projected pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Project converts a coordinate to absolute pixel space at the given zoom.
func Project(ll LatLng, zoom float64) Point {
	scale := TileSize * math.Pow(2, zoom)
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, ll.Lat))
	sin := math.Sin(degreesToRadians(lat))

	return Point{
		X: (ll.Lng + 180) / 360 * scale,
		Y: (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale,
	}
}

// Unproject converts absolute pixel space back to a coordinate.
func Unproject(p Point, zoom float64) LatLng {
	scale := TileSize * math.Pow(2, zoom)
	lng := p.X/scale*360 - 180
	n := math.Pi - 2*math.Pi*p.Y/scale
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))

	return LatLng{Lat: lat, Lng: lng}
}

// BoundsZoom returns the highest zoom at which b fits into a viewport of the
// given size after subtracting padding on every side, capped at maxZoom.
func BoundsZoom(b Bounds, width, height, padding, maxZoom float64) float64 {
	if b.Empty() {
		return maxZoom
	}
	usableW := math.Max(1, width-2*padding)
	usableH := math.Max(1, height-2*padding)

	zoom := maxZoom
	for zoom > 0 {
		sw := Project(b.SouthWest, zoom)
		ne := Project(b.NorthEast, zoom)
		if math.Abs(ne.X-sw.X) <= usableW && math.Abs(sw.Y-ne.Y) <= usableH {
			return zoom
		}
		zoom--
	}
	return 0
}
