package geo

// Bounds represents a geographic bounding box. The zero value is empty.
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`

	set bool
}

// NewBounds returns the smallest box containing all points.
func NewBounds(points ...LatLng) Bounds {
	var b Bounds
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// Empty reports whether no point was ever added.
func (b Bounds) Empty() bool {
	return !b.set
}

// Extend returns a copy of b grown to contain p. Invalid points are ignored.
func (b Bounds) Extend(p LatLng) Bounds {
	if !p.Valid() {
		return b
	}
	if !b.set {
		return Bounds{SouthWest: p, NorthEast: p, set: true}
	}
	if p.Lat < b.SouthWest.Lat {
		b.SouthWest.Lat = p.Lat
	}
	if p.Lng < b.SouthWest.Lng {
		b.SouthWest.Lng = p.Lng
	}
	if p.Lat > b.NorthEast.Lat {
		b.NorthEast.Lat = p.Lat
	}
	if p.Lng > b.NorthEast.Lng {
		b.NorthEast.Lng = p.Lng
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b Bounds) Union(other Bounds) Bounds {
	if other.Empty() {
		return b
	}
	if b.Empty() {
		return other
	}
	return b.Extend(other.SouthWest).Extend(other.NorthEast)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// Contains reports whether p lies inside the box (inclusive).
func (b Bounds) Contains(p LatLng) bool {
	if b.Empty() {
		return false
	}
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// IsPoint reports whether the box collapses to a single coordinate.
func (b Bounds) IsPoint() bool {
	return b.set && b.SouthWest == b.NorthEast
}
