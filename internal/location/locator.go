package location

import (
	"context"

	"github.com/mwantia/trainmap/pkg/geo"
)

// DeviceLocator resolves the current device position.
type DeviceLocator interface {
	Locate(ctx context.Context) (geo.LatLng, error)
}

// StaticLocator reports a configured position. A disabled locator behaves
// like a device whose user denied access.
type StaticLocator struct {
	Enabled  bool
	Position geo.LatLng
}

func (l StaticLocator) Locate(ctx context.Context) (geo.LatLng, error) {
	if err := ctx.Err(); err != nil {
		return geo.LatLng{}, err
	}
	if !l.Enabled {
		return geo.LatLng{}, ErrPermissionDenied
	}
	if !l.Position.Valid() {
		return geo.LatLng{}, ErrUnavailable
	}
	return l.Position, nil
}

// LocatorFunc adapts a function to DeviceLocator.
type LocatorFunc func(ctx context.Context) (geo.LatLng, error)

func (f LocatorFunc) Locate(ctx context.Context) (geo.LatLng, error) {
	return f(ctx)
}
