package mapview

import (
	"errors"

	"github.com/mwantia/trainmap/pkg/geo"
)

var ErrSurfaceRemoved = errors.New("map surface already removed")

// Layer is anything that can be added to a surface.
type Layer interface {
	LayerID() string
	Events() *Evented
}

type ControlKind string

const (
	ControlGeolocate ControlKind = "geolocate"
	ControlResetView ControlKind = "reset-view"
	ControlLayers    ControlKind = "layers"
)

type Control struct {
	Kind  ControlKind `json:"kind"`
	Title string      `json:"title"`
}

// Surface is the rendering target of the map model.
type Surface interface {
	Events() *Evented

	SetView(center geo.LatLng, zoom float64, animate bool)
	View() (geo.LatLng, float64)
	Size() (width, height float64)
	StopAnimation()
	Animating() bool

	AddLayer(l Layer) error
	RemoveLayer(l Layer)
	HasLayer(l Layer) bool
	AddControl(c *Control)
	RemoveControl(c *Control)

	Remove()
}

// SurfaceFactory creates a surface showing the initial view.
type SurfaceFactory func(center geo.LatLng, zoom float64) (Surface, error)
