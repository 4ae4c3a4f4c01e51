package mapview

import (
	"errors"

	"github.com/mwantia/trainmap/internal/markers"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/geo"
)

var ErrInvalidClusterRadius = errors.New("cluster radius must be positive")

type TileLayer struct {
	events Evented

	Name        string
	URL         string
	Attribution string
	MaxZoom     float64
}

func (t *TileLayer) LayerID() string  { return "tile:" + t.Name }
func (t *TileLayer) Events() *Evented { return &t.events }

// MarkerLayer holds the location markers of one refresh.
type MarkerLayer interface {
	Layer
	Markers() []*GuardedMarker
	Clustered() bool
}

// ClusterFactory creates the clustered marker layer.
type ClusterFactory func(s Surface, specs []markers.Spec, radius float64) (MarkerLayer, error)

type ClusterLayer struct {
	events  Evented
	radius  float64
	markers []*GuardedMarker
}

func NewClusterLayer(s Surface, specs []markers.Spec, radius float64) (MarkerLayer, error) {
	if radius <= 0 {
		return nil, ErrInvalidClusterRadius
	}
	return &ClusterLayer{
		radius:  radius,
		markers: guardAll(s, specs),
	}, nil
}

func (c *ClusterLayer) LayerID() string           { return "markers:clustered" }
func (c *ClusterLayer) Events() *Evented          { return &c.events }
func (c *ClusterLayer) Markers() []*GuardedMarker { return c.markers }
func (c *ClusterLayer) Clustered() bool           { return true }

// Groups clusters the markers at zoom.
func (c *ClusterLayer) Groups(zoom float64) ([]markers.Cluster, []markers.Spec) {
	specs := make([]markers.Spec, 0, len(c.markers))
	for _, m := range c.markers {
		specs = append(specs, m.Spec())
	}
	return markers.ClusterSpecs(specs, zoom, c.radius)
}

// PlainLayer shows every marker individually.
type PlainLayer struct {
	events  Evented
	markers []*GuardedMarker
}

func NewPlainLayer(s Surface, specs []markers.Spec) MarkerLayer {
	return &PlainLayer{markers: guardAll(s, specs)}
}

func (p *PlainLayer) LayerID() string           { return "markers:plain" }
func (p *PlainLayer) Events() *Evented          { return &p.events }
func (p *PlainLayer) Markers() []*GuardedMarker { return p.markers }
func (p *PlainLayer) Clustered() bool           { return false }

func guardAll(s Surface, specs []markers.Spec) []*GuardedMarker {
	out := make([]*GuardedMarker, 0, len(specs))
	for _, spec := range specs {
		out = append(out, newGuardedMarker(s, spec))
	}
	return out
}

// UserMarker is the single "my location" marker.
type UserMarker struct {
	events Evented

	Position geo.LatLng
	Source   state.Source
	Label    string
}

func (u *UserMarker) LayerID() string  { return "user" }
func (u *UserMarker) Events() *Evented { return &u.events }
