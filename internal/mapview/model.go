package mapview

import (
	"github.com/mwantia/trainmap/internal/markers"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/geo"
)

type TileModel struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Attribution string  `json:"attribution"`
	MaxZoom     float64 `json:"maxZoom"`
	Active      bool    `json:"active"`
}

type UserModel struct {
	Position geo.LatLng   `json:"position"`
	Source   state.Source `json:"source"`
	Label    string       `json:"label,omitempty"`
}

// Model is what a renderer needs to draw the current map.
type Model struct {
	State     string            `json:"state"`
	View      ViewState         `json:"view"`
	Animating bool              `json:"animating"`
	Tiles     []TileModel       `json:"tiles"`
	Controls  []Control         `json:"controls"`
	Clustered bool              `json:"clustered"`
	Clusters  []markers.Cluster `json:"clusters"`
	Markers   []markers.Spec    `json:"markers"`
	User      *UserModel        `json:"user,omitempty"`
}

// Model snapshots the map for rendering. Clusters are computed at the
// current zoom.
func (c *Controller) Model() Model {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	m := Model{
		State:    c.state.String(),
		View:     c.View(),
		Tiles:    []TileModel{},
		Controls: []Control{},
		Clusters: []markers.Cluster{},
		Markers:  []markers.Spec{},
	}
	if c.surface == nil {
		return m
	}

	m.Animating = c.surface.Animating()
	for i, t := range c.tiles {
		m.Tiles = append(m.Tiles, TileModel{
			Name:        t.Name,
			URL:         t.URL,
			Attribution: t.Attribution,
			MaxZoom:     t.MaxZoom,
			Active:      i == c.activeTile,
		})
	}
	for _, ctl := range c.controls {
		m.Controls = append(m.Controls, *ctl)
	}

	switch layer := c.layer.(type) {
	case *ClusterLayer:
		m.Clustered = true
		_, zoom := c.surface.View()
		clusters, singles := layer.Groups(zoom)
		m.Clusters = append(m.Clusters, clusters...)
		m.Markers = append(m.Markers, singles...)
	case nil:
	default:
		for _, gm := range layer.Markers() {
			m.Markers = append(m.Markers, gm.Spec())
		}
	}

	if c.user != nil {
		m.User = &UserModel{Position: c.user.Position, Source: c.user.Source, Label: c.user.Label}
	}
	return m
}
