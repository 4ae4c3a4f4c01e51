package markers

import (
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/training"
)

// DefaultClickAnchor places a clicked marker at 70% of the viewport height,
// leaving room for its popup above.
const DefaultClickAnchor = 0.7

// ClickOffsetCenter returns the map center that shows marker at anchor times
// the viewport height (measured from the top) without changing the zoom.
func ClickOffsetCenter(marker geo.LatLng, zoom, viewportHeight, anchor float64) geo.LatLng {
	if anchor <= 0 || anchor >= 1 {
		anchor = DefaultClickAnchor
	}

	p := geo.Project(marker, zoom)
	p.Y -= (anchor - 0.5) * viewportHeight
	return geo.Unproject(p, zoom)
}

// FavoritesBounds returns the bounds of every favourite training with
// coordinates and how many contributed.
func FavoritesBounds(trainings []training.Training, favorites map[int]bool) (geo.Bounds, int) {
	bounds := geo.NewBounds()
	count := 0
	for _, t := range trainings {
		if !favorites[t.ID] {
			continue
		}
		if ll, ok := t.Coordinates(); ok {
			bounds = bounds.Extend(ll)
			count++
		}
	}
	return bounds, count
}

// SpecBounds returns the bounds of all marker positions.
func SpecBounds(specs []Spec) geo.Bounds {
	bounds := geo.NewBounds()
	for _, s := range specs {
		bounds = bounds.Extend(s.Position)
	}
	return bounds
}

// FitView computes center and zoom showing b inside the viewport with padding
// and never zooming past maxZoom.
func FitView(b geo.Bounds, width, height, padding, maxZoom float64) (geo.LatLng, float64) {
	return b.Center(), geo.BoundsZoom(b, width, height, padding, maxZoom)
}
