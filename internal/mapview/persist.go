package mapview

import (
	"context"
	"time"

	"github.com/mwantia/trainmap/pkg/db/models"
	"github.com/mwantia/trainmap/pkg/geo"
)

// DefaultViewTTL is how long a persisted view is restored.
const DefaultViewTTL = 7 * 24 * time.Hour

const maxZoom = 22

// ViewStore is the part of the state store holding the map_view slot.
type ViewStore interface {
	SaveMapView(ctx context.Context, view *models.MapView) error
	GetMapView(ctx context.Context) (*models.MapView, error)
}

// ViewState is the current map view.
type ViewState struct {
	Center         geo.LatLng `json:"center"`
	Zoom           float64    `json:"zoom"`
	UserInteracted bool       `json:"userInteracted"`
}

func validView(center geo.LatLng, zoom float64) bool {
	return center.Valid() && zoom >= 0 && zoom <= maxZoom
}

// restoredView returns the persisted view when it is younger than ttl and
// inside the coordinate range.
func restoredView(ctx context.Context, views ViewStore, now time.Time, ttl time.Duration) (geo.LatLng, float64, bool) {
	if views == nil {
		return geo.LatLng{}, 0, false
	}

	saved, err := views.GetMapView(ctx)
	if err != nil || saved == nil {
		return geo.LatLng{}, 0, false
	}
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	if saved.SavedAt.IsZero() || now.Sub(saved.SavedAt) > ttl {
		return geo.LatLng{}, 0, false
	}

	center := geo.LatLng{Lat: saved.CenterLat, Lng: saved.CenterLng}
	if !validView(center, saved.Zoom) {
		return geo.LatLng{}, 0, false
	}
	return center, saved.Zoom, true
}
