package mapview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/internal/markers"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/db/models"
	"github.com/mwantia/trainmap/pkg/db/store"
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/log"
	"github.com/mwantia/trainmap/pkg/training"
)

var (
	defaultCenter = geo.LatLng{Lat: 51.1657, Lng: 10.4515}
	now           = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
)

type memViews struct {
	mutex sync.Mutex
	view  *models.MapView
	saves int
}

func (m *memViews) SaveMapView(_ context.Context, v *models.MapView) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	copied := *v
	m.view = &copied
	m.saves++
	return nil
}

func (m *memViews) GetMapView(context.Context) (*models.MapView, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.view == nil {
		return nil, store.ErrNotFound
	}
	copied := *m.view
	return &copied, nil
}

type fixture struct {
	ctrl    *Controller
	frames  *ManualFrames
	views   *memViews
	surface *Headless
}

func testLogger() log.LoggerService {
	return log.NewLoggerService("test", config.LogServerConfig{Level: "fatal", NoTerminal: true, NoColor: true})
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()

	f := &fixture{frames: NewManualFrames(), views: &memViews{}}
	opts := Options{
		Frames: f.frames,
		Views:  f.views,
		Now:    func() time.Time { return now },
		Factory: func(center geo.LatLng, zoom float64) (Surface, error) {
			f.surface = NewHeadless(center, zoom, 1024, 768)
			return f.surface, nil
		},
	}
	if mutate != nil {
		mutate(&opts)
	}

	f.ctrl = NewController(testLogger(), Config{
		Center:        defaultCenter,
		Zoom:          6,
		MaxFitZoom:    15,
		FitPadding:    50,
		ClickAnchor:   0.7,
		ViewTTL:       DefaultViewTTL,
		ClusterRadius: 80,
		Tiles: []TileConfig{
			{Name: "Karte", URL: "https://tiles.example/{z}/{x}/{y}.png", MaxZoom: 19},
			{Name: "Satellit", URL: "https://sat.example/{z}/{y}/{x}", MaxZoom: 18},
		},
	}, opts)
	return f
}

func fptr(v float64) *float64 { return &v }

func sample() []training.Training {
	return []training.Training{
		{ID: 1, Weekday: training.Monday, Type: "Judo", Location: "Halle A", Lat: fptr(50.0), Lng: fptr(8.0)},
		{ID: 2, Weekday: training.Tuesday, Type: "Boxen", Location: "Halle B", Lat: fptr(50.1), Lng: fptr(8.0)},
		{ID: 3, Weekday: training.Friday, Type: "Yoga", Location: "Online"},
	}
}

func countLayers[T Layer](layers []Layer) int {
	n := 0
	for _, l := range layers {
		if _, ok := l.(T); ok {
			n++
		}
	}
	return n
}

func TestInitUsesDefaultView(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	assert.Equal(t, StateReady, f.ctrl.State())
	center, zoom := f.surface.View()
	assert.Equal(t, defaultCenter, center)
	assert.Equal(t, 6.0, zoom)

	assert.Equal(t, 1, countLayers[*TileLayer](f.surface.Layers()))
	assert.Len(t, f.surface.Controls(), 3)

	require.NoError(t, f.ctrl.Init(context.Background()))
	assert.Equal(t, 1, countLayers[*TileLayer](f.surface.Layers()))
}

func TestInitRestoresFreshView(t *testing.T) {
	f := newFixture(t, nil)
	f.views.view = &models.MapView{CenterLat: 48.1, CenterLng: 11.5, Zoom: 12, SavedAt: now.Add(-24 * time.Hour)}

	require.NoError(t, f.ctrl.Init(context.Background()))
	center, zoom := f.surface.View()
	assert.Equal(t, geo.LatLng{Lat: 48.1, Lng: 11.5}, center)
	assert.Equal(t, 12.0, zoom)

	// The restored view survives every later refresh.
	for _, list := range [][]training.Training{sample(), sample()[:1]} {
		f.ctrl.Refresh(list)
		f.frames.Flush()
		center, zoom = f.surface.View()
		assert.Equal(t, geo.LatLng{Lat: 48.1, Lng: 11.5}, center)
		assert.Equal(t, 12.0, zoom)
	}
}

func TestInitIgnoresStaleOrInvalidView(t *testing.T) {
	for name, view := range map[string]*models.MapView{
		"stale":   {CenterLat: 48.1, CenterLng: 11.5, Zoom: 12, SavedAt: now.Add(-8 * 24 * time.Hour)},
		"invalid": {CenterLat: 148.1, CenterLng: 11.5, Zoom: 12, SavedAt: now},
		"zoom":    {CenterLat: 48.1, CenterLng: 11.5, Zoom: 40, SavedAt: now},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.views.view = view

			require.NoError(t, f.ctrl.Init(context.Background()))
			center, _ := f.surface.View()
			assert.Equal(t, defaultCenter, center)
		})
	}
}

func TestInitSurfaceFailure(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Factory = func(geo.LatLng, float64) (Surface, error) {
			return nil, errors.New("no canvas")
		}
	})

	err := f.ctrl.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateUninitialized, f.ctrl.State())
	assert.NotPanics(t, f.ctrl.Destroy)
}

func TestRefreshIsDeferredAndSuperseded(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	f.ctrl.Refresh(sample())
	f.ctrl.Refresh(sample()[:1])
	assert.Equal(t, 0, countLayers[*ClusterLayer](f.surface.Layers()))

	assert.Equal(t, 1, f.frames.Flush())
	require.Equal(t, 1, countLayers[*ClusterLayer](f.surface.Layers()))

	model := f.ctrl.Model()
	assert.True(t, model.Clustered)
	require.Len(t, model.Markers, 1)
	assert.Equal(t, []int{1}, model.Markers[0].TrainingIDs)
}

func TestRefreshReplacesOldLayer(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	f.ctrl.Refresh(sample())
	f.frames.Flush()
	old := f.ctrl.layer
	require.NotNil(t, old)

	f.ctrl.Refresh(sample()[1:])
	f.frames.Flush()

	assert.False(t, f.surface.HasLayer(old))
	assert.Equal(t, 1, countLayers[*ClusterLayer](f.surface.Layers()))
	for _, m := range old.Markers() {
		assert.False(t, m.Attached())
		assert.Zero(t, m.Events().ListenerCount())
	}
}

func TestAutoFitOnlyOnFirstLoad(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	f.ctrl.Refresh(sample())
	f.frames.Flush()

	center, zoom := f.surface.View()
	assert.InDelta(t, 50.05, center.Lat, 0.01)
	assert.InDelta(t, 8.0, center.Lng, 0.0001)
	assert.LessOrEqual(t, zoom, 15.0)
	assert.False(t, f.ctrl.View().UserInteracted)

	f.ctrl.Refresh(sample()[:1])
	f.frames.Flush()
	again, againZoom := f.surface.View()
	assert.Equal(t, center, again)
	assert.Equal(t, zoom, againZoom)
}

func TestAutoFitSkippedAfterUserMove(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	moved := geo.LatLng{Lat: 52.52, Lng: 13.40}
	f.surface.UserMove(moved, 11)
	assert.True(t, f.ctrl.View().UserInteracted)

	f.ctrl.Refresh(sample())
	f.frames.Flush()
	center, zoom := f.surface.View()
	assert.Equal(t, moved, center)
	assert.Equal(t, 11.0, zoom)
}

func TestAutoFitWaitsForMarkers(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	f.ctrl.Refresh(nil)
	f.frames.Flush()
	center, _ := f.surface.View()
	assert.Equal(t, defaultCenter, center)

	f.ctrl.Refresh(sample())
	f.frames.Flush()
	center, _ = f.surface.View()
	assert.InDelta(t, 50.05, center.Lat, 0.01)
}

func TestMoveEndPersistsValidViews(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	f.surface.UserMove(geo.LatLng{Lat: 52.52, Lng: 13.40}, 11)
	saved, err := f.views.GetMapView(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 52.52, saved.CenterLat)
	assert.Equal(t, now, saved.SavedAt)

	saves := f.views.saves
	f.surface.UserMove(geo.LatLng{Lat: 95, Lng: 13.40}, 11)
	assert.Equal(t, saves, f.views.saves)
}

func TestClusterFailureDegradesToPlainMarkers(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Clusters = func(Surface, []markers.Spec, float64) (MarkerLayer, error) {
			return nil, errors.New("plugin missing")
		}
	})
	require.NoError(t, f.ctrl.Init(context.Background()))

	f.ctrl.Refresh(sample())
	f.frames.Flush()

	assert.Equal(t, 1, countLayers[*PlainLayer](f.surface.Layers()))
	model := f.ctrl.Model()
	assert.False(t, model.Clustered)
	assert.Len(t, model.Markers, 2)
}

func TestMarkerClickCentersAtAnchor(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	f.ctrl.Refresh(sample()[:1])
	f.frames.Flush()
	_, zoom := f.surface.View()

	spec := f.ctrl.layer.Markers()[0]
	require.NoError(t, f.ctrl.ClickMarker(spec.Spec().ID))

	want := markers.ClickOffsetCenter(spec.Spec().Position, zoom, 768, 0.7)
	center, _ := f.surface.View()
	assert.InDelta(t, want.Lat, center.Lat, 1e-9)
	assert.InDelta(t, want.Lng, center.Lng, 1e-9)
	assert.True(t, f.surface.Animating())

	assert.False(t, spec.Popup().IsOpen())
	f.frames.Flush()
	assert.True(t, spec.Popup().IsOpen())

	assert.ErrorIs(t, f.ctrl.ClickMarker("nope"), ErrUnknownMarker)
}

func TestFrameAfterDestroyIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))
	f.ctrl.Refresh(sample()[:1])
	f.frames.Flush()

	m := f.ctrl.layer.Markers()[0]
	require.NoError(t, f.ctrl.ClickMarker(m.Spec().ID))
	f.ctrl.Refresh(sample())
	f.ctrl.Destroy()

	assert.NotPanics(t, func() { f.frames.Flush() })
	assert.False(t, m.Popup().IsOpen())
	assert.False(t, m.AnimateZoom(3))
}

func TestDestroyDetachesEverything(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))
	f.ctrl.Refresh(sample())
	f.frames.Flush()
	f.ctrl.SetUserMarker(geo.LatLng{Lat: 50, Lng: 8}, state.SourceDevice, "")

	tiles := append([]*TileLayer(nil), f.ctrl.tiles...)
	layer := f.ctrl.layer
	surface := f.surface

	f.ctrl.Destroy()

	assert.Equal(t, StateDestroyed, f.ctrl.State())
	assert.True(t, surface.Removed())
	assert.Zero(t, surface.Events().ListenerCount())
	assert.Zero(t, layer.Events().ListenerCount())
	for _, tl := range tiles {
		assert.Zero(t, tl.Events().ListenerCount())
	}
	for _, m := range layer.Markers() {
		assert.False(t, m.Attached())
		assert.Zero(t, m.Events().ListenerCount())
	}
	assert.Nil(t, f.ctrl.surface)
	assert.Nil(t, f.ctrl.layer)
	assert.Nil(t, f.ctrl.user)

	assert.NotPanics(t, f.ctrl.Destroy)
	assert.ErrorIs(t, f.ctrl.ResetView(), ErrNotReady)
}

func TestReinitRestoresAutoFit(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))
	f.surface.UserMove(geo.LatLng{Lat: 52.52, Lng: 13.40}, 11)
	require.True(t, f.ctrl.View().UserInteracted)

	f.ctrl.Refresh(sample())
	f.frames.Flush()

	f.ctrl.Destroy()
	f.views.view = nil
	require.NoError(t, f.ctrl.Init(context.Background()))
	assert.False(t, f.ctrl.View().UserInteracted)

	f.frames.Flush()
	center, _ := f.surface.View()
	assert.InDelta(t, 50.05, center.Lat, 0.01)
}

func TestZoomToFavorites(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	ok, err := f.ctrl.ZoomToFavorites(sample(), map[int]bool{3: true})
	require.NoError(t, err)
	assert.False(t, ok)
	center, zoom := f.surface.View()
	assert.Equal(t, defaultCenter, center)
	assert.Equal(t, 6.0, zoom)

	ok, err = f.ctrl.ZoomToFavorites(sample(), map[int]bool{1: true})
	require.NoError(t, err)
	assert.True(t, ok)
	center, zoom = f.surface.View()
	assert.Equal(t, geo.LatLng{Lat: 50, Lng: 8}, center)
	assert.Equal(t, 15.0, zoom)
}

func TestUserMarkerIsUnique(t *testing.T) {
	f := newFixture(t, nil)
	assert.NotPanics(t, f.ctrl.RemoveUserMarker)

	f.ctrl.SetUserMarker(geo.LatLng{Lat: 50, Lng: 8}, state.SourceManual, "Zuhause")
	require.NoError(t, f.ctrl.Init(context.Background()))
	assert.Equal(t, 1, countLayers[*UserMarker](f.surface.Layers()))

	f.ctrl.SetUserMarker(geo.LatLng{Lat: 50.1, Lng: 8}, state.SourceDevice, "")
	f.ctrl.SetUserMarker(geo.LatLng{Lat: 50.2, Lng: 8}, state.SourceManual, "Büro")
	assert.Equal(t, 1, countLayers[*UserMarker](f.surface.Layers()))
	assert.Equal(t, "Büro", f.ctrl.Model().User.Label)

	f.ctrl.RemoveUserMarker()
	f.ctrl.RemoveUserMarker()
	assert.Equal(t, 0, countLayers[*UserMarker](f.surface.Layers()))
}

func TestSwitchTileLayer(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctrl.Init(context.Background()))

	require.NoError(t, f.ctrl.SwitchTileLayer("Satellit"))
	assert.Equal(t, 1, countLayers[*TileLayer](f.surface.Layers()))
	assert.True(t, f.ctrl.Model().Tiles[1].Active)

	assert.ErrorIs(t, f.ctrl.SwitchTileLayer("Nacht"), ErrUnknownTile)
}

func TestGeolocateControl(t *testing.T) {
	f := newFixture(t, nil)
	assert.ErrorIs(t, f.ctrl.Geolocate(context.Background()), ErrNotReady)

	require.NoError(t, f.ctrl.Init(context.Background()))
	assert.ErrorIs(t, f.ctrl.Geolocate(context.Background()), ErrNoGeolocateHook)

	called := false
	f.ctrl.SetGeolocateHandler(func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, f.ctrl.Geolocate(context.Background()))
	assert.True(t, called)
}

func TestReportUserMove(t *testing.T) {
	f := newFixture(t, nil)
	assert.ErrorIs(t, f.ctrl.ReportUserMove(geo.LatLng{Lat: 50, Lng: 8}, 10), ErrNotReady)

	require.NoError(t, f.ctrl.Init(context.Background()))
	require.NoError(t, f.ctrl.ReportUserMove(geo.LatLng{Lat: 50, Lng: 8}, 10))
	assert.True(t, f.ctrl.View().UserInteracted)
	assert.Equal(t, geo.LatLng{Lat: 50, Lng: 8}, f.ctrl.View().Center)

	assert.Error(t, f.ctrl.ReportUserMove(geo.LatLng{Lat: 50, Lng: 8}, 30))
}
