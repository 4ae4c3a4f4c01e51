package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/internal/favorites"
	"github.com/mwantia/trainmap/internal/location"
	"github.com/mwantia/trainmap/internal/mapview"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/log"
	"github.com/mwantia/trainmap/pkg/training"
)

type memFavorites struct {
	mutex sync.Mutex
	ids   map[int]bool
}

func (m *memFavorites) AddFavorite(_ context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.ids[id] = true
	return nil
}

func (m *memFavorites) RemoveFavorite(_ context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.ids, id)
	return nil
}

func (m *memFavorites) ListFavorites(context.Context) ([]int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ids := make([]int, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	return ids, nil
}

func fptr(v float64) *float64 { return &v }

func testLogger() log.LoggerService {
	return log.NewLoggerService("test", config.LogServerConfig{Level: "fatal", NoTerminal: true, NoColor: true})
}

type fixture struct {
	server  *Server
	store   *state.Store
	ctrl    *mapview.Controller
	frames  *mapview.ManualFrames
	notices *Notices
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := testLogger()
	st := state.NewStore(nil, state.StoreOptions{})
	st.Dispatch(state.LoadTrainings{Trainings: []training.Training{
		{ID: 1, Weekday: training.Monday, Type: "Judo", Location: "Halle A", Lat: fptr(50.0), Lng: fptr(8.0)},
		{ID: 2, Weekday: training.Tuesday, Type: "Boxen", Location: "Halle B", Lat: fptr(50.1), Lng: fptr(8.0)},
		{ID: 3, Weekday: training.Friday, Type: "Yoga", Location: "Online"},
	}})

	f := &fixture{store: st, frames: mapview.NewManualFrames(), notices: NewNotices()}
	f.ctrl = mapview.NewController(logger, mapview.Config{
		Center:     geo.LatLng{Lat: 51.1657, Lng: 10.4515},
		Zoom:       6,
		MaxFitZoom: 15,
		FitPadding: 50,
		Tiles: []mapview.TileConfig{
			{Name: "Karte", URL: "https://tiles.example/{z}/{x}/{y}.png", MaxZoom: 19},
			{Name: "Satellit", URL: "https://sat.example/{z}/{y}/{x}", MaxZoom: 18},
		},
	}, mapview.Options{
		Factory: mapview.HeadlessFactory(1024, 768),
		Frames:  f.frames,
	})
	require.NoError(t, f.ctrl.Init(context.Background()))

	loc := location.NewService(logger, st, location.Options{Notifier: f.notices})
	loc.SetMarkerSink(f.ctrl)

	f.server = NewServer(logger, config.BridgeServerConfig{Address: "127.0.0.1:0"}, Dependencies{
		Store:     st,
		Location:  loc,
		Map:       f.ctrl,
		Favorites: favorites.NewService(logger, st, &memFavorites{ids: map[int]bool{}}),
		Notices:   f.notices,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "127.0.0.1:40000"

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRejectsRemoteClients(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/trainings", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListTrainings(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/trainings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[trainingsResponse](t, rec)
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Trainings, 3)
	assert.Empty(t, resp.Query)
}

func TestListTrainingsWithQueryDoesNotChangeFilter(t *testing.T) {
	f := newFixture(t)
	before := f.store.Snapshot().Version

	rec := f.do(t, http.MethodGet, "/api/trainings?training=Judo", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[trainingsResponse](t, rec)
	require.Len(t, resp.Trainings, 1)
	assert.Equal(t, 1, resp.Trainings[0].ID)
	assert.Equal(t, "training=Judo", resp.Query)

	assert.Equal(t, before, f.store.Snapshot().Version)
	assert.Len(t, f.store.Snapshot().Filtered, 3)
}

func TestSetAndResetFilter(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/filter?training=Boxen", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Boxen"}, f.store.Snapshot().Filter.Types)
	assert.Len(t, f.store.Snapshot().Filtered, 1)

	rec = f.do(t, http.MethodDelete, "/api/filter", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.store.Snapshot().Filter.Types)
	assert.Len(t, f.store.Snapshot().Filtered, 3)
}

func TestToggleQuickFilter(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/filter/quick/unbekannt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/filter/quick/favoriten", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[trainingsResponse](t, rec)
	assert.Equal(t, "favoriten", resp.Quick)
	assert.Empty(t, resp.Trainings)

	rec = f.do(t, http.MethodPost, "/api/filter/quick/favoriten", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[trainingsResponse](t, rec).Quick)
}

func TestToggleFavorite(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/favorites/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/favorites/99", "").Code)

	rec := f.do(t, http.MethodPost, "/api/favorites/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.store.Snapshot().Favorites[2])

	rec = f.do(t, http.MethodGet, "/api/favorites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"favorites":[2]}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/export?scope=favorites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exported := decode[[]training.Training](t, rec)
	require.Len(t, exported, 1)
	assert.Equal(t, 2, exported[0].ID)
}

func TestExportRejectsUnknownScope(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/export?scope=alle", "").Code)
}

func TestManualLocation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/location/manual", `{"lat": 95, "lng": 8}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/location/manual", `{"label": "nirgendwo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/location/manual", `{"lat": 50.05, "lng": 8.01, "label": "Zuhause"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	info := decode[location.Info](t, rec)
	require.NotNil(t, info.Position)
	assert.Equal(t, state.SourceManual, info.Position.Source)
	assert.Equal(t, "Zuhause", info.Position.Label)

	model := f.ctrl.Model()
	require.NotNil(t, model.User)
	assert.Equal(t, "Zuhause", model.User.Label)

	rec = f.do(t, http.MethodGet, "/api/notices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]Notice](t, rec))

	rec = f.do(t, http.MethodDelete, "/api/location", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.store.Snapshot().Position)
	assert.Nil(t, f.ctrl.Model().User)
}

func TestGeocodeWithoutService(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/geocode?q=ab", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/api/geocode?q=Berlin", "").Code)
}

func TestMapEndpoints(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Refresh(f.store.Snapshot().Filtered)
	f.frames.Flush()

	rec := f.do(t, http.MethodGet, "/api/map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	model := decode[mapview.Model](t, rec)
	assert.Equal(t, "ready", model.State)
	assert.Len(t, model.Tiles, 2)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/map/layers/Gelände", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/map/layers/Satellit", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/map/markers/unbekannt/click", "").Code)

	rec = f.do(t, http.MethodPost, "/api/map/view", `{"lat": 52.52, "lng": 13.4, "zoom": 12}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := f.ctrl.View()
	assert.True(t, view.UserInteracted)
	assert.InDelta(t, 52.52, view.Center.Lat, 1e-9)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/map/view", `{"lat": 52, "lng": 13, "zoom": 40}`).Code)

	rec = f.do(t, http.MethodPost, "/api/map/favorites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `false`, string(decode[map[string]json.RawMessage](t, rec)["fitted"]))

	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, "/api/map/geolocate", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/map/reset", "").Code)
}
