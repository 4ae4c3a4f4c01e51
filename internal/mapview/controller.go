package mapview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwantia/trainmap/internal/markers"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/db/models"
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/log"
	"github.com/mwantia/trainmap/pkg/training"
)

var (
	ErrNotReady        = errors.New("map is not ready")
	ErrUnknownMarker   = errors.New("unknown marker")
	ErrUnknownTile     = errors.New("unknown tile layer")
	ErrNoGeolocateHook = errors.New("geolocation is not available")
)

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

type TileConfig struct {
	Name        string
	URL         string
	Attribution string
	MaxZoom     float64
}

type Config struct {
	Center        geo.LatLng
	Zoom          float64
	MaxFitZoom    float64
	FitPadding    float64
	ClickAnchor   float64
	ViewTTL       time.Duration
	ClusterRadius float64
	Tiles         []TileConfig
	TypeColors    map[string]string
}

type Options struct {
	Factory  SurfaceFactory
	Frames   FrameScheduler
	Views    ViewStore
	Clusters ClusterFactory
	Now      func() time.Time
}

// Controller owns the map surface and everything placed on it.
type Controller struct {
	mutex sync.Mutex
	cfg   Config
	state State

	factory  SurfaceFactory
	frames   FrameScheduler
	views    ViewStore
	clusters ClusterFactory
	now      func() time.Time
	log      log.LoggerService

	surface    Surface
	tiles      []*TileLayer
	activeTile int
	controls   []*Control
	layer      MarkerLayer
	user       *UserMarker

	pendingFrame FrameID
	hasPending   bool
	rebuildGen   uint64
	fitted       bool

	trainings []training.Training
	userPos   *UserMarker
	geolocate func(ctx context.Context) error

	userInteracted atomic.Bool
	viewMutex      sync.Mutex
	view           ViewState
}

func NewController(logger log.LoggerService, cfg Config, opts Options) *Controller {
	c := &Controller{
		cfg:      cfg,
		state:    StateUninitialized,
		factory:  opts.Factory,
		frames:   opts.Frames,
		views:    opts.Views,
		clusters: opts.Clusters,
		now:      opts.Now,
		log:      logger,
	}
	if c.clusters == nil {
		c.clusters = NewClusterLayer
	}
	if c.frames == nil {
		c.frames = NewManualFrames()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.cfg.ClickAnchor <= 0 || c.cfg.ClickAnchor >= 1 {
		c.cfg.ClickAnchor = markers.DefaultClickAnchor
	}
	return c
}

func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.state
}

// View returns the last known view.
func (c *Controller) View() ViewState {
	c.viewMutex.Lock()
	defer c.viewMutex.Unlock()

	v := c.view
	v.UserInteracted = c.userInteracted.Load()
	return v
}

// SetGeolocateHandler wires the geolocate control.
func (c *Controller) SetGeolocateHandler(fn func(ctx context.Context) error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.geolocate = fn
}

// Init creates the surface at the persisted or configured view and installs
// tile layers, controls and listeners. Calling Init on a ready map is a no-op.
func (c *Controller) Init(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch c.state {
	case StateReady, StateInitializing:
		return nil
	}
	if c.factory == nil {
		return fmt.Errorf("failed to initialize map: no surface factory")
	}
	c.state = StateInitializing

	center, zoom, restored := restoredView(ctx, c.views, c.now(), c.cfg.ViewTTL)
	if !restored {
		center, zoom = c.cfg.Center, c.cfg.Zoom
	}

	surface, err := c.factory(center, zoom)
	if err != nil {
		c.state = StateUninitialized
		c.log.Error("Unable to create map surface: %v", err)
		return fmt.Errorf("failed to create map surface: %w", err)
	}
	c.surface = surface
	c.fitted = restored
	c.userInteracted.Store(false)
	c.setView(center, zoom)

	c.tiles = c.tiles[:0]
	for _, t := range c.cfg.Tiles {
		c.tiles = append(c.tiles, &TileLayer{Name: t.Name, URL: t.URL, Attribution: t.Attribution, MaxZoom: t.MaxZoom})
	}
	c.activeTile = 0
	if len(c.tiles) > 0 {
		if err := surface.AddLayer(c.tiles[0]); err != nil {
			c.log.Warn("Unable to add tile layer '%s': %v", c.tiles[0].Name, err)
		}
	}

	c.controls = []*Control{
		{Kind: ControlGeolocate, Title: "Mein Standort"},
		{Kind: ControlResetView, Title: "Ansicht zurücksetzen"},
	}
	if len(c.tiles) > 1 {
		c.controls = append(c.controls, &Control{Kind: ControlLayers, Title: "Kartenebenen"})
	}
	for _, ctl := range c.controls {
		surface.AddControl(ctl)
	}

	surface.Events().On(EventMoveEnd, c.onMoveEnd)
	surface.Events().On(EventUserMove, c.onUserMove)

	if c.userPos != nil {
		c.addUserMarker(*c.userPos)
	}

	c.state = StateReady
	c.log.Debug("Map ready at %s zoom %.1f (restored: %t)", center, zoom, restored)

	if c.trainings != nil {
		c.scheduleRebuild()
	}
	return nil
}

// Refresh replaces the markers on the next frame. A refresh requested while
// another one is pending supersedes it.
func (c *Controller) Refresh(trainings []training.Training) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.trainings = append([]training.Training{}, trainings...)
	if c.state != StateReady || c.surface == nil {
		return
	}

	c.surface.StopAnimation()
	c.scheduleRebuild()
}

func (c *Controller) scheduleRebuild() {
	if c.hasPending {
		c.frames.Cancel(c.pendingFrame)
	}
	c.rebuildGen++
	gen := c.rebuildGen
	c.pendingFrame = c.frames.Request(func() {
		c.rebuild(gen)
	})
	c.hasPending = true
}

func (c *Controller) rebuild(gen uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if gen != c.rebuildGen || c.state != StateReady || c.surface == nil {
		return
	}
	c.hasPending = false

	specs, err := markers.BuildMarkers(c.trainings, markers.BuildOptions{TypeColors: c.cfg.TypeColors})
	if err != nil {
		c.log.Error("Unable to build markers: %v", err)
		specs = nil
	}

	next, err := c.clusters(c.surface, specs, c.cfg.ClusterRadius)
	if err != nil || next == nil {
		c.log.Warn("Unable to create cluster layer, showing plain markers: %v", err)
		next = NewPlainLayer(c.surface, specs)
	}
	for _, m := range next.Markers() {
		marker := m
		marker.Events().On(EventClick, func(any) {
			c.onMarkerClick(marker)
		})
	}

	c.removeMarkerLayer()
	if err := c.surface.AddLayer(next); err != nil {
		c.log.Error("Unable to add marker layer: %v", err)
		for _, m := range next.Markers() {
			m.Detach()
		}
		return
	}
	c.layer = next

	// Bounds are fitted once per surface, and never after a restore or a user move.
	if c.fitted || c.userInteracted.Load() || len(specs) == 0 {
		return
	}

	w, h := c.surface.Size()
	center, zoom := markers.FitView(markers.SpecBounds(specs), w, h, c.cfg.FitPadding, c.cfg.MaxFitZoom)
	c.surface.SetView(center, zoom, false)
	c.fitted = true
}

func (c *Controller) removeMarkerLayer() {
	if c.layer == nil {
		return
	}
	c.layer.Events().OffAll()
	for _, m := range c.layer.Markers() {
		m.Detach()
	}
	if c.surface != nil {
		c.surface.RemoveLayer(c.layer)
	}
	c.layer = nil
}

// ClickMarker simulates a click on the marker with the given location id.
func (c *Controller) ClickMarker(id string) error {
	c.mutex.Lock()
	if c.state != StateReady || c.layer == nil {
		c.mutex.Unlock()
		return ErrNotReady
	}
	var target *GuardedMarker
	for _, m := range c.layer.Markers() {
		if m.Spec().ID == id {
			target = m
			break
		}
	}
	c.mutex.Unlock()

	if target == nil {
		return fmt.Errorf("%w: %s", ErrUnknownMarker, id)
	}
	target.Events().Emit(EventClick, id)
	return nil
}

// onMarkerClick pans so the marker sits at the click anchor and opens its
// popup on the next frame.
func (c *Controller) onMarkerClick(m *GuardedMarker) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.surface == nil || !m.Attached() {
		return
	}

	_, zoom := c.surface.View()
	_, h := c.surface.Size()
	center := markers.ClickOffsetCenter(m.Spec().Position, zoom, h, c.cfg.ClickAnchor)
	c.surface.SetView(center, zoom, true)

	c.frames.Request(func() {
		m.AnimateZoom(zoom)
		m.Popup().Open()
	})
}

// ZoomToFavorites fits every favourite with coordinates into the viewport.
// Without any it falls back to the default view and reports false.
func (c *Controller) ZoomToFavorites(trainings []training.Training, favorites map[int]bool) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != StateReady || c.surface == nil {
		return false, ErrNotReady
	}

	bounds, n := markers.FavoritesBounds(trainings, favorites)
	c.surface.StopAnimation()
	if n == 0 {
		c.surface.SetView(c.cfg.Center, c.cfg.Zoom, true)
		return false, nil
	}

	w, h := c.surface.Size()
	center, zoom := markers.FitView(bounds, w, h, c.cfg.FitPadding, c.cfg.MaxFitZoom)
	c.surface.SetView(center, zoom, true)
	return true, nil
}

// ResetView returns to the configured default view.
func (c *Controller) ResetView() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != StateReady || c.surface == nil {
		return ErrNotReady
	}
	c.surface.StopAnimation()
	c.surface.SetView(c.cfg.Center, c.cfg.Zoom, true)
	return nil
}

// SwitchTileLayer activates the tile layer with the given name.
func (c *Controller) SwitchTileLayer(name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != StateReady || c.surface == nil {
		return ErrNotReady
	}
	for i, t := range c.tiles {
		if t.Name != name {
			continue
		}
		if i == c.activeTile {
			return nil
		}
		c.surface.RemoveLayer(c.tiles[c.activeTile])
		if err := c.surface.AddLayer(t); err != nil {
			return fmt.Errorf("failed to add tile layer '%s': %w", name, err)
		}
		c.activeTile = i
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownTile, name)
}

// userMover is implemented by surfaces that accept moves reported by a renderer.
type userMover interface {
	UserMove(center geo.LatLng, zoom float64)
}

// ReportUserMove forwards a pan or zoom the user made in the renderer.
func (c *Controller) ReportUserMove(center geo.LatLng, zoom float64) error {
	c.mutex.Lock()
	surface := c.surface
	ready := c.state == StateReady
	c.mutex.Unlock()

	if !ready || surface == nil {
		return ErrNotReady
	}
	if !validView(center, zoom) {
		return fmt.Errorf("invalid view %s zoom %.1f", center, zoom)
	}
	mover, ok := surface.(userMover)
	if !ok {
		return fmt.Errorf("surface does not accept user moves")
	}
	mover.UserMove(center, zoom)
	return nil
}

// Geolocate runs the geolocate control.
func (c *Controller) Geolocate(ctx context.Context) error {
	c.mutex.Lock()
	fn := c.geolocate
	ready := c.state == StateReady
	c.mutex.Unlock()

	if !ready {
		return ErrNotReady
	}
	if fn == nil {
		return ErrNoGeolocateHook
	}
	return fn(ctx)
}

// SetUserMarker shows the single user marker, replacing any existing one.
// The position is remembered and re-added after a later Init.
func (c *Controller) SetUserMarker(pos geo.LatLng, source state.Source, label string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.userPos = &UserMarker{Position: pos, Source: source, Label: label}
	if c.state == StateReady {
		c.addUserMarker(*c.userPos)
	}
}

// RemoveUserMarker removes the user marker if there is one.
func (c *Controller) RemoveUserMarker() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.userPos = nil
	c.removeUserMarker()
}

func (c *Controller) addUserMarker(u UserMarker) {
	c.removeUserMarker()
	if c.surface == nil {
		return
	}
	marker := &UserMarker{Position: u.Position, Source: u.Source, Label: u.Label}
	if err := c.surface.AddLayer(marker); err != nil {
		c.log.Warn("Unable to add user marker: %v", err)
		return
	}
	c.user = marker
}

func (c *Controller) removeUserMarker() {
	if c.user == nil {
		return
	}
	c.user.Events().OffAll()
	if c.surface != nil {
		c.surface.RemoveLayer(c.user)
	}
	c.user = nil
}

// Destroy tears the map down: animations stop, every listener is detached,
// layers and controls are removed and every reference is cleared. Calling it
// again is a no-op.
func (c *Controller) Destroy() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state == StateDestroyed || c.state == StateUninitialized {
		return
	}

	if c.surface != nil {
		c.surface.StopAnimation()
	}
	if c.hasPending {
		c.frames.Cancel(c.pendingFrame)
		c.hasPending = false
	}
	c.rebuildGen++

	if c.surface != nil {
		c.surface.Events().OffAll()
	}
	for _, t := range c.tiles {
		t.Events().OffAll()
		if c.surface != nil {
			c.surface.RemoveLayer(t)
		}
	}
	c.removeMarkerLayer()
	c.removeUserMarker()
	for _, ctl := range c.controls {
		if c.surface != nil {
			c.surface.RemoveControl(ctl)
		}
	}
	if c.surface != nil {
		c.surface.Remove()
	}

	c.surface = nil
	c.tiles = nil
	c.controls = nil
	c.layer = nil
	c.user = nil
	c.fitted = false
	c.userInteracted.Store(false)
	c.state = StateDestroyed
	c.log.Debug("Map destroyed")
}

func (c *Controller) onUserMove(any) {
	if !c.userInteracted.Swap(true) {
		c.log.Debug("User interacted with the map, auto-fit disabled")
	}
}

func (c *Controller) onMoveEnd(payload any) {
	ev, ok := payload.(MoveEvent)
	if !ok || !validView(ev.Center, ev.Zoom) {
		return
	}
	c.setView(ev.Center, ev.Zoom)

	if c.views == nil {
		return
	}
	err := c.views.SaveMapView(context.Background(), &models.MapView{
		Slot:      models.SlotMapView,
		CenterLat: ev.Center.Lat,
		CenterLng: ev.Center.Lng,
		Zoom:      ev.Zoom,
		SavedAt:   c.now(),
	})
	if err != nil {
		c.log.Warn("Unable to persist map view: %v", err)
	}
}

func (c *Controller) setView(center geo.LatLng, zoom float64) {
	c.viewMutex.Lock()
	defer c.viewMutex.Unlock()

	c.view.Center = center
	c.view.Zoom = zoom
}
