package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"

	"github.com/mwantia/trainmap/internal/bridge"
	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/internal/favorites"
	"github.com/mwantia/trainmap/internal/feed"
	"github.com/mwantia/trainmap/internal/geocode"
	"github.com/mwantia/trainmap/internal/location"
	"github.com/mwantia/trainmap/internal/mapview"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/db/store"
	"github.com/mwantia/trainmap/pkg/log"
)

type TrainmapAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	db        *store.SQLiteStore
	state     *state.Store
	loader    *feed.Loader
	favorites *favorites.Service
	location  *location.Service
	geocoder  *geocode.Service
	notices   *bridge.Notices

	frames    *mapview.TickerFrames
	ctrl      *mapview.Controller
	debouncer *state.Debouncer
	bridge    *bridge.Server
	unsub     func()
	opened    bool
}

func NewAgent(cfg *config.BaseServerConfig) *TrainmapAgent {
	return &TrainmapAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("trainmap", cfg.Log),
	}
}

func (a *TrainmapAgent) Store() *state.Store {
	return a.state
}

func (a *TrainmapAgent) Favorites() *favorites.Service {
	return a.favorites
}

func (a *TrainmapAgent) Location() *location.Service {
	return a.location
}

func (a *TrainmapAgent) Geocoder() *geocode.Service {
	return a.geocoder
}

// Open connects the state store, loads the feed and restores favourites and
// the manual position. Commands that do not serve the map stop here.
func (a *TrainmapAgent) Open(ctx context.Context) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.opened {
		return nil
	}
	if err := a.setupServices(ctx); err != nil {
		return err
	}

	result, err := a.loader.Load(ctx, false)
	if err != nil {
		a.log.Error("Unable to load trainings: %v", err)
		return fmt.Errorf("failed to load trainings: %w", err)
	}
	a.state.Dispatch(state.LoadTrainings{Trainings: result.Feed.Trainings, Metadata: result.Feed.Metadata})
	if result.Stale {
		a.log.Warn("Using stale trainings from %s", result.FetchedAt.Format(time.RFC3339))
	}

	if err := a.favorites.Load(ctx); err != nil {
		a.log.Warn("Unable to restore favorites: %v", err)
	}
	if restored, err := a.location.RestoreManualLocation(ctx); err != nil {
		a.log.Warn("Unable to restore manual location: %v", err)
	} else if restored {
		a.log.Debug("Restored manual location")
	}

	a.opened = true
	return nil
}

// Reload fetches the feed again and replaces the trainings.
func (a *TrainmapAgent) Reload(ctx context.Context) error {
	result, err := a.loader.Load(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to reload trainings: %w", err)
	}
	a.state.Dispatch(state.LoadTrainings{Trainings: result.Feed.Trainings, Metadata: result.Feed.Metadata})
	return nil
}

func (a *TrainmapAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if err := a.Open(ctx); err != nil {
		a.Close()
		return err
	}

	a.mutex.Lock()
	if err := a.setupMap(ctx); err != nil {
		a.mutex.Unlock()
		a.Close()
		return err
	}
	if err := a.setupBridge(); err != nil {
		a.mutex.Unlock()
		a.Close()
		return err
	}
	a.mutex.Unlock()

	a.log.Info("Trainmap agent started with %d trainings", len(a.state.Snapshot().Trainings))
	<-ctx.Done()

	timeout := config.ParseDurationOr(a.cfg.ShutdownTimeout, 60*time.Second)
	shutdown, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	a.log.Info("Shutting down...")
	if a.bridge != nil {
		if err := a.bridge.Cleanup(shutdown); err != nil {
			a.log.Warn("Bridge shutdown incomplete: %v", err)
		}
	}
	if err := a.sc.Cleanup(shutdown); err != nil {
		a.Close()
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	a.wait.Wait()
	return a.Close()
}

func (a *TrainmapAgent) setupMap(ctx context.Context) error {
	a.frames = mapview.NewTickerFrames(16 * time.Millisecond)
	a.frames.Start(ctx)

	tiles := make([]mapview.TileConfig, 0, len(a.cfg.Map.Tiles))
	for _, t := range a.cfg.Map.Tiles {
		tiles = append(tiles, mapview.TileConfig{Name: t.Name, URL: t.URL, Attribution: t.Attribution, MaxZoom: t.MaxZoom})
	}

	a.ctrl = mapview.NewController(a.log.Named("map"), mapview.Config{
		Center:        geoCenter(a.cfg.Map),
		Zoom:          a.cfg.Map.Zoom,
		MaxFitZoom:    a.cfg.Map.MaxFitZoom,
		FitPadding:    a.cfg.Map.FitPadding,
		ClickAnchor:   a.cfg.Map.ClickAnchor,
		ViewTTL:       config.ParseDurationOr(a.cfg.Map.ViewTTL, mapview.DefaultViewTTL),
		ClusterRadius: a.cfg.Map.ClusterRadius,
		Tiles:         tiles,
		TypeColors:    a.cfg.Map.TypeColors,
	}, mapview.Options{
		Factory: mapview.HeadlessFactory(a.cfg.Map.ViewportW, a.cfg.Map.ViewportH),
		Frames:  a.frames,
		Views:   a.db,
	})

	a.ctrl.SetGeolocateHandler(func(ctx context.Context) error {
		_, err := a.location.RequestDeviceLocation(ctx)
		return err
	})
	if err := a.ctrl.Init(ctx); err != nil {
		return err
	}
	a.location.SetMarkerSink(a.ctrl)

	a.debouncer = state.NewDebouncer(config.ParseDurationOr(a.cfg.Filter.Debounce, 150*time.Millisecond))
	a.unsub = a.state.Subscribe(func(state.Snapshot) {
		a.debouncer.Trigger(a.refreshMap)
	})
	a.ctrl.Refresh(a.state.Snapshot().Filtered)

	errs := container.Errors{}
	errs.Add(container.Register[mapview.Controller](a.sc, container.WithInstance(a.ctrl)))
	return errs.Errors()
}

// refreshMap renders the snapshot current when the debounce fires, so
// listeners notified out of order cannot leave an older set on the map.
func (a *TrainmapAgent) refreshMap() {
	a.mutex.RLock()
	ctrl := a.ctrl
	a.mutex.RUnlock()

	if ctrl == nil {
		return
	}
	ctrl.Refresh(a.state.Snapshot().Filtered)
}

func (a *TrainmapAgent) setupBridge() error {
	if !a.cfg.Bridge.Enabled {
		a.log.Info("Bridge disabled")
		return nil
	}

	logger, err := log.Resolve(context.Background(), a.sc, "logger:bridge")
	if err != nil {
		logger = a.log.Named("bridge")
	}

	a.bridge = bridge.NewServer(logger, a.cfg.Bridge, bridge.Dependencies{
		Store:     a.state,
		Location:  a.location,
		Map:       a.ctrl,
		Favorites: a.favorites,
		Geocoder:  a.geocoder,
		Notices:   a.notices,
	})
	if err := a.bridge.Start(); err != nil {
		return err
	}

	errs := container.Errors{}
	errs.Add(container.Register[bridge.Server](a.sc, container.WithInstance(a.bridge)))
	return errs.Errors()
}

// Close releases the map and the state store. It is safe to call more than once.
func (a *TrainmapAgent) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	if a.debouncer != nil {
		a.debouncer.Stop()
	}
	if a.location != nil {
		a.location.SetMarkerSink(nil)
	}
	if a.ctrl != nil {
		a.ctrl.Destroy()
		a.ctrl = nil
	}
	if a.frames != nil {
		a.frames.Stop()
		a.frames = nil
	}
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		a.opened = false
		return err
	}
	return nil
}
