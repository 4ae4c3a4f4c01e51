package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwantia/fabric/pkg/container"

	"github.com/mwantia/trainmap/internal/bridge"
	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/internal/favorites"
	"github.com/mwantia/trainmap/internal/feed"
	"github.com/mwantia/trainmap/internal/geocode"
	"github.com/mwantia/trainmap/internal/location"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/db/store"
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/log"
)

func (a *TrainmapAgent) setupServices(ctx context.Context) error {
	errs := container.Errors{}

	a.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](a.sc,
		container.With[log.LoggerService](),
		container.WithInstance(a.log)))

	if err := a.setupStateStore(ctx); err != nil {
		return err
	}
	a.log.Debug("Registering 'StateStore'...")
	errs.Add(container.Register[store.SQLiteStore](a.sc,
		container.With[store.StateStore](),
		container.WithInstance(a.db)))

	named := func(name string) log.LoggerService {
		logger, err := log.Resolve(ctx, a.sc, "logger:"+name)
		if err != nil {
			a.log.Warn("Unable to resolve logger '%s': %v", name, err)
			return a.log.Named(name)
		}
		return logger
	}

	a.state = state.NewStore(named("state"), state.StoreOptions{
		NearbyRadiusKm: a.cfg.Filter.NearbyRadiusKm,
	})
	a.loader = feed.NewLoader(named("feed"), a.cfg.Feed, a.db)
	a.favorites = favorites.NewService(named("favorites"), a.state, a.db)
	a.geocoder = geocode.NewService(named("geocode"), a.cfg.Location.Geocoder)
	a.notices = bridge.NewNotices()

	device := a.cfg.Location.Device
	a.location = location.NewService(named("location"), a.state, location.Options{
		Timeout: config.ParseDurationOr(device.Timeout, location.DefaultTimeout),
		Locator: location.StaticLocator{
			Enabled:  device.Enabled,
			Position: geo.LatLng{Lat: device.Lat, Lng: device.Lng},
		},
		Slots:    a.db,
		Notifier: a.notices,
	})

	errs.Add(container.Register[state.Store](a.sc, container.WithInstance(a.state)))
	errs.Add(container.Register[feed.Loader](a.sc, container.WithInstance(a.loader)))
	errs.Add(container.Register[favorites.Service](a.sc, container.WithInstance(a.favorites)))
	errs.Add(container.Register[geocode.Service](a.sc, container.WithInstance(a.geocoder)))
	errs.Add(container.Register[location.Service](a.sc, container.WithInstance(a.location)))
	errs.Add(container.Register[bridge.Notices](a.sc,
		container.With[location.Notifier](),
		container.WithInstance(a.notices)))

	return errs.Errors()
}

func (a *TrainmapAgent) setupStateStore(ctx context.Context) error {
	switch strings.ToLower(a.cfg.Metadata.Type) {
	case "", "sqlite":
	default:
		return fmt.Errorf("unsupported metadata store type '%s'", a.cfg.Metadata.Type)
	}

	db, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:     a.cfg.Metadata.SQLite.Path,
		LogLevel: store.ParseLogLevel(a.cfg.Log.SQL),
		Writer:   log.NewPrinter(a.log.Named("sqlite"), log.Debug),
	})
	if err != nil {
		return fmt.Errorf("failed to create state store: %w", err)
	}
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect state store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to migrate state store: %w", err)
	}

	a.db = db
	return nil
}

func geoCenter(cfg config.MapServerConfig) geo.LatLng {
	return geo.LatLng{Lat: cfg.CenterLat, Lng: cfg.CenterLng}
}
