package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/internal/favorites"
	"github.com/mwantia/trainmap/internal/geocode"
	"github.com/mwantia/trainmap/internal/location"
	"github.com/mwantia/trainmap/internal/mapview"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/log"
)

type Dependencies struct {
	Store     *state.Store
	Location  *location.Service
	Map       *mapview.Controller
	Favorites *favorites.Service
	Geocoder  *geocode.Service
	Notices   *Notices
}

// Server exposes the application state and the map model on a loopback
// HTTP endpoint for the renderer page.
type Server struct {
	cfg  config.BridgeServerConfig
	deps Dependencies
	log  log.LoggerService

	engine *gin.Engine
	server *http.Server
	once   sync.Once
}

func NewServer(logger log.LoggerService, cfg config.BridgeServerConfig, deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)

	if deps.Notices == nil {
		deps.Notices = NewNotices()
	}

	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  logger,
	}
	s.engine = s.setupRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.log))
	r.Use(loopbackOnly())

	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	api := r.Group("/api")
	{
		api.GET("/trainings", s.listTrainings)
		api.GET("/metadata", s.metadata)
		api.GET("/export", s.export)

		api.PUT("/filter", s.setFilter)
		api.DELETE("/filter", s.resetFilter)
		api.POST("/filter/quick/:name", s.toggleQuick)

		api.GET("/favorites", s.listFavorites)
		api.POST("/favorites/:id", s.toggleFavorite)

		api.GET("/location", s.locationInfo)
		api.POST("/location/device", s.requestDeviceLocation)
		api.POST("/location/manual", s.setManualLocation)
		api.DELETE("/location", s.resetLocation)
		api.GET("/geocode", s.lookupAddress)

		api.GET("/map", s.mapModel)
		api.POST("/map/view", s.reportView)
		api.POST("/map/markers/:id/click", s.clickMarker)
		api.POST("/map/layers/:name", s.switchLayer)
		api.POST("/map/favorites", s.zoomToFavorites)
		api.POST("/map/reset", s.resetView)
		api.POST("/map/geolocate", s.geolocate)

		api.GET("/notices", s.drainNotices)
	}

	return r
}

// Start listens on the configured loopback address in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on '%s': %w", s.cfg.Address, err)
	}

	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.log.Info("Bridge listening on http://%s", listener.Addr())
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Bridge stopped: %v", err)
		}
	}()
	return nil
}

func (s *Server) Cleanup(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		if s.server != nil {
			err = s.server.Shutdown(ctx)
		}
	})
	return err
}
