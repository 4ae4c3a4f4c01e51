package bridge

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mwantia/trainmap/internal/geocode"
	"github.com/mwantia/trainmap/internal/location"
	"github.com/mwantia/trainmap/internal/mapview"
	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/filter"
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/training"
)

type trainingsResponse struct {
	Version   uint64              `json:"version"`
	Query     string              `json:"query"`
	Quick     string              `json:"quick,omitempty"`
	Total     int                 `json:"total"`
	Trainings []training.Training `json:"trainings"`
}

type manualLocationRequest struct {
	Lat     *float64 `json:"lat"     binding:"omitempty,latitude"`
	Lng     *float64 `json:"lng"     binding:"omitempty,longitude"`
	Label   string   `json:"label"`
	Address string   `json:"address"`
}

type viewRequest struct {
	Lat  float64 `json:"lat"  binding:"latitude"`
	Lng  float64 `json:"lng"  binding:"longitude"`
	Zoom float64 `json:"zoom" binding:"gte=0,lte=22"`
}

type lookupRequest struct {
	Query string `form:"q" binding:"required,min=3"`
}

func (s *Server) trainingsPayload(snap state.Snapshot, st filter.State, list []training.Training) trainingsResponse {
	resp := trainingsResponse{
		Version:   snap.Version,
		Query:     filter.EncodeQuery(st).Encode(),
		Total:     len(snap.Trainings),
		Trainings: list,
	}
	if st.Quick != nil {
		resp.Quick = st.Quick.Name()
	}
	if resp.Trainings == nil {
		resp.Trainings = []training.Training{}
	}
	return resp
}

// listTrainings handles GET /api/trainings. With query parameters the result
// is computed for those parameters without touching the current filter.
func (s *Server) listTrainings(c *gin.Context) {
	snap := s.deps.Store.Snapshot()
	if len(c.Request.URL.Query()) == 0 {
		respondOK(c, s.trainingsPayload(snap, snap.Filter, snap.Filtered))
		return
	}

	st := filter.ParseQuery(c.Request.URL.Query()).Normalize()
	respondOK(c, s.trainingsPayload(snap, st, s.deps.Store.Preview(st)))
}

func (s *Server) metadata(c *gin.Context) {
	respondOK(c, s.deps.Store.Snapshot().Metadata)
}

// export handles GET /api/export?scope=filtered|favorites and returns the
// trainings verbatim.
func (s *Server) export(c *gin.Context) {
	snap := s.deps.Store.Snapshot()
	switch c.DefaultQuery("scope", "filtered") {
	case "filtered":
		respondOK(c, nonNil(snap.Filtered))
	case "favorites":
		list := make([]training.Training, 0, len(snap.Favorites))
		for _, t := range snap.Trainings {
			if snap.Favorites[t.ID] {
				list = append(list, t)
			}
		}
		respondOK(c, list)
	default:
		respondError(c, http.StatusBadRequest, "scope must be 'filtered' or 'favorites'", nil)
	}
}

func (s *Server) setFilter(c *gin.Context) {
	st := filter.ParseQuery(c.Request.URL.Query())
	snap := s.deps.Store.Dispatch(state.SetFilter{State: st})
	respondOK(c, s.trainingsPayload(snap, snap.Filter, snap.Filtered))
}

func (s *Server) resetFilter(c *gin.Context) {
	snap := s.deps.Store.Dispatch(state.ResetFilters{})
	respondOK(c, s.trainingsPayload(snap, snap.Filter, snap.Filtered))
}

func (s *Server) toggleQuick(c *gin.Context) {
	q, ok := filter.ParseQuickFilter(c.Param("name"))
	if !ok {
		respondError(c, http.StatusNotFound, "unknown quick filter", c.Param("name"))
		return
	}
	snap := s.deps.Store.Dispatch(state.UpdateFilter{Update: func(st filter.State) filter.State {
		return filter.ToggleQuick(st, q)
	}})
	respondOK(c, s.trainingsPayload(snap, snap.Filter, snap.Filtered))
}

func (s *Server) listFavorites(c *gin.Context) {
	respondOK(c, gin.H{"favorites": s.deps.Store.Snapshot().FavoriteIDs()})
}

func (s *Server) toggleFavorite(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "training id must be numeric", nil)
		return
	}
	if _, ok := s.deps.Store.Snapshot().Training(id); !ok {
		respondError(c, http.StatusNotFound, "unknown training", id)
		return
	}

	on, err := s.deps.Favorites.Toggle(c.Request.Context(), id)
	if err != nil {
		s.log.Error("Unable to toggle favorite %d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "unable to update favorite", nil)
		return
	}
	respondOK(c, gin.H{"id": id, "favorite": on})
}

func (s *Server) locationInfo(c *gin.Context) {
	respondOK(c, s.deps.Location.Info())
}

func (s *Server) requestDeviceLocation(c *gin.Context) {
	_, err := s.deps.Location.RequestDeviceLocation(c.Request.Context())
	switch {
	case err == nil:
		respondOK(c, s.deps.Location.Info())
	case errors.Is(err, location.ErrSuperseded):
		respondError(c, http.StatusConflict, "request superseded", nil)
	default:
		respondError(c, http.StatusUnprocessableEntity, location.Message(err), nil)
	}
}

func (s *Server) setManualLocation(c *gin.Context) {
	var req manualLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid location", err.Error())
		return
	}

	lat, lng, label := 0.0, 0.0, req.Label
	switch {
	case req.Lat != nil && req.Lng != nil:
		lat, lng = *req.Lat, *req.Lng
	case req.Address != "" && s.deps.Geocoder != nil:
		suggestion, err := s.deps.Geocoder.Resolve(c.Request.Context(), req.Address)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, geocode.ErrQueryTooShort) {
				status = http.StatusBadRequest
			}
			respondError(c, status, "address lookup failed", err.Error())
			return
		}
		lat, lng = suggestion.Lat, suggestion.Lng
		if label == "" {
			label = suggestion.Label
		}
	default:
		respondError(c, http.StatusBadRequest, "either lat/lng or address is required", nil)
		return
	}

	if err := s.deps.Location.SetManualLocation(c.Request.Context(), lat, lng, label); err != nil {
		respondError(c, http.StatusUnprocessableEntity, location.Message(err), nil)
		return
	}
	respondOK(c, s.deps.Location.Info())
}

func (s *Server) resetLocation(c *gin.Context) {
	s.deps.Location.ResetLocation(c.Request.Context())
	respondOK(c, s.deps.Location.Info())
}

func (s *Server) lookupAddress(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "query 'q' is required (min 3 chars)", nil)
		return
	}
	if s.deps.Geocoder == nil {
		respondError(c, http.StatusServiceUnavailable, "address lookup disabled", nil)
		return
	}

	results, err := s.deps.Geocoder.SearchAddress(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, http.StatusBadGateway, "address lookup service unavailable", nil)
		return
	}
	respondOK(c, results)
}

func (s *Server) mapModel(c *gin.Context) {
	respondOK(c, s.deps.Map.Model())
}

func (s *Server) reportView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid view", err.Error())
		return
	}
	if !s.mapResult(c, s.deps.Map.ReportUserMove(geo.LatLng{Lat: req.Lat, Lng: req.Lng}, req.Zoom)) {
		return
	}
	respondOK(c, s.deps.Map.View())
}

func (s *Server) clickMarker(c *gin.Context) {
	if !s.mapResult(c, s.deps.Map.ClickMarker(c.Param("id"))) {
		return
	}
	respondOK(c, s.deps.Map.View())
}

func (s *Server) switchLayer(c *gin.Context) {
	if !s.mapResult(c, s.deps.Map.SwitchTileLayer(c.Param("name"))) {
		return
	}
	respondOK(c, s.deps.Map.Model())
}

func (s *Server) zoomToFavorites(c *gin.Context) {
	snap := s.deps.Store.Snapshot()
	fitted, err := s.deps.Map.ZoomToFavorites(snap.Trainings, snap.Favorites)
	if !s.mapResult(c, err) {
		return
	}
	respondOK(c, gin.H{"fitted": fitted, "view": s.deps.Map.View()})
}

func (s *Server) resetView(c *gin.Context) {
	if !s.mapResult(c, s.deps.Map.ResetView()) {
		return
	}
	respondOK(c, s.deps.Map.View())
}

func (s *Server) geolocate(c *gin.Context) {
	err := s.deps.Map.Geolocate(c.Request.Context())
	switch {
	case err == nil:
		respondOK(c, s.deps.Location.Info())
	case errors.Is(err, mapview.ErrNotReady), errors.Is(err, mapview.ErrNoGeolocateHook):
		s.mapResult(c, err)
	default:
		respondError(c, http.StatusUnprocessableEntity, location.Message(err), nil)
	}
}

func (s *Server) drainNotices(c *gin.Context) {
	respondOK(c, s.deps.Notices.Drain())
}

// mapResult writes the error response for map errors and reports whether
// the handler may continue.
func (s *Server) mapResult(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, mapview.ErrNotReady), errors.Is(err, mapview.ErrNoGeolocateHook):
		respondError(c, http.StatusServiceUnavailable, err.Error(), nil)
	case errors.Is(err, mapview.ErrUnknownMarker), errors.Is(err, mapview.ErrUnknownTile):
		respondError(c, http.StatusNotFound, err.Error(), nil)
	default:
		respondError(c, http.StatusBadRequest, err.Error(), nil)
	}
	return false
}

func nonNil(list []training.Training) []training.Training {
	if list == nil {
		return []training.Training{}
	}
	return list
}
