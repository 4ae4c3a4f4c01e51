package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/db/models"
	"github.com/mwantia/trainmap/pkg/db/store"
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/log"
)

type Source = state.Source

const (
	SourceDevice = state.SourceDevice
	SourceManual = state.SourceManual
)

type Status int

const (
	StatusIdle Status = iota
	StatusRequesting
	StatusResolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRequesting:
		return "requesting"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ManualSlots is the part of the state store holding the manual position.
type ManualSlots interface {
	SaveManualLocation(ctx context.Context, location *models.ManualLocation) error
	GetManualLocation(ctx context.Context) (*models.ManualLocation, error)
	DeleteManualLocation(ctx context.Context) error
}

// MarkerSink shows the single user marker on the map.
type MarkerSink interface {
	SetUserMarker(pos geo.LatLng, source Source, label string)
	RemoveUserMarker()
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notifier surfaces short transient messages.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// Info is a copy of the service state.
type Info struct {
	Status   Status          `json:"status"`
	Loading  bool            `json:"loading"`
	Error    string          `json:"error,omitempty"`
	Position *state.Position `json:"position,omitempty"`
}

type Service struct {
	mutex sync.Mutex
	// apply serializes the effects of a resolved or reset position: the
	// generation check, the persisted slot, the store and the marker.
	apply sync.Mutex

	status     Status
	loading    bool
	lastErr    error
	generation uint64
	timeout    time.Duration

	store    *state.Store
	slots    ManualSlots
	locator  DeviceLocator
	markers  MarkerSink
	notifier Notifier
	log      log.LoggerService
}

// DefaultTimeout bounds a device request when Options leaves it unset.
const DefaultTimeout = 10 * time.Second

type Options struct {
	Timeout  time.Duration
	Locator  DeviceLocator
	Slots    ManualSlots
	Notifier Notifier
}

func NewService(logger log.LoggerService, st *state.Store, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Service{
		status:   StatusIdle,
		timeout:  opts.Timeout,
		store:    st,
		slots:    opts.Slots,
		locator:  opts.Locator,
		notifier: opts.Notifier,
		log:      logger,
	}
}

// SetMarkerSink attaches or detaches (nil) the map.
func (s *Service) SetMarkerSink(sink MarkerSink) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.markers = sink
	if sink == nil {
		return
	}
	if pos := s.store.Snapshot().Position; pos != nil {
		sink.SetUserMarker(pos.LatLng, pos.Source, pos.Label)
	}
}

func (s *Service) Info() Info {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	info := Info{
		Status:   s.status,
		Loading:  s.loading,
		Error:    Message(s.lastErr),
		Position: s.store.Snapshot().Position,
	}
	return info
}

// RequestDeviceLocation asks the device locator for the current position.
// Requests are not deduplicated; only the last issued one may resolve.
func (s *Service) RequestDeviceLocation(ctx context.Context) (geo.LatLng, error) {
	s.mutex.Lock()
	s.generation++
	gen := s.generation
	s.status = StatusRequesting
	s.loading = true
	s.lastErr = nil
	locator := s.locator
	s.mutex.Unlock()

	if locator == nil {
		return geo.LatLng{}, s.fail(gen, ErrUnavailable)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	pos, err := locator.Locate(ctx)
	if err == nil && !pos.Valid() {
		err = ErrUnavailable
	}
	if err != nil {
		return geo.LatLng{}, s.fail(gen, classify(err))
	}

	if err := s.resolve(ctx, gen, state.Position{LatLng: pos, Source: SourceDevice}); err != nil {
		return geo.LatLng{}, err
	}
	return pos, nil
}

// SetManualLocation stores a manually entered position and persists it.
func (s *Service) SetManualLocation(ctx context.Context, lat, lng float64, label string) error {
	if !geo.IsValidLatLng(lat, lng) {
		s.mutex.Lock()
		s.lastErr = ErrInvalidCoordinates
		s.mutex.Unlock()
		s.notify(NoticeError, Message(ErrInvalidCoordinates))
		return ErrInvalidCoordinates
	}

	s.mutex.Lock()
	s.generation++
	gen := s.generation
	s.mutex.Unlock()

	pos := state.Position{LatLng: geo.LatLng{Lat: lat, Lng: lng}, Source: SourceManual, Label: label}
	return s.resolve(ctx, gen, pos)
}

// RestoreManualLocation re-applies a persisted manual position without
// notifying the user. A missing slot is not an error.
func (s *Service) RestoreManualLocation(ctx context.Context) (bool, error) {
	if s.slots == nil {
		return false, nil
	}

	saved, err := s.slots.GetManualLocation(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load manual location: %w", err)
	}
	if !geo.IsValidLatLng(saved.Lat, saved.Lng) {
		s.log.Warn("Discarding persisted manual location with invalid coordinates")
		return false, s.slots.DeleteManualLocation(ctx)
	}

	s.apply.Lock()
	defer s.apply.Unlock()

	s.mutex.Lock()
	s.generation++
	s.status = StatusResolved
	s.loading = false
	s.lastErr = nil
	markers := s.markers
	s.mutex.Unlock()

	pos := state.Position{LatLng: geo.LatLng{Lat: saved.Lat, Lng: saved.Lng}, Source: SourceManual, Label: saved.Address}
	s.store.Dispatch(state.SetPosition{Position: pos})
	if markers != nil {
		markers.RemoveUserMarker()
		markers.SetUserMarker(pos.LatLng, pos.Source, pos.Label)
	}
	return true, nil
}

// ResetLocation forgets the position from any source. Every step runs even
// when there is no position, map or marker. A position that is still being
// applied finishes first and is then cleared.
func (s *Service) ResetLocation(ctx context.Context) {
	s.mutex.Lock()
	s.generation++
	s.mutex.Unlock()

	s.apply.Lock()
	s.mutex.Lock()
	s.status = StatusIdle
	s.loading = false
	s.lastErr = nil
	markers := s.markers
	s.mutex.Unlock()

	if s.slots != nil {
		if err := s.slots.DeleteManualLocation(ctx); err != nil {
			s.log.Warn("Unable to delete manual location: %v", err)
		}
	}

	s.store.Dispatch(state.ClearPosition{})

	if markers != nil {
		markers.RemoveUserMarker()
	}
	s.apply.Unlock()

	s.notify(NoticeInfo, "Standort zurückgesetzt")
}

// resolve applies pos unless a later request or reset superseded gen.
// Manual positions are persisted only once they are known to win.
func (s *Service) resolve(ctx context.Context, gen uint64, pos state.Position) error {
	s.apply.Lock()

	s.mutex.Lock()
	if gen != s.generation {
		s.mutex.Unlock()
		s.apply.Unlock()
		s.log.Debug("Discarding superseded %s location %s", pos.Source, pos.LatLng)
		return ErrSuperseded
	}
	s.status = StatusResolved
	s.loading = false
	s.lastErr = nil
	markers := s.markers
	s.mutex.Unlock()

	if pos.Source == SourceManual && s.slots != nil {
		err := s.slots.SaveManualLocation(ctx, &models.ManualLocation{
			Slot:    models.SlotManualLocation,
			Lat:     pos.LatLng.Lat,
			Lng:     pos.LatLng.Lng,
			Address: pos.Label,
		})
		if err != nil {
			s.log.Warn("Unable to persist manual location: %v", err)
		}
	}

	s.store.Dispatch(state.SetPosition{Position: pos})

	if markers != nil {
		markers.RemoveUserMarker()
		markers.SetUserMarker(pos.LatLng, pos.Source, pos.Label)
	}
	s.apply.Unlock()

	s.log.Info("Resolved %s location %s", pos.Source, pos.LatLng)
	s.notify(NoticeSuccess, "Standort gesetzt")
	return nil
}

func (s *Service) fail(gen uint64, err error) error {
	s.mutex.Lock()
	if gen != s.generation {
		s.mutex.Unlock()
		return ErrSuperseded
	}
	s.status = StatusFailed
	s.loading = false
	s.lastErr = err
	s.mutex.Unlock()

	s.log.Warn("Device location failed: %v", err)
	s.notify(NoticeError, Message(err))
	return err
}

func (s *Service) notify(kind NoticeKind, message string) {
	if s.notifier != nil {
		s.notifier.Notify(kind, message)
	}
}
