package state

import (
	"sync"
	"time"

	"github.com/mwantia/trainmap/pkg/filter"
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/log"
	"github.com/mwantia/trainmap/pkg/training"
)

// Source identifies where the user position came from.
type Source string

const (
	SourceDevice Source = "device"
	SourceManual Source = "manual"
)

// Position is the user position. It is replaced as a whole, never merged.
type Position struct {
	LatLng geo.LatLng `json:"latlng"`
	Source Source     `json:"source"`
	Label  string     `json:"label,omitempty"`
}

// Snapshot is a read-only view of the application state after a dispatch.
// Slices and maps are shared between snapshots and must not be modified.
type Snapshot struct {
	Version   uint64
	Trainings []training.Training
	Metadata  *training.Metadata
	Filter    filter.State
	Filtered  []training.Training
	Favorites map[int]bool
	Position  *Position
}

// FavoriteIDs returns the favourite training ids in ascending order.
func (s Snapshot) FavoriteIDs() []int {
	ids := make([]int, 0, len(s.Favorites))
	for _, t := range s.Trainings {
		if s.Favorites[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Training looks up a training by id.
func (s Snapshot) Training(id int) (training.Training, bool) {
	for _, t := range s.Trainings {
		if t.ID == id {
			return t, true
		}
	}
	return training.Training{}, false
}

// Listener is called after every dispatch that changed the state.
type Listener func(Snapshot)

type StoreOptions struct {
	NearbyRadiusKm float64
	Now            func() time.Time
}

// Store owns the single explicit application state. All mutations go
// through Dispatch, which recomputes the filtered set synchronously.
type Store struct {
	mutex sync.RWMutex

	snap      Snapshot
	index     *filter.SearchIndex
	opts      StoreOptions
	listeners map[int]Listener
	nextID    int

	log log.LoggerService
}

func NewStore(logger log.LoggerService, opts StoreOptions) *Store {
	return &Store{
		snap: Snapshot{
			Metadata:  &training.Metadata{},
			Favorites: map[int]bool{},
		},
		index:     filter.NewSearchIndex(nil),
		opts:      opts,
		listeners: make(map[int]Listener),
		log:       logger,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.snap
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Store) Subscribe(fn Listener) func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		delete(s.listeners, id)
	}
}

// Dispatch applies cmd, re-runs the filter engine and notifies listeners
// outside of the lock.
func (s *Store) Dispatch(cmd Command) Snapshot {
	s.mutex.Lock()

	next := s.snap
	if !cmd.apply(&next, s) {
		snap := s.snap
		s.mutex.Unlock()
		return snap
	}

	next.Filter = next.Filter.Normalize()
	next.Filtered = filter.Apply(next.Trainings, next.Filter, s.index, s.position(next), filter.Options{
		Favorites:      next.Favorites,
		NearbyRadiusKm: s.opts.NearbyRadiusKm,
		Now:            s.opts.Now,
	})
	next.Version++
	s.snap = next

	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mutex.Unlock()

	if s.log != nil {
		s.log.Debug("Dispatched %s: %d of %d trainings visible", cmd.Name(), len(next.Filtered), len(next.Trainings))
	}

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

func (s *Store) position(snap Snapshot) *geo.LatLng {
	if snap.Position == nil {
		return nil
	}
	ll := snap.Position.LatLng
	return &ll
}

// Preview evaluates st against the current state without dispatching.
func (s *Store) Preview(st filter.State) []training.Training {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return filter.Apply(s.snap.Trainings, st, s.index, s.position(s.snap), filter.Options{
		Favorites:      s.snap.Favorites,
		NearbyRadiusKm: s.opts.NearbyRadiusKm,
		Now:            s.opts.Now,
	})
}
