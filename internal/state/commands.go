package state

import (
	"github.com/mwantia/trainmap/pkg/filter"
	"github.com/mwantia/trainmap/pkg/training"
)

// Command is a state transition. apply reports whether anything changed.
type Command interface {
	Name() string
	apply(next *Snapshot, s *Store) bool
}

// LoadTrainings replaces the feed. Metadata is derived when nil.
type LoadTrainings struct {
	Trainings []training.Training
	Metadata  *training.Metadata
}

func (LoadTrainings) Name() string { return "load-trainings" }

func (c LoadTrainings) apply(next *Snapshot, s *Store) bool {
	all := append([]training.Training(nil), c.Trainings...)
	if next.Position != nil {
		all = training.AnnotateDistances(all, next.Position.LatLng)
	} else {
		all = training.StripDistances(all)
	}

	meta := c.Metadata
	if meta == nil || meta.Empty() {
		meta = training.DeriveMetadata(all)
	}

	next.Trainings = all
	next.Metadata = meta
	s.index = filter.NewSearchIndex(all)
	return true
}

// SetFilter replaces the filter state as a whole.
type SetFilter struct {
	State filter.State
}

func (SetFilter) Name() string { return "set-filter" }

func (c SetFilter) apply(next *Snapshot, _ *Store) bool {
	next.Filter = c.State.Clone()
	return true
}

// UpdateFilter derives the next filter state from the current one.
type UpdateFilter struct {
	Update func(filter.State) filter.State
}

func (UpdateFilter) Name() string { return "update-filter" }

func (c UpdateFilter) apply(next *Snapshot, _ *Store) bool {
	if c.Update == nil {
		return false
	}
	next.Filter = c.Update(next.Filter.Clone())
	return true
}

// ResetFilters clears every filter including the active quick filter.
type ResetFilters struct{}

func (ResetFilters) Name() string { return "reset-filters" }

func (ResetFilters) apply(next *Snapshot, _ *Store) bool {
	next.Filter = filter.Reset()
	return true
}

// SetPosition stores the user position and recomputes every distance.
type SetPosition struct {
	Position Position
}

func (SetPosition) Name() string { return "set-position" }

func (c SetPosition) apply(next *Snapshot, _ *Store) bool {
	if !c.Position.LatLng.Valid() {
		return false
	}
	pos := c.Position
	next.Position = &pos
	next.Trainings = training.AnnotateDistances(next.Trainings, pos.LatLng)
	return true
}

// ClearPosition removes the user position and every derived distance. An
// active Nearby quick filter is deactivated as it has nothing to measure from.
type ClearPosition struct{}

func (ClearPosition) Name() string { return "clear-position" }

func (ClearPosition) apply(next *Snapshot, _ *Store) bool {
	next.Position = nil
	next.Trainings = training.StripDistances(next.Trainings)
	if _, ok := next.Filter.Quick.(filter.Nearby); ok {
		next.Filter = filter.ClearQuick(next.Filter)
	}
	return true
}

// SetFavorites replaces the favourite set, usually after loading it from storage.
type SetFavorites struct {
	IDs []int
}

func (SetFavorites) Name() string { return "set-favorites" }

func (c SetFavorites) apply(next *Snapshot, _ *Store) bool {
	favorites := make(map[int]bool, len(c.IDs))
	for _, id := range c.IDs {
		favorites[id] = true
	}
	next.Favorites = favorites
	return true
}

// MarkFavorite adds or removes a single training from the favourites.
type MarkFavorite struct {
	ID       int
	Favorite bool
}

func (MarkFavorite) Name() string { return "mark-favorite" }

func (c MarkFavorite) apply(next *Snapshot, _ *Store) bool {
	if next.Favorites[c.ID] == c.Favorite {
		return false
	}

	favorites := make(map[int]bool, len(next.Favorites)+1)
	for id := range next.Favorites {
		favorites[id] = true
	}
	if c.Favorite {
		favorites[c.ID] = true
	} else {
		delete(favorites, c.ID)
	}
	next.Favorites = favorites
	return true
}

// Refilter re-runs the filter engine without changing anything, e.g. when
// the day changed under an active time preset.
type Refilter struct{}

func (Refilter) Name() string { return "refilter" }

func (Refilter) apply(*Snapshot, *Store) bool { return true }
