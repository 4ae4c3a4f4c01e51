package favorites

import (
	"context"
	"fmt"

	"github.com/mwantia/trainmap/internal/state"
	"github.com/mwantia/trainmap/pkg/log"
)

// Slots is the part of the state store holding favourites.
type Slots interface {
	AddFavorite(ctx context.Context, trainingID int) error
	RemoveFavorite(ctx context.Context, trainingID int) error
	ListFavorites(ctx context.Context) ([]int, error)
}

// Service keeps the persisted favourites and the application state in sync.
type Service struct {
	store *state.Store
	slots Slots
	log   log.LoggerService
}

func NewService(logger log.LoggerService, st *state.Store, slots Slots) *Service {
	return &Service{store: st, slots: slots, log: logger}
}

// Load reads every persisted favourite into the application state.
func (s *Service) Load(ctx context.Context) error {
	ids, err := s.slots.ListFavorites(ctx)
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	s.store.Dispatch(state.SetFavorites{IDs: ids})
	s.log.Debug("Loaded %d favorites", len(ids))
	return nil
}

// Set marks or unmarks a training.
func (s *Service) Set(ctx context.Context, id int, favorite bool) error {
	var err error
	if favorite {
		err = s.slots.AddFavorite(ctx, id)
	} else {
		err = s.slots.RemoveFavorite(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update favorite %d: %w", id, err)
	}

	s.store.Dispatch(state.MarkFavorite{ID: id, Favorite: favorite})
	return nil
}

// Toggle flips the favourite flag and returns the new value.
func (s *Service) Toggle(ctx context.Context, id int) (bool, error) {
	next := !s.store.Snapshot().Favorites[id]
	if err := s.Set(ctx, id, next); err != nil {
		return false, err
	}
	return next, nil
}
