package store

import (
	"context"
	"errors"

	"github.com/mwantia/trainmap/pkg/db/models"
)

// ErrNotFound is returned when a slot holds no record.
var ErrNotFound = errors.New("record not found")

// StateStore defines the interface for the persisted client slots
type StateStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Feed snapshot slot
	SaveFeedSnapshot(ctx context.Context, snapshot *models.FeedSnapshot) error
	GetFeedSnapshot(ctx context.Context) (*models.FeedSnapshot, error)

	// Manual location slot
	SaveManualLocation(ctx context.Context, location *models.ManualLocation) error
	GetManualLocation(ctx context.Context) (*models.ManualLocation, error)
	DeleteManualLocation(ctx context.Context) error

	// Map view slot
	SaveMapView(ctx context.Context, view *models.MapView) error
	GetMapView(ctx context.Context) (*models.MapView, error)

	// Favorite operations
	AddFavorite(ctx context.Context, trainingID int) error
	RemoveFavorite(ctx context.Context, trainingID int) error
	ListFavorites(ctx context.Context) ([]int, error)
}
