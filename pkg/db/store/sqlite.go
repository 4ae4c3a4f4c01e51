package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/trainmap/pkg/db/migrations"
	"github.com/mwantia/trainmap/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements StateStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path     string
	LogLevel logger.LogLevel
	// Writer receives the query log; gorm's default stdout logger when nil.
	Writer logger.Writer
}

// ParseLogLevel maps silent, error, warn and info onto gorm log levels.
func ParseLogLevel(value string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return logger.Error
	case "warn", "warning":
		return logger.Warn
	case "info", "debug":
		return logger.Info
	default:
		return logger.Silent
	}
}

// NewSQLiteStore creates a new SQLite-backed state store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	queryLog := logger.Default.LogMode(cfg.LogLevel)
	if cfg.Writer != nil {
		queryLog = logger.New(cfg.Writer, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  cfg.LogLevel,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: queryLog,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs the versioned migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// MigrationStatus lists every schema step and whether it is applied.
func (s *SQLiteStore) MigrationStatus(ctx context.Context) ([]migrations.MigrationStatus, error) {
	return migrations.NewMigrator(s.db).Status(ctx)
}

// Reset drops every slot and recreates the empty schema.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Reset(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLiteStore) upsert(ctx context.Context, value any) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

func (s *SQLiteStore) firstSlot(ctx context.Context, dest any, slot string) error {
	err := s.db.WithContext(ctx).Where("slot = ?", slot).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Feed snapshot slot

func (s *SQLiteStore) SaveFeedSnapshot(ctx context.Context, snapshot *models.FeedSnapshot) error {
	snapshot.Slot = models.SlotFeed
	return s.upsert(ctx, snapshot)
}

func (s *SQLiteStore) GetFeedSnapshot(ctx context.Context) (*models.FeedSnapshot, error) {
	var snapshot models.FeedSnapshot
	if err := s.firstSlot(ctx, &snapshot, models.SlotFeed); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Manual location slot

func (s *SQLiteStore) SaveManualLocation(ctx context.Context, location *models.ManualLocation) error {
	location.Slot = models.SlotManualLocation
	return s.upsert(ctx, location)
}

func (s *SQLiteStore) GetManualLocation(ctx context.Context) (*models.ManualLocation, error) {
	var location models.ManualLocation
	if err := s.firstSlot(ctx, &location, models.SlotManualLocation); err != nil {
		return nil, err
	}
	return &location, nil
}

func (s *SQLiteStore) DeleteManualLocation(ctx context.Context) error {
	return s.db.WithContext(ctx).Delete(&models.ManualLocation{}, "slot = ?", models.SlotManualLocation).Error
}

// Map view slot

func (s *SQLiteStore) SaveMapView(ctx context.Context, view *models.MapView) error {
	view.Slot = models.SlotMapView
	return s.upsert(ctx, view)
}

func (s *SQLiteStore) GetMapView(ctx context.Context) (*models.MapView, error) {
	var view models.MapView
	if err := s.firstSlot(ctx, &view, models.SlotMapView); err != nil {
		return nil, err
	}
	return &view, nil
}

// Favorite operations

func (s *SQLiteStore) AddFavorite(ctx context.Context, trainingID int) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{TrainingID: trainingID}).Error
}

func (s *SQLiteStore) RemoveFavorite(ctx context.Context, trainingID int) error {
	return s.db.WithContext(ctx).Delete(&models.Favorite{}, "training_id = ?", trainingID).Error
}

func (s *SQLiteStore) ListFavorites(ctx context.Context) ([]int, error) {
	var ids []int
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).Order("training_id").Pluck("training_id", &ids).Error
	return ids, err
}

var _ StateStore = (*SQLiteStore)(nil)
