package migrations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mwantia/trainmap/pkg/db/models"
	"gorm.io/gorm"
)

// Migration is one schema step of the state store.
type Migration struct {
	Version     int
	Description string
	Up          func(*gorm.DB) error
	Down        func(*gorm.DB) error
}

type schemaVersion struct {
	Version     int    `gorm:"primaryKey;autoIncrement:false"`
	Description string `gorm:"type:text"`
	AppliedAt   time.Time
}

func (schemaVersion) TableName() string {
	return "schema_versions"
}

type MigrationStatus struct {
	Version     int
	Description string
	Applied     bool
	AppliedAt   time.Time
}

type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB) *Migrator {
	steps := allMigrations()
	sort.Slice(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })

	return &Migrator{db: db, migrations: steps}
}

func (m *Migrator) applied(ctx context.Context) (map[int]schemaVersion, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&schemaVersion{}); err != nil {
		return nil, fmt.Errorf("failed to create schema version table: %w", err)
	}

	var rows []schemaVersion
	if err := m.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query schema versions: %w", err)
	}

	applied := make(map[int]schemaVersion, len(rows))
	for _, row := range rows {
		applied[row.Version] = row
	}
	return applied, nil
}

// Migrate applies every pending step in version order. Each step and its
// version row are committed together.
func (m *Migrator) Migrate(ctx context.Context) error {
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, step := range m.migrations {
		if _, ok := applied[step.Version]; ok {
			continue
		}

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaVersion{
				Version:     step.Version,
				Description: step.Description,
				AppliedAt:   time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", step.Version, step.Description, err)
		}
	}
	return nil
}

// Rollback reverts the most recently applied step and reports its version,
// or 0 when nothing is applied.
func (m *Migrator) Rollback(ctx context.Context) (int, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		step := m.migrations[i]
		if _, ok := applied[step.Version]; !ok {
			continue
		}

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := step.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&schemaVersion{}, step.Version).Error
		})
		if err != nil {
			return 0, fmt.Errorf("rollback of migration %d failed: %w", step.Version, err)
		}
		return step.Version, nil
	}
	return 0, nil
}

// Reset reverts every applied step and migrates again, leaving empty slots.
func (m *Migrator) Reset(ctx context.Context) error {
	for {
		version, err := m.Rollback(ctx)
		if err != nil {
			return err
		}
		if version == 0 {
			break
		}
	}
	return m.Migrate(ctx)
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(m.migrations))
	for _, step := range m.migrations {
		row, ok := applied[step.Version]
		statuses = append(statuses, MigrationStatus{
			Version:     step.Version,
			Description: step.Description,
			Applied:     ok,
			AppliedAt:   row.AppliedAt,
		})
	}
	return statuses, nil
}

func allMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "feed snapshot, manual location and map view slots",
			Up: func(db *gorm.DB) error {
				return db.AutoMigrate(&models.FeedSnapshot{}, &models.ManualLocation{}, &models.MapView{})
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&models.MapView{}, &models.ManualLocation{}, &models.FeedSnapshot{})
			},
		},
		{
			Version:     2,
			Description: "favourite trainings",
			Up: func(db *gorm.DB) error {
				return db.AutoMigrate(&models.Favorite{})
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&models.Favorite{})
			},
		},
	}
}
