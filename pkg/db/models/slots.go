package models

import "time"

// Slot names of the single-row tables.
const (
	SlotFeed           = "feed"
	SlotManualLocation = "manual_location"
	SlotMapView        = "map_view"
)

// FeedSnapshot caches the raw training feed payload
type FeedSnapshot struct {
	Slot      string `gorm:"primaryKey;type:text"`
	Source    string `gorm:"type:text"`
	Payload   []byte `gorm:"not null"`
	FetchedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// Expired reports whether the snapshot is past its expiry at now.
func (f *FeedSnapshot) Expired(now time.Time) bool {
	return !f.ExpiresAt.IsZero() && now.After(f.ExpiresAt)
}

// ManualLocation stores the last manually entered user position
type ManualLocation struct {
	Slot    string  `gorm:"primaryKey;type:text"`
	Lat     float64 `gorm:"not null"`
	Lng     float64 `gorm:"not null"`
	Address string  `gorm:"type:text"`

	UpdatedAt time.Time
}

// MapView stores the last map center and zoom
type MapView struct {
	Slot      string  `gorm:"primaryKey;type:text"`
	CenterLat float64 `gorm:"not null"`
	CenterLng float64 `gorm:"not null"`
	Zoom      float64 `gorm:"not null"`
	SavedAt   time.Time
}
