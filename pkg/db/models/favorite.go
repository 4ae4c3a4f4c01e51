package models

import "time"

// Favorite marks a training as favourited
type Favorite struct {
	TrainingID int `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time
}
