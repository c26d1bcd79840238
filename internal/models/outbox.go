package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	OutboxKindCounter     = "daily_counter"
	OutboxKindMeal        = "meal"
	OutboxKindMealDelete  = "meal_delete"
	OutboxKindPhoto       = "progress_photo"
	OutboxKindPhotoDelete = "progress_photo_delete"
)

// OutboxEntry is a pending remote write. Entries are coalesced on
// (kind, record_key) so only the latest payload is delivered.
type OutboxEntry struct {
	ID            uint           `gorm:"primaryKey"`
	Kind          string         `gorm:"not null;uniqueIndex:uidx_outbox_kind_key"`
	RecordKey     string         `gorm:"not null;uniqueIndex:uidx_outbox_kind_key"`
	Payload       datatypes.JSON `gorm:"not null"`
	Version       int            `gorm:"not null;default:1"`
	Attempts      int            `gorm:"not null;default:0"`
	NextAttemptAt time.Time      `gorm:"not null;index"`
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (OutboxEntry) TableName() string {
	return "sync_outbox"
}
