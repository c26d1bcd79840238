package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PhotoFront = "front"
	PhotoSide  = "side"
	PhotoBack  = "back"
)

func PhotoCategories() []string {
	return []string{PhotoFront, PhotoSide, PhotoBack}
}

type ProgressPhoto struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	UserID     uint           `gorm:"not null;index:idx_photo_user_day" json:"user_id"`
	Day        string         `gorm:"not null;index:idx_photo_user_day" json:"day"`
	TakenAt    time.Time      `gorm:"not null" json:"taken_at"`
	Category   string         `gorm:"not null" json:"category"`
	URL        string         `gorm:"not null" json:"url"`
	WeightKg   *float64       `json:"weight_kg,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	Annotation datatypes.JSON `json:"annotation,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PhotoQuery filters progress photos. Empty fields do not filter.
type PhotoQuery struct {
	Category string
	FromDay  string
	ToDay    string
}
