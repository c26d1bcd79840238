package models

import "time"

type ReferenceMaterial struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url,omitempty"`
	Tags      []string  `gorm:"serializer:json" json:"tags"`
	Published bool      `gorm:"not null" json:"published"`
	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
