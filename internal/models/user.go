package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                  uint      `gorm:"primaryKey"`
	Email               string    `gorm:"uniqueIndex;not null"`
	PasswordHash        string    `gorm:"not null"`
	Role                string    `gorm:"not null;default:user"`
	MustChangePassword  bool      `gorm:"not null;default:false"`
	OnboardingCompleted bool      `gorm:"not null;default:false"`
	CreatedAt           time.Time `gorm:"not null"`
}
