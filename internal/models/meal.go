package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

func MealCategories() []string {
	return []string{MealBreakfast, MealLunch, MealDinner, MealSnack}
}

type MealRecord struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint           `gorm:"not null;index:idx_meal_user_day" json:"user_id"`
	Day         string         `gorm:"not null;index:idx_meal_user_day" json:"day"`
	EatenAt     time.Time      `gorm:"not null" json:"eaten_at"`
	Category    string         `gorm:"not null" json:"category"`
	Description string         `json:"description"`
	Calories    float64        `gorm:"not null;default:0" json:"calories"`
	Protein     float64        `gorm:"not null;default:0" json:"protein"`
	Carbs       float64        `gorm:"not null;default:0" json:"carbs"`
	Fat         float64        `gorm:"not null;default:0" json:"fat"`
	PhotoURL    string         `json:"photo_url,omitempty"`
	Annotation  datatypes.JSON `json:"annotation,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
