package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MetricWater    = "water"
	MetricCalories = "calories"
	MetricMeals    = "meals"
)

// DailyCounter is one tracked metric for one user on one calendar day.
// Date is the day string produced by services.CurrentDay.
type DailyCounter struct {
	ID            uint           `gorm:"primaryKey" json:"-"`
	UserID        uint           `gorm:"not null;uniqueIndex:uidx_counter_user_metric_date" json:"user_id"`
	Metric        string         `gorm:"not null;uniqueIndex:uidx_counter_user_metric_date" json:"metric"`
	Date          string         `gorm:"not null;uniqueIndex:uidx_counter_user_metric_date" json:"date"`
	TargetValue   int            `gorm:"not null;default:0" json:"target_value"`
	ConsumedValue int            `gorm:"not null;default:0" json:"consumed_value"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CounterHistory holds the rolling per-day projection shown in history charts.
type CounterHistory struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	UserID        uint   `gorm:"not null;uniqueIndex:uidx_history_user_metric_date" json:"-"`
	Metric        string `gorm:"not null;uniqueIndex:uidx_history_user_metric_date" json:"-"`
	Date          string `gorm:"not null;uniqueIndex:uidx_history_user_metric_date" json:"date"`
	TargetValue   int    `gorm:"not null;default:0" json:"target_value"`
	ConsumedValue int    `gorm:"not null;default:0" json:"consumed_value"`
}

func (CounterHistory) TableName() string {
	return "counter_history"
}
