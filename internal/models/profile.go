package models

import (
	"time"

	"gorm.io/datatypes"
)

// Profile is the relational profile row. Multi-valued attributes are
// stored as their comma-joined text form; OnboardingData keeps whatever
// document the signup questionnaire submitted.
type Profile struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex"`

	FullName    string
	Phone       string
	PrimaryGoal string

	AddressStreet     string
	AddressNumber     string
	AddressComplement string
	AddressDistrict   string
	AddressCity       string
	AddressState      string
	AddressPostalCode string

	Age           *int
	Gender        string
	HeightCm      *float64
	WeightKg      *float64
	WaistCm       *float64
	BodyFatPct    *float64
	MuscleMassPct *float64
	BMI           *float64 `gorm:"column:bmi"`

	HealthConditions     string
	HealthConcerns       string
	DietaryRestrictions  string
	Supplements          string
	SupplementsFrequency string
	SecondaryGoals       string
	Allergies            string
	Medications          string
	FrequentSymptoms     string

	AvatarURL      *string
	OnboardingData datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time
}
