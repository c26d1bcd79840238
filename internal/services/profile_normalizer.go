package services

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/terraincognita07/nutriwell/internal/models"
)

type ProfileAddress struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// UserProfile is the flat view of a user's profile. Every multi-valued
// attribute is exposed both as an array and as its comma-joined Text form.
type UserProfile struct {
	UserID      uint           `json:"userId"`
	Email       string         `json:"email"`
	FullName    string         `json:"fullName"`
	Phone       string         `json:"phone"`
	PrimaryGoal string         `json:"primaryGoal"`
	Address     ProfileAddress `json:"address"`

	Age           *int     `json:"age"`
	Gender        string   `json:"gender"`
	HeightCm      *float64 `json:"heightCm"`
	WeightKg      *float64 `json:"weightKg"`
	WaistCm       *float64 `json:"waistCm"`
	BodyFatPct    *float64 `json:"bodyFatPct"`
	MuscleMassPct *float64 `json:"muscleMassPct"`
	BMI           *float64 `json:"bmi"`
	BMICategory   string   `json:"bmiCategory"`

	HealthConditions        []string `json:"healthConditions"`
	HealthConditionsText    string   `json:"healthConditionsText"`
	HealthConcerns          []string `json:"healthConcerns"`
	HealthConcernsText      string   `json:"healthConcernsText"`
	DietaryRestrictions     []string `json:"dietaryRestrictions"`
	DietaryRestrictionsText string   `json:"dietaryRestrictionsText"`
	Supplements             []string `json:"supplements"`
	SupplementsText         string   `json:"supplementsText"`
	SupplementsFrequency    string   `json:"supplementsFrequency"`
	SecondaryGoals          []string `json:"secondaryGoals"`
	SecondaryGoalsText      string   `json:"secondaryGoalsText"`
	Allergies               []string `json:"allergies"`
	AllergiesText           string   `json:"allergiesText"`
	Medications             []string `json:"medications"`
	MedicationsText         string   `json:"medicationsText"`
	FrequentSymptoms        []string `json:"frequentSymptoms"`
	FrequentSymptomsText    string   `json:"frequentSymptomsText"`

	AvatarURL           string    `json:"avatarUrl"`
	OnboardingCompleted bool      `json:"onboardingCompleted"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type ProfileNormalizer struct {
	logger *log.Logger
}

func NewProfileNormalizer(logger *log.Logger) *ProfileNormalizer {
	return &ProfileNormalizer{logger: loggerOrDiscard(logger)}
}

// Normalize merges the relational row with the stored onboarding document.
// Relational values win; onboarding answers only fill what the row lacks.
// Undecodable onboarding values are logged and skipped.
func (normalizer *ProfileNormalizer) Normalize(row models.Profile, user models.User) UserProfile {
	onboarding, warnings := MigrateOnboarding(row.OnboardingData)
	for _, warning := range warnings {
		normalizer.logger.Warn("onboarding data skipped", "user_id", user.ID, "err", warning)
	}

	profile := UserProfile{
		UserID:      user.ID,
		Email:       user.Email,
		FullName:    firstText(row.FullName, onboarding.FullName),
		Phone:       firstText(row.Phone, onboarding.Phone),
		PrimaryGoal: firstText(row.PrimaryGoal, onboarding.PrimaryGoal),
		Address: ProfileAddress{
			Street:     firstText(row.AddressStreet, onboarding.Address.Street),
			Number:     firstText(row.AddressNumber, onboarding.Address.Number),
			Complement: firstText(row.AddressComplement, onboarding.Address.Complement),
			District:   firstText(row.AddressDistrict, onboarding.Address.District),
			City:       firstText(row.AddressCity, onboarding.Address.City),
			State:      firstText(row.AddressState, onboarding.Address.State),
			PostalCode: firstText(row.AddressPostalCode, onboarding.Address.PostalCode),
		},
		Gender:               firstText(row.Gender, onboarding.Gender),
		SupplementsFrequency: firstText(row.SupplementsFrequency, onboarding.SupplementsFrequency),
		OnboardingCompleted:  user.OnboardingCompleted,
		UpdatedAt:            row.UpdatedAt,
	}

	profile.Age = row.Age
	if profile.Age == nil || *profile.Age <= 0 {
		profile.Age = onboarding.Age
	}
	profile.HeightCm = firstMeasure(normalizeHeightCm(row.HeightCm), onboarding.HeightCm)
	profile.WeightKg = firstMeasure(row.WeightKg, onboarding.WeightKg)
	profile.WaistCm = firstMeasure(row.WaistCm, onboarding.WaistCm)
	profile.BodyFatPct = firstMeasure(row.BodyFatPct, onboarding.BodyFatPct)
	profile.MuscleMassPct = firstMeasure(row.MuscleMassPct, onboarding.MuscleMassPct)

	profile.BMI = firstMeasure(row.BMI, onboarding.BMI)
	if profile.HeightCm != nil && profile.WeightKg != nil {
		if bmi, ok := ComputeBMI(*profile.HeightCm, *profile.WeightKg); ok {
			profile.BMI = &bmi
		}
	}
	if profile.BMI != nil {
		profile.BMICategory = BMICategory(*profile.BMI)
	}

	profile.HealthConditions, profile.HealthConditionsText = mergedTags(row.HealthConditions, onboarding.HealthConditions)
	profile.HealthConcerns, profile.HealthConcernsText = mergedTags(row.HealthConcerns, onboarding.HealthConcerns)
	profile.DietaryRestrictions, profile.DietaryRestrictionsText = mergedTags(row.DietaryRestrictions, onboarding.DietaryRestrictions)
	profile.Supplements, profile.SupplementsText = mergedTags(row.Supplements, onboarding.Supplements)
	profile.SecondaryGoals, profile.SecondaryGoalsText = mergedTags(row.SecondaryGoals, onboarding.SecondaryGoals)
	profile.Allergies, profile.AllergiesText = mergedTags(row.Allergies, onboarding.Allergies)
	profile.Medications, profile.MedicationsText = mergedTags(row.Medications, onboarding.Medications)
	profile.FrequentSymptoms, profile.FrequentSymptomsText = mergedTags(row.FrequentSymptoms, onboarding.FrequentSymptoms)

	if row.AvatarURL != nil {
		profile.AvatarURL = strings.TrimSpace(*row.AvatarURL)
	}
	return profile
}

// AvatarURLForRender appends a v=<unix millis> cache-busting parameter,
// keeping any query the URL already has.
func AvatarURLForRender(rawURL string, now time.Time) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}
	stamp := strconv.FormatInt(now.UnixMilli(), 10)

	parsed, err := url.Parse(trimmed)
	if err != nil {
		separator := "?"
		if strings.Contains(trimmed, "?") {
			separator = "&"
		}
		return trimmed + separator + "v=" + stamp
	}
	query := parsed.Query()
	query.Set("v", stamp)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func firstText(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstMeasure(values ...*float64) *float64 {
	for _, value := range values {
		if value != nil && isPositiveFinite(*value) {
			copied := *value
			return &copied
		}
	}
	return nil
}

func mergedTags(relationalText string, fallback []string) ([]string, string) {
	tags := SplitTags(relationalText)
	if len(tags) == 0 {
		tags = canonicalTags(fallback)
	}
	return tags, JoinTags(tags)
}
