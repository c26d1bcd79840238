package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/storage"
)

var (
	ErrInvalidProfileInput    = errors.New("invalid profile input")
	ErrInvalidOnboardingData  = errors.New("invalid onboarding data")
	ErrAvatarStorageFailed    = errors.New("avatar storage failed")
	ErrProfileUserUnavailable = errors.New("profile user unavailable")
)

// ProfileFieldError names the field that failed validation.
type ProfileFieldError struct {
	Field string
}

func (err *ProfileFieldError) Error() string {
	return "invalid profile field " + err.Field
}

func (err *ProfileFieldError) Unwrap() error {
	return ErrInvalidProfileInput
}

type ProfileStore interface {
	FindByUserID(userID uint) (models.Profile, bool, error)
	UpdateByUserID(userID uint, updates map[string]any) error
	SaveOnboardingData(userID uint, document []byte) error
}

type ProfileUserReader interface {
	FindByID(userID uint) (models.User, error)
}

type WaterTargetUpdater interface {
	RecalculateWaterTarget(ctx context.Context, userID uint, weightKg float64) (CounterSnapshot, error)
}

// ProfileUpdate carries the fields a user edits. Nil fields are left
// unchanged; an empty string clears a text field.
type ProfileUpdate struct {
	FullName    *string         `json:"fullName"`
	Phone       *string         `json:"phone"`
	PrimaryGoal *string         `json:"primaryGoal"`
	Address     *ProfileAddress `json:"address"`

	Age           *int     `json:"age"`
	Gender        *string  `json:"gender"`
	HeightCm      *float64 `json:"heightCm"`
	WeightKg      *float64 `json:"weightKg"`
	WaistCm       *float64 `json:"waistCm"`
	BodyFatPct    *float64 `json:"bodyFatPct"`
	MuscleMassPct *float64 `json:"muscleMassPct"`

	HealthConditionsText    *string `json:"healthConditionsText"`
	HealthConcernsText      *string `json:"healthConcernsText"`
	DietaryRestrictionsText *string `json:"dietaryRestrictionsText"`
	SupplementsText         *string `json:"supplementsText"`
	SupplementsFrequency    *string `json:"supplementsFrequency"`
	SecondaryGoalsText      *string `json:"secondaryGoalsText"`
	AllergiesText           *string `json:"allergiesText"`
	MedicationsText         *string `json:"medicationsText"`
	FrequentSymptomsText    *string `json:"frequentSymptomsText"`
}

type ProfileService struct {
	profiles   ProfileStore
	users      ProfileUserReader
	normalizer *ProfileNormalizer
	water      WaterTargetUpdater
	files      storage.Storage
	logger     *log.Logger
}

func NewProfileService(profiles ProfileStore, users ProfileUserReader, water WaterTargetUpdater, files storage.Storage, logger *log.Logger) *ProfileService {
	logger = loggerOrDiscard(logger)
	return &ProfileService{
		profiles:   profiles,
		users:      users,
		normalizer: NewProfileNormalizer(logger),
		water:      water,
		files:      files,
		logger:     logger,
	}
}

func (service *ProfileService) LoadProfile(userID uint) (UserProfile, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrProfileUserUnavailable, err)
	}
	row, _, err := service.profiles.FindByUserID(userID)
	if err != nil {
		return UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return service.normalizer.Normalize(row, user), nil
}

func (service *ProfileService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (UserProfile, error) {
	current, _, err := service.profiles.FindByUserID(userID)
	if err != nil {
		return UserProfile{}, fmt.Errorf("load profile: %w", err)
	}

	updates, err := profileColumnUpdates(update)
	if err != nil {
		return UserProfile{}, err
	}

	height := current.HeightCm
	if update.HeightCm != nil {
		height = normalizeHeightCm(update.HeightCm)
	}
	weight := current.WeightKg
	if update.WeightKg != nil {
		weight = update.WeightKg
	}
	if height != nil && weight != nil {
		if bmi, ok := ComputeBMI(*height, *weight); ok {
			updates["bmi"] = bmi
		}
	}

	if err := service.profiles.UpdateByUserID(userID, updates); err != nil {
		return UserProfile{}, fmt.Errorf("update profile: %w", err)
	}

	if update.WeightKg != nil && (current.WeightKg == nil || *current.WeightKg != *update.WeightKg) {
		service.recalculateWater(ctx, userID, *update.WeightKg)
	}
	return service.LoadProfile(userID)
}

// SaveOnboarding stores the questionnaire as submitted and marks onboarding
// complete. Answers only surface where the relational profile has no value.
func (service *ProfileService) SaveOnboarding(ctx context.Context, userID uint, raw []byte) (UserProfile, error) {
	if err := ValidateOnboardingDocument(raw); err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidOnboardingData, err)
	}
	if err := service.profiles.SaveOnboardingData(userID, raw); err != nil {
		return UserProfile{}, fmt.Errorf("save onboarding: %w", err)
	}

	profile, err := service.LoadProfile(userID)
	if err != nil {
		return UserProfile{}, err
	}
	if profile.WeightKg != nil {
		service.recalculateWater(ctx, userID, *profile.WeightKg)
	}
	return profile, nil
}

// UpdateAvatar stores a new avatar image and drops the previous file.
func (service *ProfileService) UpdateAvatar(ctx context.Context, userID uint, image storage.Image) (UserProfile, error) {
	if service.files == nil {
		return UserProfile{}, ErrStorageUnavailable
	}
	current, _, err := service.profiles.FindByUserID(userID)
	if err != nil {
		return UserProfile{}, fmt.Errorf("load profile: %w", err)
	}

	key, err := storage.ObjectKey("avatars", userID, image.ContentType)
	if err != nil {
		return UserProfile{}, err
	}
	url, err := service.files.Put(ctx, key, image.ContentType, image.Data)
	if err != nil {
		return UserProfile{}, fmt.Errorf("%w: %v", ErrAvatarStorageFailed, err)
	}
	if err := service.profiles.UpdateByUserID(userID, map[string]any{"avatar_url": url}); err != nil {
		return UserProfile{}, fmt.Errorf("update avatar: %w", err)
	}

	if current.AvatarURL != nil {
		if oldKey, ok := service.files.KeyFromURL(*current.AvatarURL); ok && oldKey != key {
			if err := service.files.Delete(ctx, oldKey); err != nil {
				service.logger.Warn("remove previous avatar failed", "user_id", userID, "err", err)
			}
		}
	}
	return service.LoadProfile(userID)
}

func (service *ProfileService) recalculateWater(ctx context.Context, userID uint, weightKg float64) {
	if service.water == nil {
		return
	}
	if _, err := service.water.RecalculateWaterTarget(ctx, userID, weightKg); err != nil {
		service.logger.Warn("recalculate water target failed", "user_id", userID, "err", err)
	}
}

func profileColumnUpdates(update ProfileUpdate) (map[string]any, error) {
	updates := make(map[string]any)

	setText := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setTags := func(column string, value *string) {
		if value != nil {
			updates[column] = JoinTags(SplitTags(*value))
		}
	}

	setText("full_name", update.FullName)
	setText("phone", update.Phone)
	setText("primary_goal", update.PrimaryGoal)
	setText("supplements_frequency", update.SupplementsFrequency)
	if update.Gender != nil {
		gender := strings.ToLower(strings.TrimSpace(*update.Gender))
		updates["gender"] = gender
	}
	if update.Address != nil {
		updates["address_street"] = strings.TrimSpace(update.Address.Street)
		updates["address_number"] = strings.TrimSpace(update.Address.Number)
		updates["address_complement"] = strings.TrimSpace(update.Address.Complement)
		updates["address_district"] = strings.TrimSpace(update.Address.District)
		updates["address_city"] = strings.TrimSpace(update.Address.City)
		updates["address_state"] = strings.TrimSpace(update.Address.State)
		updates["address_postal_code"] = strings.TrimSpace(update.Address.PostalCode)
	}

	setTags("health_conditions", update.HealthConditionsText)
	setTags("health_concerns", update.HealthConcernsText)
	setTags("dietary_restrictions", update.DietaryRestrictionsText)
	setTags("supplements", update.SupplementsText)
	setTags("secondary_goals", update.SecondaryGoalsText)
	setTags("allergies", update.AllergiesText)
	setTags("medications", update.MedicationsText)
	setTags("frequent_symptoms", update.FrequentSymptomsText)

	if update.Age != nil {
		if *update.Age < 1 || *update.Age > 130 {
			return nil, &ProfileFieldError{Field: "age"}
		}
		updates["age"] = *update.Age
	}

	measures := []struct {
		field    string
		column   string
		value    *float64
		min, max float64
	}{
		{field: "heightCm", column: "height_cm", value: normalizeHeightCm(update.HeightCm), min: 50, max: 272},
		{field: "weightKg", column: "weight_kg", value: update.WeightKg, min: 2, max: 600},
		{field: "waistCm", column: "waist_cm", value: update.WaistCm, min: 20, max: 300},
		{field: "bodyFatPct", column: "body_fat_pct", value: update.BodyFatPct, min: 0, max: 100},
		{field: "muscleMassPct", column: "muscle_mass_pct", value: update.MuscleMassPct, min: 0, max: 100},
	}
	for _, measure := range measures {
		if measure.value == nil {
			continue
		}
		value := *measure.value
		if !isFinite(value) || value < measure.min || value > measure.max {
			return nil, &ProfileFieldError{Field: measure.field}
		}
		updates[measure.column] = roundTo(value, 1)
	}
	return updates, nil
}
