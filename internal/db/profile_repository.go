package db

import (
	"time"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	database *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{database: database}
}

func (repo *ProfileRepository) FindByUserID(userID uint) (models.Profile, bool, error) {
	profile := models.Profile{}
	result := repo.database.Where("user_id = ?", userID).Limit(1).Find(&profile)
	if result.Error != nil {
		return models.Profile{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Profile{}, false, nil
	}
	return profile, true, nil
}

// UpdateByUserID applies column updates to the user's profile row, creating
// the row first when the user has none yet.
func (repo *ProfileRepository) UpdateByUserID(userID uint, updates map[string]any) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := ensureProfileRow(tx, userID); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now()
		return tx.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(updates).Error
	})
}

// SaveOnboardingData stores the questionnaire document as submitted and
// flags the user's onboarding as complete.
func (repo *ProfileRepository) SaveOnboardingData(userID uint, document []byte) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := ensureProfileRow(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(map[string]any{
			"onboarding_data": datatypes.JSON(document),
			"updated_at":      time.Now(),
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("onboarding_completed", true).Error
	})
}

func ensureProfileRow(tx *gorm.DB, userID uint) error {
	now := time.Now()
	row := models.Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&row).Error
}
