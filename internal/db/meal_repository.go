package db

import (
	"context"
	"fmt"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MealRepository struct {
	database *gorm.DB
}

func NewMealRepository(database *gorm.DB) *MealRepository {
	return &MealRepository{database: database}
}

func (repo *MealRepository) SaveMeal(ctx context.Context, meal *models.MealRecord) error {
	err := repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(meal).Error
	if err != nil {
		return fmt.Errorf("save meal: %w", err)
	}
	return nil
}

func (repo *MealRepository) FindMeal(ctx context.Context, userID uint, mealID string) (models.MealRecord, bool, error) {
	meal := models.MealRecord{}
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, mealID).
		Limit(1).
		Find(&meal)
	if result.Error != nil {
		return models.MealRecord{}, false, fmt.Errorf("find meal: %w", result.Error)
	}
	return meal, result.RowsAffected > 0, nil
}

func (repo *MealRepository) DeleteMeal(ctx context.Context, userID uint, mealID string) error {
	if err := repo.database.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, mealID).
		Delete(&models.MealRecord{}).Error; err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	return nil
}

func (repo *MealRepository) ListMealsByDay(ctx context.Context, userID uint, day string) ([]models.MealRecord, error) {
	meals := make([]models.MealRecord, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("eaten_at ASC, id ASC").
		Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return meals, nil
}
