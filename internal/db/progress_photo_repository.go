package db

import (
	"context"
	"fmt"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressPhotoRepository struct {
	database *gorm.DB
}

func NewProgressPhotoRepository(database *gorm.DB) *ProgressPhotoRepository {
	return &ProgressPhotoRepository{database: database}
}

func (repo *ProgressPhotoRepository) SavePhoto(ctx context.Context, photo *models.ProgressPhoto) error {
	err := repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(photo).Error
	if err != nil {
		return fmt.Errorf("save progress photo: %w", err)
	}
	return nil
}

func (repo *ProgressPhotoRepository) FindPhoto(ctx context.Context, userID uint, photoID string) (models.ProgressPhoto, bool, error) {
	photo := models.ProgressPhoto{}
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, photoID).
		Limit(1).
		Find(&photo)
	if result.Error != nil {
		return models.ProgressPhoto{}, false, fmt.Errorf("find progress photo: %w", result.Error)
	}
	return photo, result.RowsAffected > 0, nil
}

func (repo *ProgressPhotoRepository) DeletePhoto(ctx context.Context, userID uint, photoID string) error {
	if err := repo.database.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, photoID).
		Delete(&models.ProgressPhoto{}).Error; err != nil {
		return fmt.Errorf("delete progress photo: %w", err)
	}
	return nil
}

func (repo *ProgressPhotoRepository) ListPhotos(ctx context.Context, userID uint, query models.PhotoQuery) ([]models.ProgressPhoto, error) {
	statement := repo.database.WithContext(ctx).Model(&models.ProgressPhoto{}).Where("user_id = ?", userID)
	if query.Category != "" {
		statement = statement.Where("category = ?", query.Category)
	}
	if query.FromDay != "" {
		statement = statement.Where("day >= ?", query.FromDay)
	}
	if query.ToDay != "" {
		statement = statement.Where("day <= ?", query.ToDay)
	}

	photos := make([]models.ProgressPhoto, 0)
	if err := statement.Order("taken_at DESC, id ASC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("list progress photos: %w", err)
	}
	return photos, nil
}
