package db

import (
	"strings"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/gorm"
)

type ReferenceMaterialRepository struct {
	database *gorm.DB
}

func NewReferenceMaterialRepository(database *gorm.DB) *ReferenceMaterialRepository {
	return &ReferenceMaterialRepository{database: database}
}

func (repo *ReferenceMaterialRepository) Create(material *models.ReferenceMaterial) error {
	return repo.database.Create(material).Error
}

func (repo *ReferenceMaterialRepository) Save(material *models.ReferenceMaterial) error {
	return repo.database.Save(material).Error
}

func (repo *ReferenceMaterialRepository) FindByID(materialID uint) (models.ReferenceMaterial, bool, error) {
	material := models.ReferenceMaterial{}
	result := repo.database.Where("id = ?", materialID).Limit(1).Find(&material)
	if result.Error != nil {
		return models.ReferenceMaterial{}, false, result.Error
	}
	return material, result.RowsAffected > 0, nil
}

func (repo *ReferenceMaterialRepository) Delete(materialID uint) (bool, error) {
	result := repo.database.Delete(&models.ReferenceMaterial{}, materialID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List returns materials newest first. Tag filtering runs in Go because tags
// are a serialized JSON column.
func (repo *ReferenceMaterialRepository) List(tag string, includeUnpublished bool) ([]models.ReferenceMaterial, error) {
	statement := repo.database.Model(&models.ReferenceMaterial{})
	if !includeUnpublished {
		statement = statement.Where("published = ?", true)
	}

	materials := make([]models.ReferenceMaterial, 0)
	if err := statement.Order("created_at DESC, id DESC").Find(&materials).Error; err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(tag))
	if needle == "" {
		return materials, nil
	}
	filtered := make([]models.ReferenceMaterial, 0, len(materials))
	for _, material := range materials {
		for _, candidate := range material.Tags {
			if strings.ToLower(candidate) == needle {
				filtered = append(filtered, material)
				break
			}
		}
	}
	return filtered, nil
}
