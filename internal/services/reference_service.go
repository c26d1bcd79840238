package services

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/terraincognita07/nutriwell/internal/models"
)

var (
	ErrReferenceMaterialNotFound = errors.New("reference material not found")
	ErrReferenceTitleRequired    = errors.New("reference material title is required")
	ErrReferenceInvalidURL       = errors.New("reference material url is invalid")
)

const maxReferenceTitleLength = 200

type ReferenceMaterialStore interface {
	Create(material *models.ReferenceMaterial) error
	Save(material *models.ReferenceMaterial) error
	FindByID(materialID uint) (models.ReferenceMaterial, bool, error)
	Delete(materialID uint) (bool, error)
	List(tag string, includeUnpublished bool) ([]models.ReferenceMaterial, error)
}

type ReferenceMaterialInput struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	URL       string   `json:"url"`
	Tags      []string `json:"tags"`
	TagsText  string   `json:"tagsText"`
	Published *bool    `json:"published"`
}

type ReferenceService struct {
	materials ReferenceMaterialStore
}

func NewReferenceService(materials ReferenceMaterialStore) *ReferenceService {
	return &ReferenceService{materials: materials}
}

func (service *ReferenceService) List(tag string, includeUnpublished bool) ([]models.ReferenceMaterial, error) {
	return service.materials.List(strings.TrimSpace(tag), includeUnpublished)
}

func (service *ReferenceService) Get(materialID uint, includeUnpublished bool) (models.ReferenceMaterial, error) {
	material, found, err := service.materials.FindByID(materialID)
	if err != nil {
		return models.ReferenceMaterial{}, err
	}
	if !found || (!material.Published && !includeUnpublished) {
		return models.ReferenceMaterial{}, ErrReferenceMaterialNotFound
	}
	return material, nil
}

func (service *ReferenceService) Create(authorID uint, input ReferenceMaterialInput) (models.ReferenceMaterial, error) {
	material := models.ReferenceMaterial{CreatedBy: authorID, Published: true}
	if err := applyReferenceInput(&material, input); err != nil {
		return models.ReferenceMaterial{}, err
	}
	if err := service.materials.Create(&material); err != nil {
		return models.ReferenceMaterial{}, err
	}
	return material, nil
}

func (service *ReferenceService) Update(materialID uint, input ReferenceMaterialInput) (models.ReferenceMaterial, error) {
	material, found, err := service.materials.FindByID(materialID)
	if err != nil {
		return models.ReferenceMaterial{}, err
	}
	if !found {
		return models.ReferenceMaterial{}, ErrReferenceMaterialNotFound
	}
	if err := applyReferenceInput(&material, input); err != nil {
		return models.ReferenceMaterial{}, err
	}
	material.UpdatedAt = time.Now()
	if err := service.materials.Save(&material); err != nil {
		return models.ReferenceMaterial{}, err
	}
	return material, nil
}

func (service *ReferenceService) Delete(materialID uint) error {
	deleted, err := service.materials.Delete(materialID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrReferenceMaterialNotFound
	}
	return nil
}

// applyReferenceInput validates input and copies it onto material. Tags
// from the list and the comma-joined text are merged into one canonical
// list.
func applyReferenceInput(material *models.ReferenceMaterial, input ReferenceMaterialInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return ErrReferenceTitleRequired
	}
	if len([]rune(title)) > maxReferenceTitleLength {
		title = string([]rune(title)[:maxReferenceTitleLength])
	}

	link := strings.TrimSpace(input.URL)
	if link != "" {
		parsed, err := url.Parse(link)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return ErrReferenceInvalidURL
		}
	}

	material.Title = title
	material.Body = strings.TrimSpace(input.Body)
	material.URL = link
	material.Tags = canonicalTags(append(append([]string{}, input.Tags...), input.TagsText))
	if input.Published != nil {
		material.Published = *input.Published
	}
	return nil
}
