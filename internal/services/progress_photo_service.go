package services

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/storage"
	"gorm.io/datatypes"
)

var (
	ErrInvalidPhotoCategory = errors.New("invalid photo category")
	ErrPhotoImageRequired   = errors.New("photo image is required")
	ErrPhotoNotFound        = errors.New("photo not found")
	ErrInvalidPhotoRange    = errors.New("invalid photo date range")
)

type PhotoStore interface {
	SavePhoto(ctx context.Context, photo *models.ProgressPhoto) error
	FindPhoto(ctx context.Context, userID uint, photoID string) (models.ProgressPhoto, bool, error)
	DeletePhoto(ctx context.Context, userID uint, photoID string) error
	ListPhotos(ctx context.Context, userID uint, query models.PhotoQuery) ([]models.ProgressPhoto, error)
}

type RemotePhotoReader interface {
	ListPhotos(ctx context.Context, userID uint, query models.PhotoQuery) ([]models.ProgressPhoto, error)
}

type PhotoUpload struct {
	Category   string
	TakenAt    *time.Time
	WeightKg   *float64
	Notes      string
	Image      storage.Image
	Annotation json.RawMessage
}

type PhotoGroup struct {
	Key    string                 `json:"key"`
	Photos []models.ProgressPhoto `json:"photos"`
}

type ProgressPhotoService struct {
	local  PhotoStore
	remote RemotePhotoReader
	files  storage.Storage
	sync   recordSync
}

func NewProgressPhotoService(local PhotoStore, remote RemotePhotoReader, queue SyncQueue, files storage.Storage, options RecordSyncOptions) *ProgressPhotoService {
	return &ProgressPhotoService{
		local:  local,
		remote: remote,
		files:  files,
		sync:   newRecordSync(queue, options),
	}
}

func (service *ProgressPhotoService) UploadPhoto(ctx context.Context, userID uint, upload PhotoUpload) (models.ProgressPhoto, error) {
	category := strings.ToLower(strings.TrimSpace(upload.Category))
	if !slices.Contains(models.PhotoCategories(), category) {
		return models.ProgressPhoto{}, ErrInvalidPhotoCategory
	}
	if len(upload.Image.Data) == 0 {
		return models.ProgressPhoto{}, ErrPhotoImageRequired
	}
	if service.files == nil {
		return models.ProgressPhoto{}, ErrStorageUnavailable
	}

	takenAt := service.sync.now()
	if upload.TakenAt != nil && !upload.TakenAt.IsZero() {
		takenAt = *upload.TakenAt
	}
	takenAt = takenAt.In(service.sync.location)

	key, err := storage.ObjectKey("progress", userID, upload.Image.ContentType)
	if err != nil {
		return models.ProgressPhoto{}, err
	}
	url, err := service.files.Put(ctx, key, upload.Image.ContentType, upload.Image.Data)
	if err != nil {
		return models.ProgressPhoto{}, err
	}

	photo := models.ProgressPhoto{
		ID:        uuid.NewString(),
		UserID:    userID,
		Day:       CurrentDay(takenAt, service.sync.location),
		TakenAt:   takenAt,
		Category:  category,
		URL:       url,
		WeightKg:  firstMeasure(upload.WeightKg),
		Notes:     strings.TrimSpace(upload.Notes),
		CreatedAt: service.sync.now(),
	}
	if len(upload.Annotation) > 0 && json.Valid(upload.Annotation) {
		photo.Annotation = datatypes.JSON(upload.Annotation)
	}

	if err := service.local.SavePhoto(ctx, &photo); err != nil {
		if deleteErr := service.files.Delete(ctx, key); deleteErr != nil {
			service.sync.logger.Warn("remove orphaned photo upload failed", "key", key, "err", deleteErr)
		}
		return models.ProgressPhoto{}, err
	}
	service.sync.submit(ctx, models.OutboxKindPhoto, photo.ID, photo)
	return photo, nil
}

// ListPhotos returns photos newest first. A successful remote read replaces
// the local copy of the queried range, except for records with undelivered
// writes.
func (service *ProgressPhotoService) ListPhotos(ctx context.Context, userID uint, query models.PhotoQuery) ([]models.ProgressPhoto, error) {
	query.Category = strings.ToLower(strings.TrimSpace(query.Category))
	if query.Category != "" && !slices.Contains(models.PhotoCategories(), query.Category) {
		return nil, ErrInvalidPhotoCategory
	}
	if query.FromDay != "" && query.ToDay != "" && query.FromDay > query.ToDay {
		return nil, ErrInvalidPhotoRange
	}

	if service.remote != nil {
		service.refreshFromRemote(ctx, userID, query)
	}
	return service.local.ListPhotos(ctx, userID, query)
}

func (service *ProgressPhotoService) DeletePhoto(ctx context.Context, userID uint, photoID string) error {
	photo, found, err := service.local.FindPhoto(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if !found {
		return ErrPhotoNotFound
	}
	if err := service.local.DeletePhoto(ctx, userID, photoID); err != nil {
		return err
	}
	service.sync.submit(ctx, models.OutboxKindPhotoDelete, photo.ID, recordDeletion{UserID: userID, ID: photo.ID})

	if service.files != nil {
		if key, ok := service.files.KeyFromURL(photo.URL); ok {
			if err := service.files.Delete(ctx, key); err != nil {
				service.sync.logger.Warn("remove photo file failed", "photo_id", photo.ID, "err", err)
			}
		}
	}
	return nil
}

func (service *ProgressPhotoService) refreshFromRemote(ctx context.Context, userID uint, query models.PhotoQuery) {
	remoteCtx, cancel := context.WithTimeout(ctx, service.sync.remoteTimeout)
	defer cancel()

	remotePhotos, err := service.remote.ListPhotos(remoteCtx, userID, query)
	if err != nil {
		service.sync.logger.Warn("remote photo read failed, using local", "user_id", userID, "err", err)
		return
	}

	pendingDeletes := service.sync.pending(ctx, models.OutboxKindPhotoDelete)
	pendingSaves := service.sync.pending(ctx, models.OutboxKindPhoto)

	remoteIDs := make(map[string]bool, len(remotePhotos))
	for _, photo := range remotePhotos {
		remoteIDs[photo.ID] = true
		if pendingDeletes[photo.ID] || pendingSaves[photo.ID] {
			continue
		}
		cached := photo
		if err := service.local.SavePhoto(ctx, &cached); err != nil {
			service.sync.logger.Warn("cache remote photo failed", "photo_id", photo.ID, "err", err)
		}
	}

	localPhotos, err := service.local.ListPhotos(ctx, userID, query)
	if err != nil {
		return
	}
	for _, photo := range localPhotos {
		if remoteIDs[photo.ID] || pendingSaves[photo.ID] {
			continue
		}
		if err := service.local.DeletePhoto(ctx, userID, photo.ID); err != nil {
			service.sync.logger.Warn("drop photo removed remotely failed", "photo_id", photo.ID, "err", err)
		}
	}
}

// GroupPhotosByCategory keeps the front, side, back order and leaves out
// empty categories.
func GroupPhotosByCategory(photos []models.ProgressPhoto) []PhotoGroup {
	groups := make([]PhotoGroup, 0, len(models.PhotoCategories()))
	for _, category := range models.PhotoCategories() {
		group := PhotoGroup{Key: category, Photos: make([]models.ProgressPhoto, 0)}
		for _, photo := range photos {
			if photo.Category == category {
				group.Photos = append(group.Photos, photo)
			}
		}
		if len(group.Photos) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// GroupPhotosByDay returns one group per day, newest day first.
func GroupPhotosByDay(photos []models.ProgressPhoto) []PhotoGroup {
	index := make(map[string]int)
	groups := make([]PhotoGroup, 0)
	for _, photo := range photos {
		position, ok := index[photo.Day]
		if !ok {
			position = len(groups)
			index[photo.Day] = position
			groups = append(groups, PhotoGroup{Key: photo.Day, Photos: make([]models.ProgressPhoto, 0)})
		}
		groups[position].Photos = append(groups[position].Photos, photo)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key > groups[j].Key
	})
	return groups
}
