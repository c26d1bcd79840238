package db

import (
	"context"
	"sync"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/gorm"
)

type Repositories struct {
	Users              *UserRepository
	Profiles           *ProfileRepository
	Counters           *DailyCounterRepository
	Meals              *MealRepository
	Photos             *ProgressPhotoRepository
	ReferenceMaterials *ReferenceMaterialRepository
	Outbox             *OutboxRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:              NewUserRepository(database),
		Profiles:           NewProfileRepository(database),
		Counters:           NewDailyCounterRepository(database),
		Meals:              NewMealRepository(database),
		Photos:             NewProgressPhotoRepository(database),
		ReferenceMaterials: NewReferenceMaterialRepository(database),
		Outbox:             NewOutboxRepository(database),
	}
}

// RemoteStore groups the repositories of the synced records on the remote
// database. It satisfies the outbox sink and the remote read side of the
// sync services. Every call first makes sure the remote schema exists, so
// a remote that was down at startup is picked up once it answers.
type RemoteStore struct {
	counters *DailyCounterRepository
	meals    *MealRepository
	photos   *ProgressPhotoRepository
	database *gorm.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

func NewRemoteStore(database *gorm.DB) *RemoteStore {
	return &RemoteStore{
		counters: NewDailyCounterRepository(database),
		meals:    NewMealRepository(database),
		photos:   NewProgressPhotoRepository(database),
		database: database,
	}
}

// EnsureSchema migrates the remote schema once. A failed attempt is
// retried on the next call.
func (store *RemoteStore) EnsureSchema(ctx context.Context) error {
	store.schemaMu.Lock()
	defer store.schemaMu.Unlock()

	if store.schemaReady {
		return nil
	}
	if err := MigrateRemoteSchema(store.database.WithContext(ctx)); err != nil {
		return err
	}
	store.schemaReady = true
	return nil
}

func (store *RemoteStore) FindCounter(ctx context.Context, userID uint, metric string, day string) (models.DailyCounter, bool, error) {
	if err := store.EnsureSchema(ctx); err != nil {
		return models.DailyCounter{}, false, err
	}
	return store.counters.FindCounter(ctx, userID, metric, day)
}

func (store *RemoteStore) FindLatestCounter(ctx context.Context, userID uint, metric string) (models.DailyCounter, bool, error) {
	if err := store.EnsureSchema(ctx); err != nil {
		return models.DailyCounter{}, false, err
	}
	return store.counters.FindLatestCounter(ctx, userID, metric)
}

func (store *RemoteStore) SaveCounter(ctx context.Context, record *models.DailyCounter) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.counters.SaveCounter(ctx, record)
}

func (store *RemoteStore) SaveMeal(ctx context.Context, meal *models.MealRecord) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.meals.SaveMeal(ctx, meal)
}

func (store *RemoteStore) DeleteMeal(ctx context.Context, userID uint, mealID string) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.meals.DeleteMeal(ctx, userID, mealID)
}

func (store *RemoteStore) ListMealsByDay(ctx context.Context, userID uint, day string) ([]models.MealRecord, error) {
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store.meals.ListMealsByDay(ctx, userID, day)
}

func (store *RemoteStore) SavePhoto(ctx context.Context, photo *models.ProgressPhoto) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.photos.SavePhoto(ctx, photo)
}

func (store *RemoteStore) DeletePhoto(ctx context.Context, userID uint, photoID string) error {
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.photos.DeletePhoto(ctx, userID, photoID)
}

func (store *RemoteStore) ListPhotos(ctx context.Context, userID uint, query models.PhotoQuery) ([]models.ProgressPhoto, error) {
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store.photos.ListPhotos(ctx, userID, query)
}
