package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/nutriwell/internal/analysis"
	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/storage"
	"gorm.io/datatypes"
)

// maxMealNutrientValue bounds calories and each macro of a single meal.
const maxMealNutrientValue = 20000

var (
	ErrInvalidMealCategory = errors.New("invalid meal category")
	ErrInvalidMealInput    = errors.New("invalid meal input")
	ErrMealNotFound        = errors.New("meal not found")
	ErrAnalysisUnavailable = errors.New("analysis service unavailable")
	ErrAnalysisFailed      = errors.New("analysis failed")
	ErrStorageUnavailable  = errors.New("file storage unavailable")
)

type MealStore interface {
	SaveMeal(ctx context.Context, meal *models.MealRecord) error
	FindMeal(ctx context.Context, userID uint, mealID string) (models.MealRecord, bool, error)
	DeleteMeal(ctx context.Context, userID uint, mealID string) error
	ListMealsByDay(ctx context.Context, userID uint, day string) ([]models.MealRecord, error)
}

type RemoteMealReader interface {
	ListMealsByDay(ctx context.Context, userID uint, day string) ([]models.MealRecord, error)
}

type CounterApplier interface {
	Apply(ctx context.Context, userID uint, metric string, delta int, metadata map[string]float64) (CounterSnapshot, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, request analysis.Request) (analysis.Estimate, error)
}

type MealInput struct {
	Category    string
	Description string
	EatenAt     *time.Time
	Calories    float64
	Protein     float64
	Carbs       float64
	Fat         float64
	Image       *storage.Image
	Annotation  json.RawMessage
}

type MealGroup struct {
	Category string              `json:"category"`
	Calories float64             `json:"calories"`
	Meals    []models.MealRecord `json:"meals"`
}

type NutritionSummary struct {
	Day        string      `json:"day"`
	Calories   float64     `json:"calories"`
	Protein    float64     `json:"protein"`
	Carbs      float64     `json:"carbs"`
	Fat        float64     `json:"fat"`
	MealCount  int         `json:"mealCount"`
	ByCategory []MealGroup `json:"byCategory"`
}

type MealService struct {
	local    MealStore
	remote   RemoteMealReader
	counters CounterApplier
	files    storage.Storage
	analyzer Analyzer
	sync     recordSync
}

// NewMealService wires the meal log. remote, files and analyzer are
// optional.
func NewMealService(local MealStore, remote RemoteMealReader, queue SyncQueue, counters CounterApplier, files storage.Storage, analyzer Analyzer, options RecordSyncOptions) *MealService {
	return &MealService{
		local:    local,
		remote:   remote,
		counters: counters,
		files:    files,
		analyzer: analyzer,
		sync:     newRecordSync(queue, options),
	}
}

// LogMeal saves a meal and, when it was eaten today, adds it to the
// calories and meals counters.
func (service *MealService) LogMeal(ctx context.Context, userID uint, input MealInput) (models.MealRecord, error) {
	eatenAt := service.sync.now()
	if input.EatenAt != nil && !input.EatenAt.IsZero() {
		eatenAt = *input.EatenAt
	}
	eatenAt = eatenAt.In(service.sync.location)

	category, err := resolveMealCategory(input.Category, eatenAt)
	if err != nil {
		return models.MealRecord{}, err
	}
	for _, value := range []float64{input.Calories, input.Protein, input.Carbs, input.Fat} {
		if value < 0 || value > maxMealNutrientValue || math.IsNaN(value) || math.IsInf(value, 0) {
			return models.MealRecord{}, ErrInvalidMealInput
		}
	}
	description := strings.TrimSpace(input.Description)
	if description == "" && input.Calories == 0 && input.Image == nil {
		return models.MealRecord{}, ErrInvalidMealInput
	}

	meal := models.MealRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Day:         CurrentDay(eatenAt, service.sync.location),
		EatenAt:     eatenAt,
		Category:    category,
		Description: description,
		Calories:    roundTo(input.Calories, 1),
		Protein:     roundTo(input.Protein, 1),
		Carbs:       roundTo(input.Carbs, 1),
		Fat:         roundTo(input.Fat, 1),
		CreatedAt:   service.sync.now(),
	}
	if len(input.Annotation) > 0 && json.Valid(input.Annotation) {
		meal.Annotation = datatypes.JSON(input.Annotation)
	}

	if input.Image != nil {
		url, err := service.storeImage(ctx, userID, *input.Image)
		if err != nil {
			return models.MealRecord{}, err
		}
		meal.PhotoURL = url
	}

	if err := service.local.SaveMeal(ctx, &meal); err != nil {
		return models.MealRecord{}, err
	}
	service.sync.submit(ctx, models.OutboxKindMeal, meal.ID, meal)
	service.applyToCounters(ctx, meal, 1)
	return meal, nil
}

func (service *MealService) DeleteMeal(ctx context.Context, userID uint, mealID string) error {
	meal, found, err := service.local.FindMeal(ctx, userID, mealID)
	if err != nil {
		return err
	}
	if !found {
		return ErrMealNotFound
	}
	if err := service.local.DeleteMeal(ctx, userID, mealID); err != nil {
		return err
	}
	service.sync.submit(ctx, models.OutboxKindMealDelete, meal.ID, recordDeletion{UserID: userID, ID: meal.ID})
	service.applyToCounters(ctx, meal, -1)
	return nil
}

// ListMeals returns the day's meals. A successful remote read replaces the
// local copy of that day, except for records with undelivered writes.
func (service *MealService) ListMeals(ctx context.Context, userID uint, day string) ([]models.MealRecord, error) {
	if day == "" {
		day = service.sync.today()
	}
	if service.remote != nil {
		service.refreshFromRemote(ctx, userID, day)
	}
	return service.local.ListMealsByDay(ctx, userID, day)
}

func (service *MealService) DailyNutrition(ctx context.Context, userID uint, day string) (NutritionSummary, error) {
	if day == "" {
		day = service.sync.today()
	}
	meals, err := service.ListMeals(ctx, userID, day)
	if err != nil {
		return NutritionSummary{}, err
	}
	return SummarizeNutrition(day, meals), nil
}

// AnalyzeMeal asks the analysis service for an estimate once. Failures are
// returned as ErrAnalysisFailed for the user to retry.
func (service *MealService) AnalyzeMeal(ctx context.Context, userID uint, description string, image *storage.Image) (analysis.Estimate, error) {
	if service.analyzer == nil {
		return analysis.Estimate{}, ErrAnalysisUnavailable
	}
	request := analysis.Request{Kind: "meal", Description: strings.TrimSpace(description)}
	if image != nil {
		request.Image = image.Data
		request.ContentType = image.ContentType
	}
	if len(request.Image) == 0 && request.Description == "" {
		return analysis.Estimate{}, ErrInvalidMealInput
	}

	estimate, err := service.analyzer.Analyze(ctx, request)
	if err != nil {
		if errors.Is(err, analysis.ErrNotConfigured) {
			return analysis.Estimate{}, ErrAnalysisUnavailable
		}
		service.sync.logger.Warn("meal analysis failed", "user_id", userID, "err", err)
		return analysis.Estimate{}, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	return estimate, nil
}

func (service *MealService) refreshFromRemote(ctx context.Context, userID uint, day string) {
	remoteCtx, cancel := context.WithTimeout(ctx, service.sync.remoteTimeout)
	defer cancel()

	remoteMeals, err := service.remote.ListMealsByDay(remoteCtx, userID, day)
	if err != nil {
		service.sync.logger.Warn("remote meal read failed, using local", "user_id", userID, "day", day, "err", err)
		return
	}

	pendingDeletes := service.sync.pending(ctx, models.OutboxKindMealDelete)
	pendingSaves := service.sync.pending(ctx, models.OutboxKindMeal)

	remoteIDs := make(map[string]bool, len(remoteMeals))
	for _, meal := range remoteMeals {
		remoteIDs[meal.ID] = true
		if pendingDeletes[meal.ID] || pendingSaves[meal.ID] {
			continue
		}
		cached := meal
		if err := service.local.SaveMeal(ctx, &cached); err != nil {
			service.sync.logger.Warn("cache remote meal failed", "meal_id", meal.ID, "err", err)
		}
	}

	localMeals, err := service.local.ListMealsByDay(ctx, userID, day)
	if err != nil {
		return
	}
	for _, meal := range localMeals {
		if remoteIDs[meal.ID] || pendingSaves[meal.ID] {
			continue
		}
		if err := service.local.DeleteMeal(ctx, userID, meal.ID); err != nil {
			service.sync.logger.Warn("drop meal removed remotely failed", "meal_id", meal.ID, "err", err)
		}
	}
}

func (service *MealService) storeImage(ctx context.Context, userID uint, image storage.Image) (string, error) {
	if service.files == nil {
		return "", ErrStorageUnavailable
	}
	key, err := storage.ObjectKey("meals", userID, image.ContentType)
	if err != nil {
		return "", err
	}
	return service.files.Put(ctx, key, image.ContentType, image.Data)
}

// applyToCounters moves today's calories and meals counters by sign × meal.
// Meals logged for other days do not touch the counters.
func (service *MealService) applyToCounters(ctx context.Context, meal models.MealRecord, sign int) {
	if service.counters == nil || meal.Day != service.sync.today() {
		return
	}
	factor := float64(sign)

	macros := map[string]float64{
		"protein": factor * meal.Protein,
		"carbs":   factor * meal.Carbs,
		"fat":     factor * meal.Fat,
	}
	if _, err := service.counters.Apply(ctx, meal.UserID, models.MetricCalories, sign*int(math.Round(meal.Calories)), macros); err != nil {
		service.sync.logger.Warn("update calories counter failed", "user_id", meal.UserID, "err", err)
	}
	if _, err := service.counters.Apply(ctx, meal.UserID, models.MetricMeals, sign, map[string]float64{meal.Category: factor}); err != nil {
		service.sync.logger.Warn("update meals counter failed", "user_id", meal.UserID, "err", err)
	}
}

// GroupMealsByCategory keeps the breakfast, lunch, dinner, snack order and
// leaves out empty categories.
func GroupMealsByCategory(meals []models.MealRecord) []MealGroup {
	groups := make([]MealGroup, 0, len(models.MealCategories()))
	for _, category := range models.MealCategories() {
		group := MealGroup{Category: category, Meals: make([]models.MealRecord, 0)}
		for _, meal := range meals {
			if meal.Category == category {
				group.Meals = append(group.Meals, meal)
				group.Calories += meal.Calories
			}
		}
		if len(group.Meals) > 0 {
			group.Calories = roundTo(group.Calories, 1)
			groups = append(groups, group)
		}
	}
	return groups
}

func SummarizeNutrition(day string, meals []models.MealRecord) NutritionSummary {
	summary := NutritionSummary{Day: day, MealCount: len(meals)}
	for _, meal := range meals {
		summary.Calories += meal.Calories
		summary.Protein += meal.Protein
		summary.Carbs += meal.Carbs
		summary.Fat += meal.Fat
	}
	summary.Calories = roundTo(summary.Calories, 1)
	summary.Protein = roundTo(summary.Protein, 1)
	summary.Carbs = roundTo(summary.Carbs, 1)
	summary.Fat = roundTo(summary.Fat, 1)
	summary.ByCategory = GroupMealsByCategory(meals)
	return summary
}

// resolveMealCategory validates an explicit category or picks one from the
// local time of day.
func resolveMealCategory(raw string, eatenAt time.Time) (string, error) {
	category := strings.ToLower(strings.TrimSpace(raw))
	if category == "" {
		switch hour := eatenAt.Hour(); {
		case hour >= 5 && hour < 11:
			return models.MealBreakfast, nil
		case hour >= 11 && hour < 15:
			return models.MealLunch, nil
		case hour >= 18 && hour < 23:
			return models.MealDinner, nil
		default:
			return models.MealSnack, nil
		}
	}
	if !slices.Contains(models.MealCategories(), category) {
		return "", ErrInvalidMealCategory
	}
	return category, nil
}
