package api

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/terraincognita07/nutriwell/internal/analysis"
	"github.com/terraincognita07/nutriwell/internal/db"
	"github.com/terraincognita07/nutriwell/internal/services"
	"github.com/terraincognita07/nutriwell/internal/storage"
	"gorm.io/gorm"
)

// HandlerConfig wires the handler to its stores. Remote, Analyzer and Files
// are optional; without Remote the app runs local-only.
type HandlerConfig struct {
	Database     *gorm.DB
	Remote       *db.RemoteStore
	Files        storage.Storage
	Analyzer     *analysis.Client
	SecretKey    string
	CookieSecure bool
	Location     *time.Location

	WaterPortionML int
	HistoryWindow  int
	SyncInterval   time.Duration
	RemoteTimeout  time.Duration

	Logger *log.Logger
	Now    func() time.Time
}

type Handler struct {
	secretKey    []byte
	cookieSecure bool
	location     *time.Location
	logger       *log.Logger
	now          func() time.Time
	loginLimiter *attemptLimiter
	files        storage.Storage

	repositories *db.Repositories
	authService  *services.AuthService
	profiles     *services.ProfileService
	counters     *services.CounterSyncService
	meals        *services.MealService
	photos       *services.ProgressPhotoService
	references   *services.ReferenceService
	outbox       *services.OutboxService
}

type credentialsInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type counterDeltaInput struct {
	Amount int `json:"amount"`
}

type counterTargetInput struct {
	Target int `json:"target"`
}

type waterRecalculateInput struct {
	WeightKg float64 `json:"weightKg"`
}

type imageInput struct {
	// Image is a data URL (data:image/png;base64,...).
	Image string `json:"image"`
}

type mealInput struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	EatenAt     *time.Time      `json:"eatenAt"`
	Calories    float64         `json:"calories"`
	Protein     float64         `json:"protein"`
	Carbs       float64         `json:"carbs"`
	Fat         float64         `json:"fat"`
	Image       string          `json:"image"`
	Annotation  json.RawMessage `json:"annotation"`
}

type analyzeMealInput struct {
	Description string `json:"description"`
	Image       string `json:"image"`
}

type photoInput struct {
	Category   string          `json:"category"`
	TakenAt    *time.Time      `json:"takenAt"`
	WeightKg   *float64        `json:"weightKg"`
	Notes      string          `json:"notes"`
	Image      string          `json:"image"`
	Annotation json.RawMessage `json:"annotation"`
}

type authUserResponse struct {
	ID                  uint   `json:"id"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	MustChangePassword  bool   `json:"mustChangePassword"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
}

const (
	authTokenTTL = 30 * 24 * time.Hour
)
