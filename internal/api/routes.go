package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/storage"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	registerUploadRoutes(app, handler)
	registerAPIRoutes(app, handler)
	app.Use(handler.NotFound)
}

// registerUploadRoutes serves disk-stored images. Object storage serves its
// own public URLs.
func registerUploadRoutes(app *fiber.App, handler *Handler) {
	disk, ok := handler.files.(*storage.DiskStorage)
	if !ok || disk == nil {
		return
	}
	app.Static(disk.PublicPath(), disk.Root(), fiber.Static{
		ByteRange: true,
		MaxAge:    3600,
	})
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.Logout)
	auth.Get("/me", handler.AuthRequired, handler.Me)
	auth.Post("/change-password", handler.AuthRequired, handler.ChangePassword)

	profile := api.Group("/profile", handler.AuthRequired)
	profile.Get("", handler.GetProfile)
	profile.Patch("", handler.UpdateProfile)
	profile.Post("/onboarding", handler.SaveOnboarding)
	profile.Post("/avatar", handler.UpdateAvatar)

	counters := api.Group("/counters", handler.AuthRequired)
	counters.Post("/water/recalculate", handler.RecalculateWaterTarget)
	counters.Get("/:metric", handler.GetCounter)
	counters.Get("/:metric/history", handler.GetCounterHistory)
	counters.Post("/:metric/increment", handler.IncrementCounter)
	counters.Post("/:metric/decrement", handler.DecrementCounter)
	counters.Post("/:metric/add", handler.AddToCounter)
	counters.Post("/:metric/target", handler.SetCounterTarget)

	meals := api.Group("/meals", handler.AuthRequired)
	meals.Get("", handler.ListMeals)
	meals.Post("", handler.LogMeal)
	meals.Get("/nutrition", handler.DailyNutrition)
	meals.Post("/analyze", handler.AnalyzeMeal)
	meals.Delete("/:id", handler.DeleteMeal)

	photos := api.Group("/photos", handler.AuthRequired)
	photos.Get("", handler.ListPhotos)
	photos.Post("", handler.UploadPhoto)
	photos.Delete("/:id", handler.DeletePhoto)

	sync := api.Group("/sync", handler.AuthRequired)
	sync.Get("/status", handler.SyncStatus)
	sync.Post("/flush", handler.SyncFlush)

	materials := api.Group("/materials", handler.AuthRequired)
	materials.Get("", handler.ListMaterials)
	materials.Get("/:id", handler.GetMaterial)

	admin := api.Group("/admin", handler.AuthRequired, handler.AdminOnly)
	admin.Get("/materials", handler.AdminListMaterials)
	admin.Post("/materials", handler.AdminCreateMaterial)
	admin.Put("/materials/:id", handler.AdminUpdateMaterial)
	admin.Delete("/materials/:id", handler.AdminDeleteMaterial)
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	return apiError(c, fiber.StatusNotFound, "not found")
}
