package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func (handler *Handler) ListMeals(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	day, err := handler.parseDayQuery(c, "date")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	meals, err := handler.meals.ListMeals(c.UserContext(), user.ID, day)
	if err != nil {
		return mealAPIError(c, err)
	}
	if meals == nil {
		meals = []models.MealRecord{}
	}
	if day == "" {
		day = handler.counters.Today()
	}
	return c.JSON(fiber.Map{
		"date":   day,
		"meals":  meals,
		"groups": services.GroupMealsByCategory(meals),
	})
}

func (handler *Handler) DailyNutrition(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	day, err := handler.parseDayQuery(c, "date")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	summary, err := handler.meals.DailyNutrition(c.UserContext(), user.ID, day)
	if err != nil {
		return mealAPIError(c, err)
	}
	return c.JSON(summary)
}

func (handler *Handler) LogMeal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	input := mealInput{}
	if err := parseJSONBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	image, err := decodeOptionalImage(input.Image)
	if err != nil {
		return imageAPIError(c, err)
	}

	meal, err := handler.meals.LogMeal(c.UserContext(), user.ID, services.MealInput{
		Category:    input.Category,
		Description: input.Description,
		EatenAt:     input.EatenAt,
		Calories:    input.Calories,
		Protein:     input.Protein,
		Carbs:       input.Carbs,
		Fat:         input.Fat,
		Image:       image,
		Annotation:  input.Annotation,
	})
	if err != nil {
		return mealAPIError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(meal)
}

func (handler *Handler) DeleteMeal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if err := handler.meals.DeleteMeal(c.UserContext(), user.ID, pathParam(c, "id")); err != nil {
		return mealAPIError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AnalyzeMeal returns a nutrition estimate without saving anything. The
// client shows the estimate for confirmation before logging the meal.
func (handler *Handler) AnalyzeMeal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	input := analyzeMealInput{}
	if err := parseJSONBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	image, err := decodeOptionalImage(input.Image)
	if err != nil {
		return imageAPIError(c, err)
	}

	estimate, err := handler.meals.AnalyzeMeal(c.UserContext(), user.ID, input.Description, image)
	if err != nil {
		return mealAPIError(c, err)
	}
	return c.JSON(estimate)
}
