package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func (handler *Handler) GetCounter(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	snapshot, err := handler.counters.Load(c.UserContext(), user.ID, pathParam(c, "metric"))
	if err != nil {
		return counterAPIError(c, err)
	}
	return c.JSON(snapshot)
}

func (handler *Handler) GetCounterHistory(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	metric := pathParam(c, "metric")
	history, err := handler.counters.History(c.UserContext(), user.ID, metric)
	if err != nil {
		return counterAPIError(c, err)
	}
	if history == nil {
		history = []models.CounterHistory{}
	}
	return c.JSON(fiber.Map{"metric": metric, "history": history})
}

func (handler *Handler) IncrementCounter(c *fiber.Ctx) error {
	return handler.mutateCounter(c, func(user *models.User, metric string) (services.CounterSnapshot, error) {
		return handler.counters.Increment(c.UserContext(), user.ID, metric)
	})
}

func (handler *Handler) DecrementCounter(c *fiber.Ctx) error {
	return handler.mutateCounter(c, func(user *models.User, metric string) (services.CounterSnapshot, error) {
		return handler.counters.Decrement(c.UserContext(), user.ID, metric)
	})
}

func (handler *Handler) AddToCounter(c *fiber.Ctx) error {
	input := counterDeltaInput{}
	if err := parseJSONBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	return handler.mutateCounter(c, func(user *models.User, metric string) (services.CounterSnapshot, error) {
		return handler.counters.Add(c.UserContext(), user.ID, metric, input.Amount)
	})
}

func (handler *Handler) SetCounterTarget(c *fiber.Ctx) error {
	input := counterTargetInput{}
	if err := parseJSONBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	return handler.mutateCounter(c, func(user *models.User, metric string) (services.CounterSnapshot, error) {
		return handler.counters.SetTarget(c.UserContext(), user.ID, metric, input.Target)
	})
}

// RecalculateWaterTarget derives the water goal from the given weight, or
// from the profile weight when none is sent.
func (handler *Handler) RecalculateWaterTarget(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	input := waterRecalculateInput{}
	if err := parseJSONBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	weight := input.WeightKg
	if weight <= 0 {
		profile, err := handler.profiles.LoadProfile(user.ID)
		if err != nil {
			return profileAPIError(c, err)
		}
		if profile.WeightKg == nil {
			return apiError(c, fiber.StatusBadRequest, "invalid weight")
		}
		weight = *profile.WeightKg
	}

	snapshot, err := handler.counters.RecalculateWaterTarget(c.UserContext(), user.ID, weight)
	if err != nil {
		return counterAPIError(c, err)
	}
	return c.JSON(snapshot)
}

func (handler *Handler) mutateCounter(c *fiber.Ctx, mutate func(user *models.User, metric string) (services.CounterSnapshot, error)) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	snapshot, err := mutate(user, pathParam(c, "metric"))
	if err != nil {
		return counterAPIError(c, err)
	}
	return c.JSON(snapshot)
}
