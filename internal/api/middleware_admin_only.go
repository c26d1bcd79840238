package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func (handler *Handler) AdminOnly(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !services.IsAdminUser(user) {
		return apiError(c, fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}
