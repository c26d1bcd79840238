package api

import (
	"github.com/gofiber/fiber/v2"
)

// AuthRequired rejects requests without a valid session. The client shows
// its blocking sign-in screen on this response.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	c.Locals(contextUserKey, user)
	return c.Next()
}
