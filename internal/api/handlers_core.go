package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) SyncStatus(c *fiber.Ctx) error {
	status, err := handler.outbox.Status(c.UserContext())
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load sync status")
	}
	return c.JSON(status)
}

// SyncFlush delivers due outbox entries now instead of waiting for the
// worker tick.
func (handler *Handler) SyncFlush(c *fiber.Ctx) error {
	delivered, err := handler.outbox.Flush(c.UserContext())
	if err != nil {
		handler.logger.Warn("manual outbox flush failed", "err", err)
		return apiError(c, fiber.StatusBadGateway, "sync failed")
	}
	status, err := handler.outbox.Status(c.UserContext())
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load sync status")
	}
	return c.JSON(fiber.Map{"delivered": delivered, "status": status})
}

// pathParam copies a route parameter out of the request buffer.
func pathParam(c *fiber.Ctx, key string) string {
	return strings.Clone(strings.TrimSpace(c.Params(key)))
}

func parseIDParam(c *fiber.Ctx, key string) (uint, bool) {
	value, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}
