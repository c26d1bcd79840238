package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func (handler *Handler) ListPhotos(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	from, err := handler.parseDayQuery(c, "from")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date range")
	}
	to, err := handler.parseDayQuery(c, "to")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date range")
	}

	photos, err := handler.photos.ListPhotos(c.UserContext(), user.ID, models.PhotoQuery{
		Category: c.Query("category"),
		FromDay:  from,
		ToDay:    to,
	})
	if err != nil {
		return photoAPIError(c, err)
	}
	if photos == nil {
		photos = []models.ProgressPhoto{}
	}
	return c.JSON(fiber.Map{
		"photos":     photos,
		"byCategory": services.GroupPhotosByCategory(photos),
		"byDay":      services.GroupPhotosByDay(photos),
	})
}

func (handler *Handler) UploadPhoto(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	input := photoInput{}
	if err := parseJSONBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	image, err := readUploadedImage(c, input.Image)
	if err != nil {
		return imageAPIError(c, err)
	}
	if image == nil {
		return photoAPIError(c, services.ErrPhotoImageRequired)
	}

	photo, err := handler.photos.UploadPhoto(c.UserContext(), user.ID, services.PhotoUpload{
		Category:   input.Category,
		TakenAt:    input.TakenAt,
		WeightKg:   input.WeightKg,
		Notes:      input.Notes,
		Image:      *image,
		Annotation: input.Annotation,
	})
	if err != nil {
		return photoAPIError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(photo)
}

func (handler *Handler) DeletePhoto(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if err := handler.photos.DeletePhoto(c.UserContext(), user.ID, pathParam(c, "id")); err != nil {
		return photoAPIError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
