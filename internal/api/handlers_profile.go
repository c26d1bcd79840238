package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func (handler *Handler) GetProfile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	profile, err := handler.profiles.LoadProfile(user.ID)
	if err != nil {
		return profileAPIError(c, err)
	}
	return c.JSON(profile)
}

func (handler *Handler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	update := services.ProfileUpdate{}
	if err := parseJSONBody(c, &update); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	profile, err := handler.profiles.UpdateProfile(c.UserContext(), user.ID, update)
	if err != nil {
		return profileAPIError(c, err)
	}
	return c.JSON(profile)
}

// SaveOnboarding stores the questionnaire body as submitted.
func (handler *Handler) SaveOnboarding(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	raw := append([]byte(nil), c.Body()...)

	profile, err := handler.profiles.SaveOnboarding(c.UserContext(), user.ID, raw)
	if err != nil {
		return profileAPIError(c, err)
	}
	return c.JSON(profile)
}

func (handler *Handler) UpdateAvatar(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	input := imageInput{}
	if c.Is("json") {
		if err := parseJSONBody(c, &input); err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid input")
		}
	}
	image, err := readUploadedImage(c, input.Image)
	if err != nil {
		return imageAPIError(c, err)
	}
	if image == nil {
		return apiError(c, fiber.StatusBadRequest, "image is required")
	}

	profile, err := handler.profiles.UpdateAvatar(c.UserContext(), user.ID, *image)
	if err != nil {
		return profileAPIError(c, err)
	}
	return c.JSON(profile)
}
