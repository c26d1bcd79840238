package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/services"
	"github.com/terraincognita07/nutriwell/internal/storage"
)

func imageAPIError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, storage.ErrUploadTooLarge):
		return apiError(c, fiber.StatusRequestEntityTooLarge, "image too large")
	case errors.Is(err, storage.ErrUnsupportedContentType):
		return apiError(c, fiber.StatusUnsupportedMediaType, "unsupported image type")
	case errors.Is(err, storage.ErrEmptyUpload), errors.Is(err, storage.ErrInvalidDataURL):
		return apiError(c, fiber.StatusBadRequest, "invalid image")
	case errors.Is(err, services.ErrStorageUnavailable):
		return apiError(c, fiber.StatusServiceUnavailable, "file storage unavailable")
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to store image")
	}
}

func isImageError(err error) bool {
	return errors.Is(err, storage.ErrUploadTooLarge) ||
		errors.Is(err, storage.ErrUnsupportedContentType) ||
		errors.Is(err, storage.ErrEmptyUpload) ||
		errors.Is(err, storage.ErrInvalidDataURL) ||
		errors.Is(err, services.ErrStorageUnavailable)
}

func counterAPIError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnknownMetric):
		return apiError(c, fiber.StatusNotFound, "unknown metric")
	case errors.Is(err, services.ErrInvalidCounterTarget):
		return apiError(c, fiber.StatusBadRequest, "invalid target")
	case errors.Is(err, services.ErrInvalidCounterDelta):
		return apiError(c, fiber.StatusBadRequest, "invalid amount")
	case errors.Is(err, services.ErrInvalidWeight):
		return apiError(c, fiber.StatusBadRequest, "invalid weight")
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to update counter")
	}
}

func mealAPIError(c *fiber.Ctx, err error) error {
	switch {
	case isImageError(err):
		return imageAPIError(c, err)
	case errors.Is(err, services.ErrInvalidMealCategory):
		return apiError(c, fiber.StatusBadRequest, "invalid meal category")
	case errors.Is(err, services.ErrInvalidMealInput):
		return apiError(c, fiber.StatusBadRequest, "invalid meal input")
	case errors.Is(err, services.ErrMealNotFound):
		return apiError(c, fiber.StatusNotFound, "meal not found")
	case errors.Is(err, services.ErrAnalysisUnavailable):
		return apiError(c, fiber.StatusServiceUnavailable, "analysis unavailable")
	case errors.Is(err, services.ErrAnalysisFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "analysis failed", "retry": true})
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to process meal")
	}
}

func photoAPIError(c *fiber.Ctx, err error) error {
	switch {
	case isImageError(err):
		return imageAPIError(c, err)
	case errors.Is(err, services.ErrInvalidPhotoCategory):
		return apiError(c, fiber.StatusBadRequest, "invalid photo category")
	case errors.Is(err, services.ErrPhotoImageRequired):
		return apiError(c, fiber.StatusBadRequest, "image is required")
	case errors.Is(err, services.ErrInvalidPhotoRange):
		return apiError(c, fiber.StatusBadRequest, "invalid date range")
	case errors.Is(err, services.ErrPhotoNotFound):
		return apiError(c, fiber.StatusNotFound, "photo not found")
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to process photo")
	}
}

func profileAPIError(c *fiber.Ctx, err error) error {
	var fieldErr *services.ProfileFieldError
	switch {
	case isImageError(err):
		return imageAPIError(c, err)
	case errors.As(err, &fieldErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid profile input", "field": fieldErr.Field})
	case errors.Is(err, services.ErrInvalidProfileInput):
		return apiError(c, fiber.StatusBadRequest, "invalid profile input")
	case errors.Is(err, services.ErrInvalidOnboardingData):
		return apiError(c, fiber.StatusBadRequest, "invalid onboarding data")
	case errors.Is(err, services.ErrProfileUserUnavailable):
		return apiError(c, fiber.StatusNotFound, "profile not found")
	case errors.Is(err, services.ErrAvatarStorageFailed):
		return apiError(c, fiber.StatusBadGateway, "failed to store avatar")
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to update profile")
	}
}

func referenceAPIError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrReferenceMaterialNotFound):
		return apiError(c, fiber.StatusNotFound, "material not found")
	case errors.Is(err, services.ErrReferenceTitleRequired):
		return apiError(c, fiber.StatusBadRequest, "title is required")
	case errors.Is(err, services.ErrReferenceInvalidURL):
		return apiError(c, fiber.StatusBadRequest, "invalid url")
	default:
		return apiError(c, fiber.StatusInternalServerError, "failed to process material")
	}
}

func authAPIError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAuthCredentialsInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	case errors.Is(err, services.ErrWeakPassword):
		return apiError(c, fiber.StatusBadRequest, "weak password")
	case errors.Is(err, services.ErrAuthEmailExists):
		return apiError(c, fiber.StatusConflict, "email already exists")
	case errors.Is(err, services.ErrAuthInvalidLogin):
		return apiError(c, fiber.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrPasswordChangeInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	case errors.Is(err, services.ErrPasswordMismatch):
		return apiError(c, fiber.StatusBadRequest, "password mismatch")
	case errors.Is(err, services.ErrInvalidCurrentPassword):
		return apiError(c, fiber.StatusUnauthorized, "invalid current password")
	case errors.Is(err, services.ErrNewPasswordMustDiffer):
		return apiError(c, fiber.StatusBadRequest, "new password must differ")
	default:
		return apiError(c, fiber.StatusInternalServerError, "authentication failed")
	}
}
