package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func (handler *Handler) ListMaterials(c *fiber.Ctx) error {
	return handler.listMaterials(c, false)
}

func (handler *Handler) GetMaterial(c *fiber.Ctx) error {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}
	material, err := handler.references.Get(materialID, false)
	if err != nil {
		return referenceAPIError(c, err)
	}
	return c.JSON(material)
}

func (handler *Handler) AdminListMaterials(c *fiber.Ctx) error {
	return handler.listMaterials(c, true)
}

func (handler *Handler) AdminCreateMaterial(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	input := services.ReferenceMaterialInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	material, err := handler.references.Create(user.ID, input)
	if err != nil {
		return referenceAPIError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(material)
}

func (handler *Handler) AdminUpdateMaterial(c *fiber.Ctx) error {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}
	input := services.ReferenceMaterialInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	material, err := handler.references.Update(materialID, input)
	if err != nil {
		return referenceAPIError(c, err)
	}
	return c.JSON(material)
}

func (handler *Handler) AdminDeleteMaterial(c *fiber.Ctx) error {
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid id")
	}
	if err := handler.references.Delete(materialID); err != nil {
		return referenceAPIError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (handler *Handler) listMaterials(c *fiber.Ctx, includeUnpublished bool) error {
	materials, err := handler.references.List(c.Query("tag"), includeUnpublished)
	if err != nil {
		return referenceAPIError(c, err)
	}
	if materials == nil {
		materials = []models.ReferenceMaterial{}
	}
	return c.JSON(fiber.Map{"materials": materials})
}
