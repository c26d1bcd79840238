package api

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/services"
	"github.com/terraincognita07/nutriwell/internal/storage"
)

var errInvalidJSONBody = errors.New("invalid json body")

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func parseJSONBody(c *fiber.Ctx, target any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(target); err != nil {
		return errInvalidJSONBody
	}
	return nil
}

// parseDayQuery reads an optional YYYY-MM-DD query value. An empty value
// is returned as "" so services fall back to today.
func (handler *Handler) parseDayQuery(c *fiber.Ctx, key string) (string, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return "", nil
	}
	return services.ParseDay(raw, handler.location)
}

// decodeOptionalImage turns a data URL into an image. Empty input yields nil.
func decodeOptionalImage(raw string) (*storage.Image, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	image, err := storage.DecodeDataURL(raw)
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// readUploadedImage accepts either a multipart "image" file or a JSON data
// URL in the "image" field.
func readUploadedImage(c *fiber.Ctx, dataURL string) (*storage.Image, error) {
	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
		if fileHeader.Size > storage.MaxImageBytes {
			return nil, storage.ErrUploadTooLarge
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageBytes+1))
		if err != nil {
			return nil, err
		}
		image, err := storage.NewImage(fileHeader.Header.Get(fiber.HeaderContentType), data)
		if err != nil {
			return nil, err
		}
		return &image, nil
	}
	return decodeOptionalImage(dataURL)
}
