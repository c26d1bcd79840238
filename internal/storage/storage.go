package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const MaxImageBytes = 8 << 20

var (
	ErrEmptyUpload            = errors.New("empty upload")
	ErrUploadTooLarge         = errors.New("upload too large")
	ErrUnsupportedContentType = errors.New("unsupported image content type")
	ErrInvalidDataURL         = errors.New("invalid image data url")
)

// Storage keeps uploaded files and returns the URL they are served from.
type Storage interface {
	Put(ctx context.Context, key string, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// ImageExtension maps an image content type to its file extension.
func ImageExtension(contentType string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if normalized == "image/jpg" {
		normalized = "image/jpeg"
	}
	extension, ok := imageExtensions[normalized]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	return extension, nil
}

// ObjectKey builds <prefix>/<user>/<uuid><ext>.
func ObjectKey(prefix string, userID uint, contentType string) (string, error) {
	extension, err := ImageExtension(contentType)
	if err != nil {
		return "", err
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "uploads"
	}
	return prefix + "/" + strconv.FormatUint(uint64(userID), 10) + "/" + uuid.NewString() + extension, nil
}

// Image is a decoded upload ready for storage.
type Image struct {
	ContentType string
	Data        []byte
}

// DecodeDataURL decodes "data:<mime>;base64,<payload>". A bare base64
// payload is accepted too and its type is sniffed from the bytes.
func DecodeDataURL(raw string) (Image, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Image{}, ErrEmptyUpload
	}

	declared := ""
	payload := trimmed
	if strings.HasPrefix(trimmed, "data:") {
		meta, data, ok := strings.Cut(trimmed, ",")
		if !ok {
			return Image{}, ErrInvalidDataURL
		}
		mediaType := strings.TrimPrefix(meta, "data:")
		if !strings.HasSuffix(mediaType, ";base64") {
			return Image{}, ErrInvalidDataURL
		}
		declared = strings.TrimSuffix(mediaType, ";base64")
		payload = data
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return NewImage(declared, decoded)
}

// NewImage validates size and type. The type is always sniffed from the
// bytes; a declared type must agree with it.
func NewImage(declaredType string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyUpload
	}
	if len(data) > MaxImageBytes {
		return Image{}, ErrUploadTooLarge
	}

	sniffed := sniffImageType(data)
	if _, err := ImageExtension(sniffed); err != nil {
		return Image{}, err
	}

	declared := normalizeImageType(declaredType)
	if declared != "" && declared != "application/octet-stream" && declared != sniffed {
		return Image{}, fmt.Errorf("%w: declared %q but content is %q", ErrUnsupportedContentType, declared, sniffed)
	}
	return Image{ContentType: sniffed, Data: data}, nil
}

func normalizeImageType(contentType string) string {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if base, _, ok := strings.Cut(normalized, ";"); ok {
		normalized = strings.TrimSpace(base)
	}
	if normalized == "image/jpg" {
		return "image/jpeg"
	}
	return normalized
}

// sniffImageType extends http.DetectContentType with HEIC, which it does
// not recognize.
func sniffImageType(data []byte) string {
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		switch string(data[8:12]) {
		case "heic", "heix", "hevc", "heim", "heis", "mif1":
			return "image/heic"
		}
	}
	return normalizeImageType(http.DetectContentType(data))
}
