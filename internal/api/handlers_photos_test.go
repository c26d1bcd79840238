package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/services"
)

type photoListResponse struct {
	Photos     []models.ProgressPhoto `json:"photos"`
	ByCategory []services.PhotoGroup  `json:"byCategory"`
	ByDay      []services.PhotoGroup  `json:"byDay"`
}

func uploadTestPhoto(t *testing.T, env testApp, token string, category string, takenAt time.Time) models.ProgressPhoto {
	t.Helper()

	response, body := env.do(t, http.MethodPost, "/api/photos", token, map[string]any{
		"category": category,
		"takenAt":  takenAt.Format(time.RFC3339),
		"weightKg": 71.5,
		"image":    pngDataURL(),
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected upload status 201, got %d: %s", response.StatusCode, body)
	}
	photo := models.ProgressPhoto{}
	decodeJSON(t, body, &photo)
	return photo
}

func TestUploadPhotoStoresAndServesFile(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	photo := uploadTestPhoto(t, env, token, models.PhotoFront, time.Now())
	if photo.ID == "" || photo.Category != models.PhotoFront {
		t.Fatalf("unexpected photo %+v", photo)
	}
	if photo.WeightKg == nil || *photo.WeightKg != 71.5 {
		t.Fatalf("expected weight 71.5, got %v", photo.WeightKg)
	}
	if !strings.HasPrefix(photo.URL, "/uploads/") {
		t.Fatalf("expected disk url, got %q", photo.URL)
	}

	stored := filepath.Join(env.uploads, filepath.FromSlash(strings.TrimPrefix(photo.URL, "/uploads/")))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("expected stored photo at %s: %v", stored, err)
	}

	response, err := env.app.Test(httptest.NewRequest(http.MethodGet, photo.URL, nil), -1)
	if err != nil {
		t.Fatalf("fetch photo: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected served photo status 200, got %d", response.StatusCode)
	}

	response2, body := env.do(t, http.MethodDelete, "/api/photos/"+photo.ID, token, nil)
	if response2.StatusCode != http.StatusNoContent {
		t.Fatalf("expected delete status 204, got %d: %s", response2.StatusCode, body)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Fatalf("expected photo file removed, stat err = %v", err)
	}
}

func TestUploadPhotoValidation(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	tests := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{name: "missing image", body: map[string]any{"category": "front"}, status: http.StatusBadRequest, message: "image is required"},
		{name: "unknown category", body: map[string]any{"category": "top", "image": pngDataURL()}, status: http.StatusBadRequest, message: "invalid photo category"},
		{name: "not an image", body: map[string]any{"category": "side", "image": "data:text/plain;base64,aGVsbG8="}, status: http.StatusUnsupportedMediaType, message: "unsupported image type"},
		{name: "html declared as png", body: map[string]any{"category": "back", "image": "data:image/png;base64,PGh0bWw+PGJvZHk+aGk8L2JvZHk+PC9odG1sPg=="}, status: http.StatusUnsupportedMediaType, message: "unsupported image type"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			response, body := env.do(t, http.MethodPost, "/api/photos", token, testCase.body)
			if response.StatusCode != testCase.status {
				t.Fatalf("expected status %d, got %d: %s", testCase.status, response.StatusCode, body)
			}
			if message := readAPIError(t, body); message != testCase.message {
				t.Fatalf("expected error %q, got %q", testCase.message, message)
			}
		})
	}
}

func TestListPhotosFiltersAndGroups(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	lastWeek := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	thisWeek := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	uploadTestPhoto(t, env, token, models.PhotoFront, lastWeek)
	uploadTestPhoto(t, env, token, models.PhotoFront, thisWeek)
	uploadTestPhoto(t, env, token, models.PhotoSide, thisWeek)

	other := env.register(t, "other@example.com")
	uploadTestPhoto(t, env, other, models.PhotoBack, thisWeek)

	response, body := env.do(t, http.MethodGet, "/api/photos", token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected list status 200, got %d: %s", response.StatusCode, body)
	}
	all := photoListResponse{}
	decodeJSON(t, body, &all)
	if len(all.Photos) != 3 {
		t.Fatalf("expected 3 photos for user, got %d", len(all.Photos))
	}
	if len(all.ByCategory) != 2 || len(all.ByDay) != 2 {
		t.Fatalf("expected 2 category and 2 day groups, got %d and %d", len(all.ByCategory), len(all.ByDay))
	}

	_, body = env.do(t, http.MethodGet, "/api/photos?category=front&from=2025-03-05", token, nil)
	filtered := photoListResponse{}
	decodeJSON(t, body, &filtered)
	if len(filtered.Photos) != 1 || filtered.Photos[0].Day != "2025-03-10" {
		t.Fatalf("expected one front photo from 2025-03-10, got %+v", filtered.Photos)
	}

	response, body = env.do(t, http.MethodGet, "/api/photos?from=2025-03-10&to=2025-03-01", token, nil)
	if response.StatusCode != http.StatusBadRequest || readAPIError(t, body) != "invalid date range" {
		t.Fatalf("expected invalid date range, got %d: %s", response.StatusCode, body)
	}
}
