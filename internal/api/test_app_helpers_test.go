package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/nutriwell/internal/analysis"
	"github.com/terraincognita07/nutriwell/internal/db"
	"github.com/terraincognita07/nutriwell/internal/storage"
	"gorm.io/gorm"
)

const (
	testSecretKey = "0123456789abcdef0123456789abcdef"
	testPassword  = "StrongPass1"
)

// pngPixel is a 1x1 PNG used as upload fixture.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type testApp struct {
	app      *fiber.App
	handler  *Handler
	database *gorm.DB
	uploads  string
}

type testAppOptions struct {
	remote   *db.RemoteStore
	analyzer *analysis.Client
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	return newTestAppWithOptions(t, testAppOptions{})
}

func newTestAppWithOptions(t *testing.T, options testAppOptions) testApp {
	t.Helper()

	database := openTestDatabase(t, "nutriwell-api-test.db")
	uploads := filepath.Join(t.TempDir(), "uploads")
	files, err := storage.NewDiskStorage(uploads, "/uploads")
	if err != nil {
		t.Fatalf("init disk storage: %v", err)
	}

	handler, err := NewHandler(HandlerConfig{
		Database:      database,
		Remote:        options.remote,
		Files:         files,
		Analyzer:      options.analyzer,
		SecretKey:     testSecretKey,
		Location:      time.UTC,
		RemoteTimeout: time.Second,
		Logger:        log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)
	return testApp{app: app, handler: handler, database: database, uploads: uploads}
}

func openTestDatabase(t *testing.T, name string) *gorm.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return database
}

// newRemoteTestStore stands a second SQLite database in for the hosted
// remote.
func newRemoteTestStore(t *testing.T) (*db.RemoteStore, *gorm.DB) {
	t.Helper()

	database := openTestDatabase(t, "nutriwell-remote-test.db")
	if err := db.MigrateRemoteSchema(database); err != nil {
		t.Fatalf("migrate remote schema: %v", err)
	}
	return db.NewRemoteStore(database), database
}

func (env testApp) do(t *testing.T, method string, path string, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch value := body.(type) {
		case []byte:
			reader = bytes.NewReader(value)
		case string:
			reader = bytes.NewReader([]byte(value))
		default:
			encoded, err := json.Marshal(value)
			if err != nil {
				t.Fatalf("encode request body: %v", err)
			}
			reader = bytes.NewReader(encoded)
		}
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()
	env.handler.WaitSync()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return response, payload
}

func (env testApp) register(t *testing.T, email string) string {
	t.Helper()

	response, body := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected register status 201, got %d: %s", response.StatusCode, body)
	}
	payload := struct {
		Token string `json:"token"`
	}{}
	decodeJSON(t, body, &payload)
	if payload.Token == "" {
		t.Fatal("expected session token in register response")
	}
	return payload.Token
}

func decodeJSON(t *testing.T, body []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("decode response body %q: %v", body, err)
	}
}

func readAPIError(t *testing.T, body []byte) string {
	t.Helper()

	payload := map[string]any{}
	decodeJSON(t, body, &payload)
	message, _ := payload["error"].(string)
	return message
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngPixel)
}
