package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegisterFirstAccountIsAdmin(t *testing.T) {
	env := newTestApp(t)

	adminToken := env.register(t, "admin@example.com")
	memberToken := env.register(t, "member@example.com")

	for _, testCase := range []struct {
		token string
		role  string
	}{
		{token: adminToken, role: "admin"},
		{token: memberToken, role: "user"},
	} {
		response, body := env.do(t, http.MethodGet, "/api/auth/me", testCase.token, nil)
		if response.StatusCode != http.StatusOK {
			t.Fatalf("expected me status 200, got %d: %s", response.StatusCode, body)
		}
		payload := struct {
			User authUserResponse `json:"user"`
		}{}
		decodeJSON(t, body, &payload)
		if payload.User.Role != testCase.role {
			t.Fatalf("expected role %q, got %q", testCase.role, payload.User.Role)
		}
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := newTestApp(t)
	env.register(t, "user@example.com")

	response, body := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "USER@example.com",
		"password": testPassword,
	})
	if response.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", response.StatusCode)
	}
	if message := readAPIError(t, body); message != "email already exists" {
		t.Fatalf("unexpected error %q", message)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestApp(t)

	for _, path := range []string{"/api/auth/me", "/api/profile", "/api/counters/water", "/api/meals", "/api/photos", "/api/sync/status"} {
		response, body := env.do(t, http.MethodGet, path, "", nil)
		if response.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", path, response.StatusCode)
		}
		if message := readAPIError(t, body); message != "unauthorized" {
			t.Fatalf("%s: expected unauthorized error, got %q", path, message)
		}
	}

	response, _ := env.do(t, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for malformed token, got %d", response.StatusCode)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := newTestApp(t)
	env.register(t, "user@example.com")

	response, body := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    " User@Example.com ",
		"password": testPassword,
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected login status 200, got %d: %s", response.StatusCode, body)
	}
	cookie := responseCookie(response.Cookies(), authCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected auth cookie in login response")
	}
	if !cookie.HttpOnly {
		t.Fatal("expected auth cookie to be httpOnly")
	}

	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	request.Header.Set("Cookie", authCookieName+"="+cookie.Value)
	meResponse, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	defer meResponse.Body.Close()
	if meResponse.StatusCode != http.StatusOK {
		t.Fatalf("expected cookie session to authenticate, got %d", meResponse.StatusCode)
	}
}

func TestLoginRateLimitsRepeatedFailures(t *testing.T) {
	env := newTestApp(t)
	env.register(t, "user@example.com")

	wrong := map[string]string{"email": "user@example.com", "password": "WrongPass1"}
	for attempt := 0; attempt < loginAttemptLimit; attempt++ {
		response, _ := env.do(t, http.MethodPost, "/api/auth/login", "", wrong)
		if response.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected status 401, got %d", attempt, response.StatusCode)
		}
	}

	response, body := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": testPassword,
	})
	if response.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after repeated failures, got %d", response.StatusCode)
	}
	if message := readAPIError(t, body); message != "too many login attempts" {
		t.Fatalf("unexpected error %q", message)
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	env := newTestApp(t)

	response, _ := env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected logout status 200, got %d", response.StatusCode)
	}
	cookie := responseCookie(response.Cookies(), authCookieName)
	if cookie == nil || cookie.Value != "" {
		t.Fatal("expected cleared auth cookie")
	}
}

func TestChangePasswordKeepsSession(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	response, body := env.do(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"current_password": testPassword,
		"new_password":     "NewPass22",
		"confirm_password": "NewPass23",
	})
	if response.StatusCode != http.StatusBadRequest || readAPIError(t, body) != "password mismatch" {
		t.Fatalf("expected password mismatch, got %d: %s", response.StatusCode, body)
	}

	response, body = env.do(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"current_password": testPassword,
		"new_password":     "NewPass22",
		"confirm_password": "NewPass22",
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", response.StatusCode, body)
	}

	response, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "NewPass22",
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected login with new password, got %d", response.StatusCode)
	}
}

func TestUnknownRouteReturnsJSON(t *testing.T) {
	env := newTestApp(t)

	response, body := env.do(t, http.MethodGet, "/api/nope", "", nil)
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", response.StatusCode)
	}
	if !strings.Contains(string(body), "not found") {
		t.Fatalf("expected not found body, got %s", body)
	}
}
