package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestResolveSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY is empty")
	}

	t.Setenv("SECRET_KEY", "change_me_in_production")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY uses insecure placeholder")
	}

	t.Setenv("SECRET_KEY", "replace_with_at_least_32_random_characters")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY uses example placeholder")
	}

	t.Setenv("SECRET_KEY", "too-short-secret")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY is too short")
	}

	t.Setenv("SECRET_KEY", validSecret)
	secret, err := resolveSecretKey()
	if err != nil {
		t.Fatalf("expected valid secret, got error: %v", err)
	}
	if secret != validSecret {
		t.Fatalf("expected %q, got %q", validSecret, secret)
	}
}

func TestResolvePort(t *testing.T) {
	t.Setenv("PORT", "")
	port, err := resolvePort()
	if err != nil {
		t.Fatalf("expected default port, got error: %v", err)
	}
	if port != "8080" {
		t.Fatalf("expected default port 8080, got %q", port)
	}

	for _, invalid := range []string{"0", "70000", "not-a-number"} {
		t.Setenv("PORT", invalid)
		if _, err := resolvePort(); err == nil {
			t.Fatalf("expected invalid port %q to fail", invalid)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SECRET_KEY", validSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Timezone != "America/Sao_Paulo" {
		t.Fatalf("expected default timezone, got %q", cfg.Timezone)
	}
	if cfg.WaterPortionML != 200 || cfg.HistoryWindowDays != 7 {
		t.Fatalf("unexpected counter defaults: portion=%d window=%d", cfg.WaterPortionML, cfg.HistoryWindowDays)
	}
	if cfg.StorageBackend != StorageDisk {
		t.Fatalf("expected disk storage by default, got %q", cfg.StorageBackend)
	}
	if cfg.RemoteDatabaseURL != "" {
		t.Fatalf("expected local-only mode by default, got %q", cfg.RemoteDatabaseURL)
	}
	if cfg.SyncInterval != 30*time.Second || cfg.AnalysisTimeout != 30*time.Second {
		t.Fatalf("unexpected durations: sync=%s analysis=%s", cfg.SyncInterval, cfg.AnalysisTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "water portion", key: "WATER_PORTION_ML", value: "-5"},
		{name: "history window", key: "HISTORY_WINDOW_DAYS", value: "abc"},
		{name: "sync interval", key: "SYNC_INTERVAL", value: "soon"},
		{name: "storage backend", key: "STORAGE_BACKEND", value: "ftp"},
		{name: "s3 without bucket", key: "STORAGE_BACKEND", value: "s3"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("SECRET_KEY", validSecret)
			t.Setenv(testCase.key, testCase.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%q to fail", testCase.key, testCase.value)
			}
		})
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	os.Unsetenv("NUTRIWELL_DOTENV_PROBE")
	path := filepath.Join(t.TempDir(), ".env")
	content := "NUTRIWELL_DOTENV_PROBE=250\nAPP_TIMEZONE=UTC\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("APP_TIMEZONE", "Europe/Lisbon")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() unexpected error: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("NUTRIWELL_DOTENV_PROBE") })

	if got := os.Getenv("NUTRIWELL_DOTENV_PROBE"); got != "250" {
		t.Fatalf("expected value from env file, got %q", got)
	}
	if got := os.Getenv("APP_TIMEZONE"); got != "Europe/Lisbon" {
		t.Fatalf("expected existing value to win, got %q", got)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_PATH", "SECRET_KEY", "COOKIE_SECURE", "APP_TIMEZONE",
		"REMOTE_DATABASE_URL", "SYNC_INTERVAL", "REMOTE_TIMEOUT",
		"WATER_PORTION_ML", "HISTORY_WINDOW_DAYS", "LOG_LEVEL", "LOG_FILE",
		"ANALYSIS_URL", "ANALYSIS_KEY", "ANALYSIS_TIMEOUT",
		"STORAGE_BACKEND", "UPLOAD_DIR", "S3_BUCKET", "S3_REGION", "S3_PUBLIC_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}
