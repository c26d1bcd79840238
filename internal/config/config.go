package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDisk = "disk"
	StorageS3   = "s3"

	minSecretKeyLength = 32
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	Port         string
	DBPath       string
	SecretKey    string
	CookieSecure bool
	Timezone     string

	RemoteDatabaseURL string
	SyncInterval      time.Duration
	RemoteTimeout     time.Duration

	WaterPortionML    int
	HistoryWindowDays int

	LogLevel string
	LogFile  string

	AnalysisURL     string
	AnalysisKey     string
	AnalysisTimeout time.Duration

	StorageBackend  string
	UploadDir       string
	S3Bucket        string
	S3Region        string
	S3PublicBaseURL string
}

// LoadDotEnv reads the given files (".env" when none) into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the server configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		DBPath:            getEnv("DB_PATH", filepath.Join("data", "nutriwell.db")),
		CookieSecure:      getEnvBool("COOKIE_SECURE", false),
		Timezone:          getEnv("APP_TIMEZONE", "America/Sao_Paulo"),
		RemoteDatabaseURL: strings.TrimSpace(os.Getenv("REMOTE_DATABASE_URL")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           strings.TrimSpace(os.Getenv("LOG_FILE")),
		AnalysisURL:       strings.TrimSpace(os.Getenv("ANALYSIS_URL")),
		AnalysisKey:       strings.TrimSpace(os.Getenv("ANALYSIS_KEY")),
		StorageBackend:    strings.ToLower(getEnv("STORAGE_BACKEND", StorageDisk)),
		UploadDir:         getEnv("UPLOAD_DIR", filepath.Join("data", "uploads")),
		S3Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3PublicBaseURL:   strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
	}

	var err error
	if cfg.Port, err = resolvePort(); err != nil {
		return Config{}, err
	}
	if cfg.SecretKey, err = resolveSecretKey(); err != nil {
		return Config{}, err
	}
	if cfg.WaterPortionML, err = getEnvPositiveInt("WATER_PORTION_ML", 200); err != nil {
		return Config{}, err
	}
	if cfg.HistoryWindowDays, err = getEnvPositiveInt("HISTORY_WINDOW_DAYS", 7); err != nil {
		return Config{}, err
	}
	if cfg.SyncInterval, err = getEnvDuration("SYNC_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RemoteTimeout, err = getEnvDuration("REMOTE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.AnalysisTimeout, err = getEnvDuration("ANALYSIS_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.StorageBackend {
	case StorageDisk:
	case StorageS3:
		if cfg.S3Bucket == "" {
			return Config{}, errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func resolveSecretKey() (string, error) {
	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[secret]; insecure {
		return "", errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secret, nil
}

func resolvePort() (string, error) {
	raw := getEnv("PORT", "8080")
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	return strconv.Itoa(port), nil
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvPositiveInt(key string, fallback int) (int, error) {
	raw := getEnv(key, strconv.Itoa(fallback))
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, fallback.String())
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}
