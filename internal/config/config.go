package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	UploadDir    string
	JWTSecret    string

	// NotifyURLs are shoutrrr destinations for expense event notifications.
	NotifyURLs []string
}

// Load reads env vars (optionally seeded from a .env file) and falls back to
// defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	// Missing .env is fine; explicit env vars always win.
	_ = godotenv.Load()

	cfg := Config{
		Environment:  getEnv("REIMBLY_ENV", "development"),
		HTTPPort:     getEnv("REIMBLY_HTTP_PORT", "8000"),
		DatabasePath: getEnv("REIMBLY_DB_PATH", filepath.Join("data", "reimbly.db")),
		UploadDir:    getEnv("REIMBLY_UPLOAD_DIR", filepath.Join("data", "uploads")),
		JWTSecret:    getEnv("REIMBLY_JWT_SECRET", ""),
	}

	if urls := getEnv("REIMBLY_NOTIFY_URLS", ""); urls != "" {
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.NotifyURLs = append(cfg.NotifyURLs, u)
			}
		}
	}

	if cfg.JWTSecret == "" {
		if cfg.Environment != "development" {
			return Config{}, fmt.Errorf("REIMBLY_JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "dev-insecure-secret"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure upload directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}
