package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REIMBLY_ENV", "")
	t.Setenv("REIMBLY_HTTP_PORT", "")
	t.Setenv("REIMBLY_JWT_SECRET", "")
	t.Setenv("REIMBLY_NOTIFY_URLS", "")
	t.Setenv("REIMBLY_DB_PATH", filepath.Join(dir, "app.db"))
	t.Setenv("REIMBLY_UPLOAD_DIR", filepath.Join(dir, "uploads"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8000", cfg.HTTPPort)
	assert.Equal(t, "dev-insecure-secret", cfg.JWTSecret)
	assert.Empty(t, cfg.NotifyURLs)

	// Data and upload directories are created
	assert.DirExists(t, dir)
	assert.DirExists(t, cfg.UploadDir)
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REIMBLY_ENV", "production")
	t.Setenv("REIMBLY_JWT_SECRET", "")
	t.Setenv("REIMBLY_DB_PATH", filepath.Join(dir, "app.db"))
	t.Setenv("REIMBLY_UPLOAD_DIR", filepath.Join(dir, "uploads"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REIMBLY_JWT_SECRET")

	t.Setenv("REIMBLY_JWT_SECRET", "prod-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod-secret", cfg.JWTSecret)
}

func TestLoadParsesNotifyURLs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REIMBLY_ENV", "development")
	t.Setenv("REIMBLY_JWT_SECRET", "")
	t.Setenv("REIMBLY_DB_PATH", filepath.Join(dir, "app.db"))
	t.Setenv("REIMBLY_UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("REIMBLY_NOTIFY_URLS", "discord://token@channel, slack://hook ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"discord://token@channel", "slack://hook"}, cfg.NotifyURLs)
}
