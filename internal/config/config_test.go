package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Cleanup(func() { loadDotenv = godotenv.Load })
	loadDotenv = func(...string) error { return os.ErrNotExist }
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.ServerAddr)
	require.Equal(t, "./equipment.db", cfg.DatabasePath)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, 1, cfg.WorkerCount)
	require.Equal(t, "587", cfg.SMTPPort)
	require.Equal(t, "json", cfg.LogFormat)
	require.Error(t, cfg.ValidateServer())
}

func TestLoadFromEnv(t *testing.T) {
	t.Cleanup(func() { loadDotenv = godotenv.Load })
	loadDotenv = func(...string) error { return nil }
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_ADDR", ":8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("BASE_URL", "https://lab.example/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ServerAddr)
	require.Equal(t, 2*time.Hour, cfg.TokenTTL)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, 1, cfg.WorkerCount)
	require.NoError(t, cfg.ValidateServer())
	require.Equal(t, "https://lab.example", cfg.PublicBaseURL("http", "ignored"))
}

func TestLoadConfigFile(t *testing.T) {
	t.Cleanup(func() { loadDotenv = godotenv.Load })
	loadDotenv = func(...string) error { return nil }

	path := filepath.Join(t.TempDir(), "labs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("uploads_dir: /srv/uploads\nlog_format: console\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/srv/uploads", cfg.UploadsDir)
	require.Equal(t, "console", cfg.LogFormat)
	require.Equal(t, "http://localhost:3000", cfg.PublicBaseURL("http", "localhost:3000"))

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	require.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	t.Cleanup(func() { loadDotenv = godotenv.Load })
	t.Setenv("CONFIG_FILE", "")

	loadDotenv = func(...string) error { return errors.New("bad line") }
	_, err := Load()
	require.Error(t, err)

	loadDotenv = func(...string) error { return nil }
	t.Setenv("LOG_FORMAT", "xml")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TOKEN_TTL", "-1h")
	_, err = Load()
	require.Error(t, err)
}
