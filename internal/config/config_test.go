package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	// keep godotenv from picking up a stray .env in the package directory
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
storage:
  driver: postgres
  database: "host=db"
auth:
  jwt:
    secret: from-file
arena:
  scheduler_interval: 30s
judge:
  languages:
    - id: cpp
      name: C++17
      compile: [g++, main.cpp]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "from-file", cfg.Auth.JWT.Secret)
	assert.Equal(t, 30*time.Second, cfg.Arena.SchedulerInterval)
	require.Len(t, cfg.Judge.Languages, 1)
	assert.Equal(t, []string{"g++", "main.cpp"}, cfg.Judge.Languages[0].Compile)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "data/arena.db", cfg.Storage.Database)
	assert.Equal(t, 15*time.Second, cfg.Arena.SchedulerInterval)
	assert.Equal(t, 5, cfg.Arena.WriteRetries)
	assert.Equal(t, 1, cfg.Judge.CPU)
	assert.Equal(t, int64(256), cfg.Judge.Memory)
	assert.Equal(t, 30, cfg.Judge.CompileTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt:\n    secret: from-file\n")
	t.Setenv("ARENA_JWT_SECRET", "from-env")
	t.Setenv("ARENA_DATABASE_DRIVER", "postgres")
	t.Setenv("ARENA_DATABASE_DSN", "host=env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWT.Secret)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "host=env", cfg.Storage.Database)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeConfig(t, "{}\n")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte("ARENA_JWT_SECRET=dotenv\n"), 0o600))
	t.Setenv("ARENA_JWT_SECRET", "")
	os.Unsetenv("ARENA_JWT_SECRET")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dotenv", cfg.Auth.JWT.Secret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
