package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	domainconfig "pathfinder-backend/domain/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, "local", cfg.LockDriver)
	assert.Equal(t, "log", cfg.EventPublisher)
	assert.Equal(t, "none", cfg.LLMProvider)

	domain, err := cfg.DomainConfig()
	require.NoError(t, err)
	assert.Equal(t, domainconfig.DefaultDomainConfig(), domain)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathfinder.yaml")
	writeFile(t, path, `
storage_driver: postgres
database_url: postgres://file/db
log_level: debug
cors_origins: [https://app.example.com]
domain:
  max_paths: 50
  roadmap_timeout: 2s
  allow_self_connections: false
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("MAX_PATH_DEPTH", "12")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL, "env wins over file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, path, cfg.ConfigFile)

	domain, err := cfg.DomainConfig()
	require.NoError(t, err)
	assert.Equal(t, 50, domain.MaxPaths)
	assert.Equal(t, 12, domain.MaxPathDepth)
	assert.Equal(t, 2*time.Second, domain.RoadmapTimeout)
	assert.False(t, domain.AllowSelfConnections)
	assert.Equal(t, 100, domain.MaxTopicNameLength, "unset fields keep defaults")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown storage", func(c *Config) { c.StorageDriver = "mongo" }},
		{"postgres without url", func(c *Config) { c.StorageDriver = "postgres" }},
		{"unknown lock", func(c *Config) { c.LockDriver = "zookeeper" }},
		{"unknown publisher", func(c *Config) { c.EventPublisher = "kafka" }},
		{"llm without key", func(c *Config) { c.LLMProvider = "openai" }},
		{"production without secret", func(c *Config) { c.Environment = "production" }},
		{"negative paths", func(c *Config) { n := -1; c.Domain.MaxPaths = &n }},
		{"names wider than the column", func(c *Config) { n := 101; c.Domain.MaxTopicNameLength = &n }},
		{"memory in production", func(c *Config) {
			c.Environment, c.JWTSecret, c.StorageDriver = "production", "secret", "memory"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())

	memory := Default()
	memory.StorageDriver = "memory"
	assert.NoError(t, memory.Validate())
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "storage_driver: [unterminated")
	t.Setenv("CONFIG_FILE", path)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"

	logger, level, err := NewLogger(cfg)
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck
	assert.Equal(t, zapcore.WarnLevel, level.Level())
}

func TestWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathfinder.yaml")
	writeFile(t, path, "log_level: info\n")

	dynamic := domainconfig.NewDynamic(domainconfig.DefaultDomainConfig())
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	w, err := NewWatcher(path, dynamic, level, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	writeFile(t, path, "log_level: debug\ndomain:\n  max_paths: 7\n")
	require.NoError(t, w.Reload())
	assert.Equal(t, 7, dynamic.Current().MaxPaths)
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	writeFile(t, path, "domain:\n  max_path_depth: -3\n")
	assert.Error(t, w.Reload())
	assert.Equal(t, 7, dynamic.Current().MaxPaths, "invalid file keeps previous settings")
}

func TestWatcher_PicksUpWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathfinder.yaml")
	writeFile(t, path, "domain:\n  max_paths: 1\n")

	dynamic := domainconfig.NewDynamic(domainconfig.DefaultDomainConfig())
	w, err := NewWatcher(path, dynamic, zap.NewAtomicLevel(), zap.NewNop())
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond
	w.Start()
	defer w.Stop()

	writeFile(t, path, "domain:\n  max_paths: 42\n")

	select {
	case <-w.Reloaded():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
	assert.Equal(t, 42, dynamic.Current().MaxPaths)
}
