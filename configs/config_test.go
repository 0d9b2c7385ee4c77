package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, []string{"localhost:2379"}, cfg.EtcdEndpoints)
	assert.Equal(t, "/tmp/hookrun", cfg.WorkspaceRoot)
	assert.Equal(t, 5*time.Minute, cfg.ExecTimeout)
	assert.Equal(t, 10, cfg.HeartbeatTTL)
	assert.False(t, cfg.ArchiveEnabled)
	assert.Equal(t, time.Hour, cfg.JanitorRetention)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("EXEC_TIMEOUT", "90s")
	t.Setenv("HEARTBEAT_TTL", "30")
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("ARCHIVE_BUCKET", "run-logs")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.APIPort)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr())
	assert.Equal(t, 90*time.Second, cfg.ExecTimeout)
	assert.Equal(t, 30, cfg.HeartbeatTTL)
	assert.True(t, cfg.ArchiveEnabled)
	assert.Equal(t, "run-logs", cfg.ArchiveBucket)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("HEARTBEAT_TTL", "not-a-number")
	t.Setenv("EXEC_TIMEOUT", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 10, cfg.HeartbeatTTL)
	assert.Equal(t, 5*time.Minute, cfg.ExecTimeout)
}
