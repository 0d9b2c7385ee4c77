package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort       string
	RedisHost     string
	RedisPort     string
	EtcdEndpoints []string

	// Runner settings
	WorkspaceRoot string
	ExecTimeout   time.Duration
	HeartbeatTTL  int

	// Log archival (optional; empty bucket means local filesystem)
	ArchiveEnabled  bool
	ArchiveDir      string
	ArchiveBucket   string
	ArchiveRegion   string
	ArchiveEndpoint string

	// Workspace janitor
	JanitorSchedule  string
	JanitorRetention time.Duration

	// Auth
	JWTSecret string

	LogLevel string
}

func LoadConfig() *Config {
	return &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		EtcdEndpoints: []string{getEnv("ETCD_ENDPOINTS", "localhost:2379")},

		WorkspaceRoot: getEnv("WORKSPACE_ROOT", "/tmp/hookrun"),
		ExecTimeout:   getEnvAsDuration("EXEC_TIMEOUT", 5*time.Minute),
		HeartbeatTTL:  getEnvAsInt("HEARTBEAT_TTL", 10),

		ArchiveEnabled:  getEnv("ARCHIVE_ENABLED", "false") == "true",
		ArchiveDir:      getEnv("ARCHIVE_DIR", "/var/lib/hookrun/logs"),
		ArchiveBucket:   getEnv("ARCHIVE_BUCKET", ""),
		ArchiveRegion:   getEnv("ARCHIVE_REGION", "us-east-1"),
		ArchiveEndpoint: getEnv("ARCHIVE_ENDPOINT", ""),

		JanitorSchedule:  getEnv("JANITOR_SCHEDULE", "*/10 * * * *"),
		JanitorRetention: getEnvAsDuration("JANITOR_RETENTION", time.Hour),

		JWTSecret: getEnv("JWT_SECRET", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
