package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	RedisAddr              string
	RateLimit              int
	ShutdownTimeoutSeconds int

	TrackerAPIURL         string
	TrackerAPIKey         string
	TrackerWebhookSecret  string
	TrackerTimeoutSeconds int
	WebhookEndpoint       string
	SyncWorkers           int
	BoardMappingsFile     string
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "demandsync.db"),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
		TrackerAPIURL:          getEnv("TRACKER_API_URL", "https://api.clickup.com/api/v2"),
		TrackerAPIKey:          getEnv("TRACKER_API_KEY", ""),
		TrackerWebhookSecret:   getEnv("TRACKER_WEBHOOK_SECRET", ""),
		TrackerTimeoutSeconds:  getEnvAsInt("TRACKER_TIMEOUT_SECONDS", 15),
		WebhookEndpoint:        getEnv("WEBHOOK_ENDPOINT", ""),
		SyncWorkers:            getEnvAsInt("SYNC_WORKERS", 4),
		BoardMappingsFile:      getEnv("BOARD_MAPPINGS_FILE", ""),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.TrackerAPIKey == "" {
		log.Fatal("TRACKER_API_KEY must not be empty")
	}
	if cfg.TrackerWebhookSecret == "" {
		log.Fatal("TRACKER_WEBHOOK_SECRET must not be empty")
	}
	if cfg.TrackerTimeoutSeconds <= 0 {
		log.Fatal("TRACKER_TIMEOUT_SECONDS must be greater than 0")
	}
	if cfg.SyncWorkers <= 0 {
		log.Fatal("SYNC_WORKERS must be greater than 0")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}
