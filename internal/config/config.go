package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SourceBaseURL string
	SourceAPIKey  string
	Realms        []string

	UpdateInterval       time.Duration
	GuildRefreshInterval time.Duration

	LogLevel string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:        getEnv("MONGO_DATABASE", "raidtracker"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              0,
		SourceBaseURL:        getEnv("SOURCE_BASE_URL", ""),
		SourceAPIKey:         getEnv("SOURCE_API_KEY", ""),
		Realms:               splitList(getEnv("REALMS", "")),
		UpdateInterval:       getDuration("UPDATE_INTERVAL", 15*time.Minute),
		GuildRefreshInterval: getDuration("GUILD_REFRESH_INTERVAL", 24*time.Hour),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}

	if cfg.SourceBaseURL == "" {
		return nil, fmt.Errorf("SOURCE_BASE_URL is required")
	}
	if len(cfg.Realms) == 0 {
		return nil, fmt.Errorf("REALMS is required")
	}

	logger.Info().
		Str("mongo_database", cfg.MongoDatabase).
		Str("redis_addr", cfg.RedisAddr).
		Str("source_base_url", cfg.SourceBaseURL).
		Strs("realms", cfg.Realms).
		Dur("update_interval", cfg.UpdateInterval).
		Dur("guild_refresh_interval", cfg.GuildRefreshInterval).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var Module = fx.Provide(Load)
