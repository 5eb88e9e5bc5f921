package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                string
	GinMode             string
	MongoURI            string
	DatabaseName        string
	DBTimeout           time.Duration
	AllowedOrigins      []string
	AuthHeader          string
	MaxQueryLimit       int
	DefaultQueryLimit   int
	SeedTeacherEmail    string
	SeedTeacherPassword string
}

// Load reads the configuration from the environment. Call godotenv.Load
// beforehand to pick up a local .env file.
func Load() Config {
	cfg := Config{
		Port:                getenv("PORT", "8080"),
		GinMode:             getenv("GIN_MODE", "debug"),
		MongoURI:            getenv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		DatabaseName:        getenv("DATABASE_NAME", "weather"),
		DBTimeout:           getenvDuration("DB_TIMEOUT", 10*time.Second),
		AllowedOrigins:      splitList(os.Getenv("ALLOWED_ORIGINS")),
		AuthHeader:          getenv("AUTH_HEADER", "Authorization"),
		MaxQueryLimit:       getenvInt("READ_QUERY_MAX_LIMIT", 100),
		DefaultQueryLimit:   getenvInt("DEFAULT_READ_QUERY_LIMIT", 20),
		SeedTeacherEmail:    strings.TrimSpace(os.Getenv("SEED_TEACHER_EMAIL")),
		SeedTeacherPassword: os.Getenv("SEED_TEACHER_PASSWORD"),
	}
	if cfg.DefaultQueryLimit > cfg.MaxQueryLimit {
		cfg.DefaultQueryLimit = cfg.MaxQueryLimit
	}
	return cfg
}

func getenv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
