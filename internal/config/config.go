package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	MongoURI       string
	PostgresURI    string
	RedisURI       string
	Port           string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	Environment    string   // ENV: production, development, etc.

	// Reflection generation (OpenAI-compatible chat completions API)
	ReflectionAPIKey  string
	ReflectionBaseURL string
	ReflectionModel   string

	// Timezone used to assign entries to calendar days in the 7-day trend.
	// A single location is used for both truncation and weekday labels.
	TrendLocation *time.Location
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	loc := time.UTC
	if tz := strings.TrimSpace(getEnv("TREND_TIMEZONE", "")); tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		}
	}

	return &Config{
		MongoURI:          getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/moodmirror")),
		PostgresURI:       getEnv("POSTGRES_URI", "postgres://localhost:5432/moodmirror?sslmode=disable"),
		RedisURI:          getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    allowedOrigins,
		Environment:       env,
		ReflectionAPIKey:  getEnv("REFLECTION_API_KEY", ""),
		ReflectionBaseURL: getEnv("REFLECTION_BASE_URL", ""),
		ReflectionModel:   getEnv("REFLECTION_MODEL", "gpt-4o-mini"),
		TrendLocation:     loc,
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
