package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	// Populate the environment from .env when present.
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port string
	// DatabaseURL selects the PostgreSQL store. Empty runs on the in-memory store.
	DatabaseURL string
	JWTSecret   string
	// WebhookURL receives every committed ledger event. Needs DatabaseURL.
	WebhookURL     string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       slog.Level
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", "supersecretmvp"),
		WebhookURL:     getEnv("WEBHOOK_URL", ""),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 20),
		LogLevel:       parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
