package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration, loaded from environment
// variables with sensible defaults
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	Env       string // development or production

	// Session state machine
	SessionDuration   time.Duration // how long a captured location stays live
	WarningThreshold  time.Duration // remaining time below which a warning is due
	MaxSessionEntries int           // entry quota per capture

	// Route math
	AvgTravelSpeedKmh   float64 // assumed speed for travel-time estimates
	DefaultVisitMinutes int     // visit duration when the caller omits one

	// Pattern clustering
	ClusterPrecision int // decimal places for cluster keys
}

// Load reads configuration from the environment
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", ":8080"),
		DBPath:    getEnv("DB_PATH", "./data/fieldtrack.db"),
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
		Env:       getEnv("APP_ENV", "development"),

		SessionDuration:   time.Duration(getEnvInt("SESSION_DURATION_SECONDS", 900)) * time.Second,
		WarningThreshold:  time.Duration(getEnvInt("SESSION_WARNING_SECONDS", 60)) * time.Second,
		MaxSessionEntries: getEnvInt("MAX_SESSION_ENTRIES", 10),

		AvgTravelSpeedKmh:   getEnvFloat("AVG_TRAVEL_SPEED_KMH", 30),
		DefaultVisitMinutes: getEnvInt("DEFAULT_VISIT_DURATION_MIN", 30),

		ClusterPrecision: getEnvInt("CLUSTER_PRECISION", 3),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}
