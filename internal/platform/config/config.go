package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is constructed once at process start and passed by value to the
// components that need it. Business logic never reads the environment.
type Config struct {
	Addr              string
	DatabaseURL       string
	JWTSecret         string
	TokenTTL          time.Duration
	Environment       string
	CORSOrigins       []string
	RunMigrations     bool
	RunSeed           bool
	SeedHREmail       string
	SeedHRPassword    string
	SeedHRName        string
	DefaultAnnualDays float64
	MigrationsDir     string
}

func Load() Config {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		TokenTTL:          getEnvDuration("TOKEN_TTL", 8*time.Hour),
		Environment:       getEnv("APP_ENV", "development"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:           getEnvBool("RUN_SEED", true),
		SeedHREmail:       getEnv("SEED_HR_EMAIL", ""),
		SeedHRPassword:    getEnv("SEED_HR_PASSWORD", ""),
		SeedHRName:        getEnv("SEED_HR_NAME", "HR Admin"),
		DefaultAnnualDays: getEnvFloat("DEFAULT_ANNUAL_DAYS", 22),
		MigrationsDir:     getEnv("MIGRATIONS_DIR", "migrations"),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.DefaultAnnualDays < 0 {
		return fmt.Errorf("DEFAULT_ANNUAL_DAYS must not be negative")
	}
	if c.Environment == "production" && c.RunSeed && strings.TrimSpace(c.SeedHRPassword) == "" {
		return fmt.Errorf("SEED_HR_PASSWORD must be set or RUN_SEED disabled in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
