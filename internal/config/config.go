package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	HTTPAddr     string
	DBDSN        string

	PolicyFile     string
	PolicyCacheTTL time.Duration

	WaitlistSweepInterval   time.Duration
	AutoCancelSweepInterval time.Duration
	ReminderSweepInterval   time.Duration
	SeriesSweepInterval     time.Duration
	SeriesHorizon           time.Duration

	MigrateOnStart bool
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}
	var err error

	// Application environment (default: dev)
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING

	// Comma-separated CORS origins for production
	cfg.ProdOrigins = splitList(getEnv("PROD_ORIGINS", ""))
	if cfg.IsProduction && len(cfg.ProdOrigins) == 0 {
		return nil, fmt.Errorf("PROD_ORIGINS is required in production")
	}

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// Optional YAML file with policy defaults; stored settings override it
	cfg.PolicyFile = getEnv("POLICY_FILE", "")

	if cfg.PolicyCacheTTL, err = getEnvAsDuration("POLICY_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.WaitlistSweepInterval, err = getEnvAsDuration("WAITLIST_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.AutoCancelSweepInterval, err = getEnvAsDuration("AUTO_CANCEL_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderSweepInterval, err = getEnvAsDuration("REMINDER_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SeriesSweepInterval, err = getEnvAsDuration("SERIES_SWEEP_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}

	// How far ahead open-ended series are materialized, in days (default: 28)
	days, err := getEnvAsInt("SERIES_HORIZON_DAYS", 28)
	if err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("SERIES_HORIZON_DAYS must be positive, got %d", days)
	}
	cfg.SeriesHorizon = time.Duration(days) * 24 * time.Hour

	if cfg.MigrateOnStart, err = getEnvAsBool("MIGRATE_ON_START", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}
	return val, nil
}

// getEnvAsDuration parses values like "30s" or "1h". Zero and negative
// durations are rejected since every duration here drives a ticker or TTL.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("env %s must be positive, got %s", key, val)
	}
	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
