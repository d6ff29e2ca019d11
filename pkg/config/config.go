package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envPaths are tried in order; the first existing file is loaded
var envPaths = []string{".env", "../.env", "../../.env"}

// Config holds the process settings read from the environment
type Config struct {
	Port             string
	GinMode          string
	DatabaseURL      string
	DataPath         string
	JWTSecret        string
	APIMasterSecret  string
	AdminUsername    string
	AdminPassword    string
	LogLevel         string
	LogDevelopment   bool
	DefaultRateLimit int

	// PlanSeed pins the facility shuffle for every request when set
	PlanSeed *int64
}

// LoadDotEnv loads the first .env file found. Variables already set in the
// environment win.
func LoadDotEnv() {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads .env and the environment
func Load() Config {
	LoadDotEnv()
	return FromEnv()
}

// FromEnv reads the environment only
func FromEnv() Config {
	cfg := Config{
		Port:             getenv("PORT", "8000"),
		GinMode:          os.Getenv("GIN_MODE"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DataPath:         getenv("DATA_PATH", "planner.db"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		APIMasterSecret:  os.Getenv("API_MASTER_SECRET"),
		AdminUsername:    getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		LogDevelopment:   parseBool(os.Getenv("LOG_DEVELOPMENT")),
		DefaultRateLimit: 10000,
	}
	if v, err := strconv.Atoi(os.Getenv("DEFAULT_RATE_LIMIT")); err == nil && v > 0 {
		cfg.DefaultRateLimit = v
	}
	if v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("PLAN_SEED")), 10, 64); err == nil {
		cfg.PlanSeed = &v
	}
	return cfg
}

// ErrMissingSecret is returned when a signing secret is unset
var ErrMissingSecret = errors.New("signing secret not set")

// RequireSecrets fails when tokens or API keys would be signed with an empty key
func (c Config) RequireSecrets() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.APIMasterSecret == "" {
		missing = append(missing, "API_MASTER_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSecret, strings.Join(missing, ", "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBool(s string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(s))
	return v
}
