package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment.
type Config struct {
	Env         string
	Port        string
	DatabaseURL string

	JWTSecret []byte
	JWTIssuer string
	JWTTTL    time.Duration

	CORSOrigin  string
	APIKey      string
	AdminAPIKey string

	RateLimitTxMax    int
	RateLimitTxWindow time.Duration

	LogLevel       string
	MigrationsFile string
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is not set")
)

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can avoid the real environment.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Env:               strings.ToLower(get("ENV", "production")),
		Port:              get("PORT", "8080"),
		DatabaseURL:       get("DATABASE_URL", ""),
		JWTSecret:         []byte(get("JWT_SECRET", "")),
		JWTIssuer:         get("JWT_ISSUER", "minibank"),
		JWTTTL:            time.Duration(positiveInt(getenv("JWT_TTL_MINUTES"), 24*60)) * time.Minute,
		CORSOrigin:        get("CORS_ORIGIN", "*"),
		APIKey:            get("API_KEY", ""),
		AdminAPIKey:       get("ADMIN_API_KEY", ""),
		RateLimitTxMax:    positiveInt(getenv("RATE_LIMIT_TX_MAX"), 60),
		RateLimitTxWindow: time.Duration(positiveInt(getenv("RATE_LIMIT_TX_WINDOW_SECONDS"), 60)) * time.Second,
		LogLevel:          strings.ToLower(get("LOG_LEVEL", "info")),
		MigrationsFile:    get("MIGRATIONS_FILE", "migrations/migrations.sql"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, ErrMissingDatabaseURL
	}
	if len(cfg.JWTSecret) == 0 {
		return Config{}, ErrMissingJWTSecret
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// positiveInt parses v, falling back to def for empty, invalid or non-positive input.
func positiveInt(v string, def int) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
