package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver    string // postgres or sqlite
	DatabaseURL string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// RedisURL enables token revocation on logout when set.
	RedisURL string

	LogLevel  string
	LogFormat string // json or console

	SeedSampleData    bool
	SeedAdminPassword string
}

// LoadEnv reads .env into the process environment if the file exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}
}

// GetEnv returns the value of key or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(GetEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	i, err := strconv.Atoi(GetEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return i
}

// Load builds the configuration from the environment.
func Load() (*Config, error) {
	LoadEnv()

	cfg := &Config{
		Port:              GetEnv("PORT", "8080"),
		GinMode:           GetEnv("GIN_MODE", "release"),
		DBDriver:          strings.ToLower(GetEnv("DB_DRIVER", "postgres")),
		DatabaseURL:       GetEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=pemiyos port=5432 sslmode=disable"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          24 * time.Hour,
		BcryptCost:        getInt("BCRYPT_COST", 10),
		RedisURL:          os.Getenv("REDIS_URL"),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		LogFormat:         GetEnv("LOG_FORMAT", "json"),
		SeedSampleData:    getBool("SEED_SAMPLE_DATA", false),
		SeedAdminPassword: GetEnv("SEED_ADMIN_PASSWORD", "Admin123"),
	}

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, errors.New("TOKEN_TTL must be a duration such as 24h")
		}
		cfg.TokenTTL = d
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, errors.New("DB_DRIVER must be postgres or sqlite")
	}
	return cfg, nil
}
