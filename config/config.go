package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env     string
	GinMode string
	Port    string

	// Database
	DBDriver   string // sqlite or postgres
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret    string
	JWTAccessTTL time.Duration

	CORSAllowedOrigins string // comma-separated

	// Redis backs the post list cache; empty address disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostCacheTTL  time.Duration

	// Warnings lists values that failed to parse and fell back to defaults.
	Warnings []string
}

func Load() *Config {
	var l loader
	cfg := &Config{
		Env:     getEnv("APP_ENV", "development"),
		GinMode: getEnv("GIN_MODE", "debug"),
		Port:    getEnv("PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "app.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "kblog"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:    getEnv("JWT_SECRET", "default-secret"),
		JWTAccessTTL: l.getDuration("JWT_ACCESS_TTL", 15*time.Minute),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       l.getInt("REDIS_DB", 0),
		PostCacheTTL:  l.getDuration("POST_CACHE_TTL", 30*time.Second),
	}
	cfg.Warnings = l.warnings
	return cfg
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// SQLiteDSN enables foreign keys so posts.user_id is enforced.
func (c *Config) SQLiteDSN() string {
	if strings.Contains(c.DBPath, "?") {
		return c.DBPath + "&_foreign_keys=on"
	}
	return c.DBPath + "?_foreign_keys=on"
}

// CORSOrigins returns the allowed origins as a slice.
func (c *Config) CORSOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// loader collects parse failures for the caller to log once a logger
// exists.
type loader struct {
	warnings []string
}

func (l *loader) getInt(key string, defaultVal int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid int for %s: %v, using default %d", key, err, defaultVal))
		return defaultVal
	}
	return i
}

func (l *loader) getDuration(key string, defaultVal time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid duration for %s: %v, using default %v", key, err, defaultVal))
		return defaultVal
	}
	return d
}
