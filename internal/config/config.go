package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	DBMaxOpenConns     int
	DBMaxIdleConns     int
	DBConnMaxLifetime  time.Duration
	DBConnectAttempts  int
	DBConnectRetryWait time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret           string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	UploadDir string

	LogLevel  string
	LogFormat string

	LocationRetentionDays int
	RetentionCron         string
	Timezone              string
	TerminalCacheTTL      time.Duration
}

// Load reads .env when it exists and falls back to the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool) {
	envLoaded := godotenv.Load() == nil

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: os.Getenv("GIN_MODE"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "rideaxis"),

		DBMaxOpenConns:     getInt("DB_MAX_OPEN_CONNS", 100),
		DBMaxIdleConns:     getInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime:  time.Duration(getInt("DB_CONN_MAX_LIFETIME_MINUTES", 60)) * time.Minute,
		DBConnectAttempts:  getInt("DB_CONNECT_ATTEMPTS", 5),
		DBConnectRetryWait: time.Duration(getInt("DB_CONNECT_RETRY_SECONDS", 5)) * time.Second,

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		SessionTTL:          time.Duration(getInt("SESSION_TTL_HOURS", 24*14)) * time.Hour,
		SessionCookieSecure: os.Getenv("SESSION_COOKIE_SECURE") == "true",

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		LocationRetentionDays: getInt("LOCATION_RETENTION_DAYS", 0),
		RetentionCron:         getEnv("RETENTION_CRON", "0 3 * * *"),
		Timezone:              getEnv("TIMEZONE", "Asia/Manila"),
		TerminalCacheTTL:      time.Duration(getInt("TERMINAL_CACHE_TTL_SECONDS", 300)) * time.Second,
	}

	return cfg, envLoaded
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Location resolves Timezone, defaulting to UTC on unknown names.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	if val, err := strconv.Atoi(os.Getenv(key)); err == nil && val >= 0 {
		return val
	}
	return def
}
