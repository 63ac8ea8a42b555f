package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Listing sources.
const (
	SourceREST   = "rest"
	SourceAirbnb = "airbnb"
)

// Favorite store backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr       string
	CORSOrigins    []string
	LogLevel       string
	RequestTimeout time.Duration

	ListingsSource  string
	ListingsURL     string
	PageSize        int
	RefreshSchedule string

	FavoritesBackend string
	FavoritesDir     string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	SnapshotEnabled bool

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int
	PagesToScrape   int
	ListingsPerPage int
	AirbnbSearchURL string
	ChromeBin       string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),

		ListingsSource:  strings.ToLower(getEnv("LISTINGS_SOURCE", SourceREST)),
		ListingsURL:     getEnv("LISTINGS_URL", "http://localhost:3001"),
		PageSize:        getEnvInt("PAGE_SIZE", 6),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 5m"),

		FavoritesBackend: strings.ToLower(getEnv("FAVORITES_BACKEND", BackendFile)),
		FavoritesDir:     getEnv("FAVORITES_DIR", "./data/favorites"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),

		SnapshotEnabled: getEnvBool("SNAPSHOT_ENABLED", false),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "stayfinder"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "stayfinder123"),
		PostgresDB:       getEnv("POSTGRES_DB", "stayfinder"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		PagesToScrape:   getEnvInt("PAGES_TO_SCRAPE", 2),
		ListingsPerPage: getEnvInt("LISTINGS_PER_PAGE", 10),
		AirbnbSearchURL: getEnv("AIRBNB_SEARCH_URL", "https://www.airbnb.com/s/Pune/homes"),
		ChromeBin:       getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// NeedsPostgres reports whether any component is configured to use PostgreSQL.
func (c *Config) NeedsPostgres() bool {
	return c.SnapshotEnabled || c.FavoritesBackend == BackendPostgres
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
