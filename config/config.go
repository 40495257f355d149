package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally via a .env file) with simple defaults.
type Config struct {
	// HTTP
	ListenAddr    string
	PublicBaseURL string // external base URL used in login links and proxied asset URLs

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO object store
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string // base URL of a publicly reachable bucket endpoint; empty means serve through /static/

	// Auth
	JWTSecret       string
	LoginTokenTTL   int // minutes a login link stays valid
	SessionTokenTTL int // hours a session token stays valid

	// Outgoing mail (login links)
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Uploads
	MaxUploadBytes int64
	FFprobePath    string

	// List view
	DefaultPageSize int
	PageSizeChoices []int

	// Logging
	LogLevel string
	LogFile  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already present in the
	// environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for passwords
		DBName:     getEnv("DB_NAME", "audioarchive"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "audio"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: strings.TrimRight(getEnv("MINIO_PUBLIC_URL", ""), "/"),

		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		LoginTokenTTL:   getEnvInt("LOGIN_TOKEN_TTL_MINUTES", 15),
		SessionTokenTTL: getEnvInt("SESSION_TOKEN_TTL_HOURS", 72),

		SMTPHost: getEnv("SMTP_HOST", "127.0.0.1"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getEnv("SMTP_FROM", "audioarchive@localhost"),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 100)) << 20,
		FFprobePath:    getEnv("FFPROBE_PATH", "ffprobe"),

		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 10),
		PageSizeChoices: []int{5, 10, 15, 20, 25},

		LogLevel: getEnv("LOG_LEVEL", "debug"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// AllowedPageSize reports whether size is one of the fixed page size choices.
func (c *Config) AllowedPageSize(size int) bool {
	for _, s := range c.PageSizeChoices {
		if s == size {
			return true
		}
	}
	return false
}
