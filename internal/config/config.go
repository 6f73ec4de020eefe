package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// app config, read once at startup
type Config struct {
	Port string

	StoreBackend string
	MongoURI     string
	MongoDBName  string
	PostgresDSN  string

	// empty disables the interview cache and the completion subscriber
	RedisAddr         string
	RedisPassword     string
	InterviewCacheTTL time.Duration

	JWTSecret string
	Provider  string

	AvailableDefaultLimit        int
	AvailableMaxLimit            int
	AvailableOverfetchMultiplier int
	AvailableMaxCandidates       int

	FeedbackExportEnabled  bool
	FeedbackExportSchedule string
	FeedbackExportDir      string

	CORSAllowedOrigins []string
}

// loads configuration from the environment, reading .env first when present
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		MongoURI:     getEnv("MONGO_URI", ""),
		MongoDBName:  getEnv("MONGO_DB_NAME", "preppy"),
		PostgresDSN:  postgresDSN(),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		InterviewCacheTTL: getEnvDuration("INTERVIEW_CACHE_TTL", 5*time.Minute),

		JWTSecret: getEnv("JWT_SECRET", ""),
		Provider:  getEnv("AI_PROVIDER", "gemini"),

		AvailableDefaultLimit:        getEnvInt("AVAILABLE_DEFAULT_LIMIT", 20),
		AvailableMaxLimit:            getEnvInt("AVAILABLE_MAX_LIMIT", 100),
		AvailableOverfetchMultiplier: getEnvInt("AVAILABLE_OVERFETCH_MULTIPLIER", 3),
		AvailableMaxCandidates:       getEnvInt("AVAILABLE_MAX_CANDIDATES", 1000),

		FeedbackExportEnabled:  getEnvBool("FEEDBACK_EXPORT_ENABLED", false),
		FeedbackExportSchedule: getEnv("FEEDBACK_EXPORT_SCHEDULE", "0 2 * * *"),
		FeedbackExportDir:      getEnv("FEEDBACK_EXPORT_DIR", "./exports"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.StoreBackend {
	case BackendMongo:
		if cfg.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_BACKEND=mongo")
		}
	case BackendPostgres:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND: %s. Currently supported: mongo, postgres", cfg.StoreBackend)
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if cfg.Provider != "gemini" {
		return errors.New("unsupported AI provider: " + cfg.Provider + ". Currently supported: gemini")
	}
	// Gemini validation is handled by gemini.NewConfig()
	if cfg.AvailableDefaultLimit <= 0 || cfg.AvailableMaxLimit <= 0 {
		return errors.New("AVAILABLE_DEFAULT_LIMIT and AVAILABLE_MAX_LIMIT must be positive")
	}
	if cfg.AvailableDefaultLimit > cfg.AvailableMaxLimit {
		return errors.New("AVAILABLE_DEFAULT_LIMIT cannot exceed AVAILABLE_MAX_LIMIT")
	}
	if cfg.AvailableOverfetchMultiplier < 1 {
		return errors.New("AVAILABLE_OVERFETCH_MULTIPLIER must be at least 1")
	}
	if cfg.AvailableMaxCandidates < cfg.AvailableMaxLimit {
		return errors.New("AVAILABLE_MAX_CANDIDATES cannot be below AVAILABLE_MAX_LIMIT")
	}
	return nil
}

func postgresDSN() string {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", "postgres"),
		getEnv("POSTGRES_DB", "postgres"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_SSLMODE", "disable"))
}

// Helper functions for environment variables
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
