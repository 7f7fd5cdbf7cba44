// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	BackendBolt  = "bolt"
	BackendMongo = "mongo"
)

type Config struct {
	// Record store backend: bolt (default, single local file) or mongo.
	StoreBackend string
	BoltPath     string
	MongoURI     string
	MongoDB      string

	// RedisAddress enables the read-through cache when non-empty; only
	// meaningful with the mongo backend.
	RedisAddress string

	// NATSURL enables lifecycle events when non-empty.
	NATSURL string

	// Blob store. MinIOEnabled=false keeps every image inline.
	MinIOEnabled   bool
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// Extraction.
	GeminiAPIKey string
	GeminiModel  string

	// Export summary email; disabled unless SMTPEmail and ExportEmailTo are
	// both set.
	SMTPHost      string
	SMTPPort      int
	SMTPEmail     string
	SMTPPassword  string
	ExportEmailTo string

	// Identity stamped onto finalized listings.
	VendorName string
	Role       string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		StoreBackend:   getEnv("STORE_BACKEND", BackendBolt),
		BoltPath:       getEnv("BOLT_PATH", "listing-engine.db"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "listing_engine"),
		RedisAddress:   getEnv("REDIS_ADDRESS", ""),
		NATSURL:        getEnv("NATS_URL", ""),
		MinIOEnabled:   getBoolEnv("MINIO_ENABLED", false),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "listing-photos"),
		MinIOUseSSL:    getBoolEnv("MINIO_USE_SSL", false),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", ""),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getIntEnv("SMTP_PORT", 587),
		SMTPEmail:      getEnv("SMTP_EMAIL", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		ExportEmailTo:  getEnv("EXPORT_EMAIL_TO", ""),
		VendorName:     getEnv("VENDOR_NAME", ""),
		Role:           getEnv("ROLE", "admin"),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, defaulting to %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, defaulting to %d", key, value, fallback)
		return fallback
	}
	return parsed
}
