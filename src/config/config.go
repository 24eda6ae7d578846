package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64

	// Dataset tokens returned by the upload endpoint are signed JWTs.
	DatasetTokenSecret string
	DatasetTokenExpiry time.Duration

	// Actuarial tables used by the expectancy endpoint.
	MortalityMalePath   string
	MortalityFemalePath string

	// Market data (Yahoo chart API) settings.
	MarketDataCacheTTL    time.Duration
	ForecastLookbackYears int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	tokenSecret := getEnv("DATASET_TOKEN_SECRET", "an-insecure-development-only-secret-at-least-32-bytes!")
	if tokenSecret == "an-insecure-development-only-secret-at-least-32-bytes!" {
		log.Println("WARNING: Using default insecure DATASET_TOKEN_SECRET. Set DATASET_TOKEN_SECRET for production.")
	}
	if len(tokenSecret) < 32 {
		log.Fatalf("FATAL: DATASET_TOKEN_SECRET must be at least 32 bytes long. Current length: %d", len(tokenSecret))
	}

	tokenExpiryStr := getEnv("DATASET_TOKEN_EXPIRY", "720h")
	tokenExpiry, err := time.ParseDuration(tokenExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid DATASET_TOKEN_EXPIRY format '%s'. Using default 720h. Error: %v", tokenExpiryStr, err)
		tokenExpiry = 720 * time.Hour
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	marketCacheTTLStr := getEnv("MARKET_DATA_CACHE_TTL", "30m")
	marketCacheTTL, err := time.ParseDuration(marketCacheTTLStr)
	if err != nil {
		log.Printf("WARNING: Invalid MARKET_DATA_CACHE_TTL format '%s'. Using default 30m. Error: %v", marketCacheTTLStr, err)
		marketCacheTTL = 30 * time.Minute
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./lifetimeline.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		DatasetTokenSecret: tokenSecret,
		DatasetTokenExpiry: tokenExpiry,

		MortalityMalePath:   getEnv("MORTALITY_MALE_PATH", "data/mortality_male.csv"),
		MortalityFemalePath: getEnv("MORTALITY_FEMALE_PATH", "data/mortality_female.csv"),

		MarketDataCacheTTL:    marketCacheTTL,
		ForecastLookbackYears: getEnvAsInt("FORECAST_LOOKBACK_YEARS", 10),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}
