package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI            string
	DBName              string
	Port                string
	JWTSecret           string
	AccessTokenTTL      time.Duration
	StripeSecretKey     string
	StripeWebhookSecret string
	FrontendURL         string
	SeedAdminEmail      string
	SeedAdminPassword   string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:            getEnvOrDefault("MONGO_URI", ""),
		DBName:              getEnvOrDefault("DB_NAME", "motoshop"),
		Port:                getEnvOrDefault("PORT", "8080"),
		JWTSecret:           getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:      getDurationEnv("ACCESS_TOKEN_TTL", 24, time.Hour),
		StripeSecretKey:     getEnvOrDefault("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnvOrDefault("STRIPE_WEBHOOK_SECRET", ""),
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		SeedAdminEmail:      getEnvOrDefault("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:   getEnvOrDefault("SEED_ADMIN_PASSWORD", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
