package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RabbitURL string

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Payment   PaymentConfig

	AdminJWTSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// PaymentConfig selects and configures the payment gateway.
// Provider is "stripe" in production; "stub" signs webhooks with StubWebhookSecret
// and returns local checkout URLs, for development without a Stripe account.
type PaymentConfig struct {
	Provider          string
	StripeSecretKey   string
	StripeWebhookKey  string
	StubWebhookSecret string
	Currency          string
	Timeout           time.Duration
	PublicBaseURL     string
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] failed to read .env: %v", err)
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "restaurant_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RabbitURL: os.Getenv("RABBITMQ_URL"),

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			Capacity:       getEnvInt("RATE_LIMIT_CAPACITY", 10),
			RefillTokens:   getEnvInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: getEnvDuration("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
			TTL:            getEnvDuration("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl:checkout"),
		},
		Payment: PaymentConfig{
			Provider:          strings.ToLower(getEnv("PAYMENT_PROVIDER", "stripe")),
			StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
			StripeWebhookKey:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
			StubWebhookSecret: getEnv("STUB_WEBHOOK_SECRET", "dev-webhook-secret"),
			Currency:          strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
			Timeout:           getEnvDuration("PAYMENT_TIMEOUT", 10*time.Second),
			PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		},

		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
	}

	if cfg.Payment.Provider == "stripe" && (cfg.Payment.StripeSecretKey == "" || cfg.Payment.StripeWebhookKey == "") {
		log.Fatalf("[Config] STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required when PAYMENT_PROVIDER=stripe")
	}

	return cfg
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[Config] invalid duration for %s: %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
