package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	HTTPAddr string

	// Payment gateway. Provider selects the adapter ("stripe" or
	// "sandbox"); the secret key is only required for stripe.
	PaymentProvider string
	StripeSecretKey string
	StripeAPIBase   string

	// Settlement event publishing. Empty AMQP URL disables the relay.
	AMQPURL        string
	OutboxExchange string

	// Optional distributed checkout lock. Empty address disables it.
	RedisAddr     string
	RedisPassword string
}

var Module = fx.Provide(Load)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "repomart"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "repomart"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		PaymentProvider: strings.ToLower(getenv("PAYMENT_PROVIDER", "sandbox")),
		StripeSecretKey: strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeAPIBase:   getenv("STRIPE_API_BASE", "https://api.stripe.com"),

		AMQPURL:        strings.TrimSpace(getenv("AMQP_URL", "")),
		OutboxExchange: getenv("OUTBOX_EXCHANGE", "repomart.settlements"),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
	}
}

func (c Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
