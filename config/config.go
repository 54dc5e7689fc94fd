package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Gateway  GatewayConfig
	Local    LocalGatewayConfig
	Logging  LoggingConfig
	Shipping ShippingConfig
}

type GatewayConfig struct {
	// Mode selects the gateway implementation: "rest" talks to the hosted
	// backend, "local" runs the embedded SQL gateway.
	Mode        string
	URL         string
	AnonKey     string
	HTTPTimeout time.Duration
	AutoRefresh bool
}

type LocalGatewayConfig struct {
	// DSN selects the embedded gateway's database. Empty means an
	// in-memory SQLite store; a postgres DSN switches to postgres.
	DSN       string
	JWTSecret string
	TokenTTL  time.Duration
}

type LoggingConfig struct {
	Level       string
	Format      string
	EnableColor bool
}

type ShippingConfig struct {
	FreeThreshold float64
	FlatFee       float64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Gateway: GatewayConfig{
			Mode:        getEnv("GATEWAY_MODE", "rest"),
			URL:         getEnv("GATEWAY_URL", "http://localhost:54321"),
			AnonKey:     getEnv("GATEWAY_ANON_KEY", ""),
			HTTPTimeout: parseDuration(getEnv("GATEWAY_HTTP_TIMEOUT", "0s"), 0),
			AutoRefresh: parseBool(getEnv("GATEWAY_AUTO_REFRESH", "true"), true),
		},
		Local: LocalGatewayConfig{
			DSN:       getEnv("LOCAL_GATEWAY_DSN", ""),
			JWTSecret: getEnv("LOCAL_GATEWAY_JWT_SECRET", "dev-secret"),
			TokenTTL:  parseDuration(getEnv("LOCAL_GATEWAY_TOKEN_TTL", "1h"), time.Hour),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "console"),
			EnableColor: parseBool(getEnv("LOG_COLOR", "true"), true),
		},
		Shipping: ShippingConfig{
			FreeThreshold: parseFloat(getEnv("SHIPPING_FREE_THRESHOLD", "999"), 999),
			FlatFee:       parseFloat(getEnv("SHIPPING_FLAT_FEE", "99"), 99),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %q, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseBool(s string, fallback bool) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid number %q, using default %v", s, fallback)
		return fallback
	}
	return v
}
