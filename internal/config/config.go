package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultCurrency is the fallback analytics currency used when the price
// oracle is unavailable.
const DefaultCurrency = "USD"

// backendURLCandidates is the ordered list of environment variables probed
// for the checkout backend base URL; the first non-empty wins.
var backendURLCandidates = []string{
	"CHECKOUT_API_URL",
	"COMMERCE_BACKEND_URL",
	"BACKEND_BASE_URL",
}

type Config struct {
	HTTPPort            string
	BackendBaseURL      string
	PaymentProviderURL  string
	PaymentProviderName string
	PriceOracleURL      string
	ReturnURL           string
	CancelURL           string

	RedisAddr    string // empty: use the embedded SQLite store
	SQLitePath   string
	KafkaBrokers []string // empty: log sink

	TaxRate      float64
	FlatShipping float64

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		BackendBaseURL:      firstNonEmpty(backendURLCandidates, "http://localhost:9000"),
		PaymentProviderURL:  getEnv("PAYMENT_PROVIDER_URL", "http://localhost:9100"),
		PaymentProviderName: getEnv("PAYMENT_PROVIDER_NAME", "hypay"),
		PriceOracleURL:      getEnv("PRICE_ORACLE_URL", "http://localhost:9200"),
		ReturnURL:           getEnv("CHECKOUT_RETURN_URL", "http://localhost:8080/checkout/return"),
		CancelURL:           getEnv("CHECKOUT_CANCEL_URL", "http://localhost:8080/checkout/cancel"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		SQLitePath:          getEnv("SQLITE_PATH", "commerce.db"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		TaxRate:             getEnvFloat("TAX_RATE", 0),
		FlatShipping:        getEnvFloat("FLAT_SHIPPING", 0),
		RequestTimeout:      30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func firstNonEmpty(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
