package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	LogLevel    string
	CatalogPath string

	// DatabaseURL selects the postgres check store; empty keeps checks in memory.
	DatabaseURL string

	Redis     RedisConfig
	Kafka     KafkaConfig
	Webhooks  WebhookConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
}

// RedisConfig configures the delivery dedupe store. An empty URL falls back
// to the in-process store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit sink. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// WebhookConfig configures provider webhook authentication and idempotency.
type WebhookConfig struct {
	Secret    string
	Issuer    string
	Audience  string
	DedupeTTL time.Duration
}

// RateLimitConfig sets per-minute request budgets. The webhook budget is per
// provider, the API budget per client IP. Budgets are shared across replicas
// when Redis is configured.
type RateLimitConfig struct {
	Disabled         bool
	APIPerMinute     int
	WebhookPerMinute int
}

// AuditConfig configures the audit publisher.
type AuditConfig struct {
	AsyncBuffer int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	secret := os.Getenv("PROVIDER_WEBHOOK_SECRET")
	if secret == "" {
		// Use a default for development - should be overridden in production
		secret = "dev-webhook-secret-change-in-production"
	}

	return Server{
		Addr:        getEnv("CASECHECK_ADDR", ":8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CatalogPath: os.Getenv("CATALOG_PATH"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("AUDIT_TOPIC", "casecheck.audit"),
		},
		Webhooks: WebhookConfig{
			Secret:    secret,
			Issuer:    getEnv("PROVIDER_WEBHOOK_ISSUER", "casecheck"),
			Audience:  getEnv("PROVIDER_WEBHOOK_AUDIENCE", "provider-webhooks"),
			DedupeTTL: getDuration("DELIVERY_DEDUPE_TTL", 72*time.Hour),
		},
		Audit: AuditConfig{
			AsyncBuffer: getInt("AUDIT_ASYNC_BUFFER", 0),
		},
		RateLimit: RateLimitConfig{
			Disabled:         getBool("RATE_LIMIT_DISABLED", false),
			APIPerMinute:     getInt("RATE_LIMIT_API_PER_MINUTE", 600),
			WebhookPerMinute: getInt("RATE_LIMIT_WEBHOOK_PER_MINUTE", 1200),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
