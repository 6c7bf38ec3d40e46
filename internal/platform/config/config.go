package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration

	// PostgresDSN selects the Postgres document store when set; the in-memory
	// store is used otherwise.
	PostgresDSN string

	// RedisURL enables the Redis-backed server session store when set.
	RedisURL string

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("TRUSTNET_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("TRUSTNET_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 12 * time.Hour
	if raw := os.Getenv("TRUSTNET_TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			tokenTTL = d
		}
	}

	var brokers []string
	if raw := os.Getenv("TRUSTNET_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	auditTopic := os.Getenv("TRUSTNET_AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "trustnet.audit"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      tokenTTL,
		PostgresDSN:   os.Getenv("TRUSTNET_POSTGRES_DSN"),
		RedisURL:      os.Getenv("TRUSTNET_REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    auditTopic,
	}
}
