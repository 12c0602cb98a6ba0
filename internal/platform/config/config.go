package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	HistoryTopic  string
	JWTSigningKey string
	PeriodFormat  string
	TxTimeout     time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("DISTRACK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("DISTRACK_HISTORY_TOPIC")
	if topic == "" {
		topic = "distribution-history"
	}

	var brokers []string
	if raw := os.Getenv("DISTRACK_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DISTRACK_DATABASE_URL"),
		RedisURL:      os.Getenv("DISTRACK_REDIS_URL"),
		KafkaBrokers:  brokers,
		HistoryTopic:  topic,
		JWTSigningKey: jwtSigningKey,
		PeriodFormat:  os.Getenv("DISTRACK_PERIOD_FORMAT"),
		TxTimeout:     5 * time.Second,
	}
}
