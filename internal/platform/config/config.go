package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "landreg/pkg/platform/strings"
)

// Server captures process-level configuration. Parsed once in main so every
// other package receives plain values instead of reading the environment.
type Server struct {
	Addr          string
	JWTSigningKey string
	AdminToken    string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Uploads  UploadConfig
	Timeouts TimeoutConfig
}

// PostgresConfig holds the connection settings for the primary store.
// An empty DSN selects the in-memory stores (dev and tests).
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
}

// RedisConfig holds settings for the notification store.
// An empty URL selects the in-memory store.
type RedisConfig struct {
	URL string
}

// KafkaConfig holds settings for the audit event sink.
// Empty brokers disable the Kafka sink; events still reach the local store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// UploadConfig bounds document uploads.
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// TimeoutConfig defines the per-route-class timeout tiers. Mutating calls get
// the default tier, list/report queries the query tier, health checks the
// short tier, and multipart uploads the upload tier.
type TimeoutConfig struct {
	Short   time.Duration
	Query   time.Duration
	Default time.Duration
	Upload  time.Duration
}

// MaxUploadSize is the hard cap on document uploads.
const MaxUploadSize = 5 << 20 // 5MB

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := getenv("LANDREG_ADDR", ":8080")

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		AdminToken:    os.Getenv("LANDREG_ADMIN_TOKEN"),
		Postgres: PostgresConfig{
			DSN:          os.Getenv("LANDREG_POSTGRES_DSN"),
			MaxOpenConns: getenvInt("LANDREG_POSTGRES_MAX_CONNS", 20),
		},
		Redis: RedisConfig{
			URL: os.Getenv("LANDREG_REDIS_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: pkgstrings.DedupeAndTrimLower(strings.Split(os.Getenv("LANDREG_KAFKA_BROKERS"), ",")),
			Topic:   getenv("LANDREG_KAFKA_AUDIT_TOPIC", "landreg.audit"),
		},
		Uploads: UploadConfig{
			Dir:          getenv("LANDREG_UPLOAD_DIR", "data/uploads"),
			MaxSizeBytes: MaxUploadSize,
		},
		Timeouts: TimeoutConfig{
			Short:   5 * time.Second,
			Query:   12 * time.Second,
			Default: 15 * time.Second,
			Upload:  60 * time.Second,
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
