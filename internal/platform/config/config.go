// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	strutil "doseguard/pkg/platform/strings"
)

// Server captures all process-level configuration.
type Server struct {
	Addr              string        `env:"DOSEGUARD_ADDR" envDefault:":8080"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	Environment       string        `env:"ENVIRONMENT" envDefault:"development"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"doseguard"`
	JWTAudience   string `env:"JWT_AUDIENCE" envDefault:"patient-app"`

	CredentialPepper string `env:"CREDENTIAL_PEPPER"`
	AlertPolicyFile  string `env:"ALERT_POLICY_FILE"`

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Ledger   LedgerRetryConfig
	Workers  WorkerConfig
}

// DatabaseConfig configures Postgres. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate     bool          `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`
}

// RedisConfig configures the alert retry queue. An empty URL disables Redis.
type RedisConfig struct {
	URL           string        `env:"REDIS_URL"`
	PoolSize      int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns  int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout   time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout   time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout  time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	RetryQueueKey string        `env:"ALERT_RETRY_QUEUE_KEY" envDefault:"doseguard:alerts:retry"`
}

// KafkaConfig configures the outbox relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	ClientID          string   `env:"KAFKA_CLIENT_ID" envDefault:"doseguard"`
	AlertTopic        string   `env:"ALERT_TOPIC" envDefault:"doseguard.compliance-alerts"`
	AuditTopic        string   `env:"AUDIT_TOPIC" envDefault:"doseguard.audit"`
	TopicPartitions   int32    `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"KAFKA_REPLICATION_FACTOR" envDefault:"1"`
}

// LedgerRetryConfig bounds in-process retries of the ledger write.
type LedgerRetryConfig struct {
	Attempts       int           `env:"LEDGER_RETRY_ATTEMPTS" envDefault:"4"`
	InitialBackoff time.Duration `env:"LEDGER_RETRY_INITIAL_BACKOFF" envDefault:"50ms"`
	MaxBackoff     time.Duration `env:"LEDGER_RETRY_MAX_BACKOFF" envDefault:"1s"`
}

// WorkerConfig tunes background workers.
type WorkerConfig struct {
	AlertRetryInterval  time.Duration `env:"ALERT_RETRY_INTERVAL" envDefault:"5s"`
	OutboxRelayInterval time.Duration `env:"OUTBOX_RELAY_INTERVAL" envDefault:"1s"`
	OutboxBatchSize     int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

// devSigningKey and devPepper are used outside production when unset.
const (
	devSigningKey = "dev-secret-key-change-in-production"
	devPepper     = "dev-credential-pepper-change-me"
)

// FromEnv parses Server from the process environment.
func FromEnv() (Server, error) {
	cfg, err := env.ParseAs[Server]()
	if err != nil {
		return Server{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c *Server) applyDefaults() error {
	if c.JWTSigningKey == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SIGNING_KEY is required in production")
		}
		c.JWTSigningKey = devSigningKey
	}
	if c.CredentialPepper == "" {
		if c.IsProduction() {
			return fmt.Errorf("CREDENTIAL_PEPPER is required in production")
		}
		c.CredentialPepper = devPepper
	}
	c.Kafka.Brokers = strutil.DedupeAndTrim(c.Kafka.Brokers)
	if c.Ledger.Attempts < 1 {
		c.Ledger.Attempts = 1
	}
	return nil
}

func (c Server) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Server) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
