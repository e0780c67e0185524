package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// DevJWTSigningKey is the fallback key for local runs. Production refuses it.
const DevJWTSigningKey = "dev-secret-key-change-in-production"

// Config is the full process configuration, decoded from the environment.
type Config struct {
	Server   Server
	Auth     Auth
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Limits   Limits
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"GRAMEENGO_ADDR,default=:8080"`
	Environment     string        `env:"GRAMEENGO_ENV,default=development"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	LogFormat       string        `env:"LOG_FORMAT,default=json"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Auth configures bearer token validation against the identity provider.
type Auth struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY,default=dev-secret-key-change-in-production"`
	Issuer        string `env:"JWT_ISSUER,default=grameengo-identity"`
	Audience      string `env:"JWT_AUDIENCE,default=grameengo-api"`
}

// Database selects postgres storage when URL is set; otherwise in-memory.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
	TxTimeout       time.Duration `env:"DB_TX_TIMEOUT,default=5s"`
}

// RedisConfig enables the catalog cache when URL is set.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE,default=10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS,default=2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT,default=5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT,default=3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT,default=3s"`
	CatalogTTL   time.Duration `env:"CATALOG_CACHE_TTL,default=10m"`
}

// Kafka enables the outbox relay when Brokers is set.
type Kafka struct {
	Brokers        string        `env:"KAFKA_BROKERS"`
	Topic          string        `env:"KAFKA_TOPIC,default=grameengo.application-events"`
	Partitions     int           `env:"KAFKA_TOPIC_PARTITIONS,default=3"`
	OutboxInterval time.Duration `env:"OUTBOX_POLL_INTERVAL,default=2s"`
	OutboxBatch    int           `env:"OUTBOX_BATCH_SIZE,default=100"`
}

// Limits throttles application submissions per actor.
type Limits struct {
	ApplicationsPerMinute int `env:"APPLICATIONS_PER_MINUTE,default=10"`
	ApplicationsBurst     int `env:"APPLICATIONS_BURST,default=5"`
}

// BrokerList splits the comma-separated broker list.
func (k Kafka) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (s Server) IsProduction() bool { return s.Environment == "production" }

// Load reads optional .env files, then decodes the environment. Missing env
// files are skipped; variables already set in the process win.
func Load(envFiles ...string) (*Config, error) {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects combinations that are unsafe or unusable.
func (c *Config) Validate() error {
	if c.Server.IsProduction() && c.Auth.JWTSigningKey == DevJWTSigningKey {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	if len(c.Auth.JWTSigningKey) < 16 {
		return errors.New("JWT_SIGNING_KEY must be at least 16 bytes")
	}
	if c.Limits.ApplicationsPerMinute <= 0 || c.Limits.ApplicationsBurst <= 0 {
		return errors.New("application rate limits must be positive")
	}
	if c.Kafka.Brokers != "" && c.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}
