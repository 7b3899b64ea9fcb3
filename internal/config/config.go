package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration shared by the api, worker, consumer and leavectl binaries.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	HTTPPort         string        `envconfig:"PORT" default:"3000"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10s"`
	HTTPIdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"hr_leave"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBRetries  int    `envconfig:"DB_MAX_RETRIES" default:"5"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaConsumerGroup string   `envconfig:"KAFKA_CONSUMER_GROUP" default:"hr-leave"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	RBACReloadInterval time.Duration `envconfig:"RBAC_RELOAD_INTERVAL" default:"5m"`

	PolicyFile     string        `envconfig:"LEAVE_POLICY_FILE" default:"config/leave_policy.yaml"`
	PolicyCacheTTL time.Duration `envconfig:"LEAVE_POLICY_CACHE_TTL" default:"10m"`

	// Companies whose year-end carry-over is scheduled by the worker.
	CarryOverCompanies []string `envconfig:"CARRY_OVER_COMPANIES"`
	CarryOverCron      string   `envconfig:"CARRY_OVER_CRON" default:"0 1 1 1 *"`
	JobConcurrency     int      `envconfig:"JOB_CONCURRENCY" default:"5"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"3s"`

	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure   bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
	ServiceName    string `envconfig:"OTEL_SERVICE_NAME" default:"hr-leave"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`

	RateLimitPerSecond float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst     int     `envconfig:"RATE_LIMIT_BURST" default:"10"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
