package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"consilium/pkg/errors"
)

type Config struct {
	App           AppConfig
	Workflow      WorkflowConfig
	AI            AIConfig
	Memory        MemoryConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ClickHouse    ClickHouseConfig
	Feeds         FeedsConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"consilium"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// WorkflowConfig caps the decision workflow: debate rounds, analyst fan-out,
// per-agent retry budget.
type WorkflowConfig struct {
	MaxDebateRounds int           `envconfig:"WORKFLOW_MAX_DEBATE_ROUNDS" default:"1"`
	MaxRiskRounds   int           `envconfig:"WORKFLOW_MAX_RISK_ROUNDS" default:"1"`
	Analysts        []string      `envconfig:"WORKFLOW_ANALYSTS" default:"market,news,social,fundamentals"`
	RetryLimit      int           `envconfig:"WORKFLOW_RETRY_LIMIT" default:"3"`
	RetryBackoff    time.Duration `envconfig:"WORKFLOW_RETRY_BACKOFF" default:"2s"`
}

type AIConfig struct {
	APIKey            string        `envconfig:"OPENAI_API_KEY"`
	BaseURL           string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	Model             string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	Timeout           time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	RequestsPerMinute int           `envconfig:"AI_REQUESTS_PER_MINUTE" default:"500"`
	RateLimiter       string        `envconfig:"AI_RATE_LIMITER" default:"local"` // local | redis
	RetryAttempts     int           `envconfig:"AI_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff      time.Duration `envconfig:"AI_RETRY_BACKOFF" default:"1s"`
	EmbeddingModel    string        `envconfig:"AI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
}

type MemoryConfig struct {
	K       int    `envconfig:"MEMORY_K" default:"2"`
	Backend string `envconfig:"MEMORY_BACKEND" default:"memory"` // memory | postgres
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"consilium"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"consilium"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"market"`
}

type FeedsConfig struct {
	NewsBaseURL   string        `envconfig:"NEWS_BASE_URL"`
	NewsAPIKey    string        `envconfig:"NEWS_API_KEY"`
	SocialBaseURL string        `envconfig:"SOCIAL_BASE_URL"`
	FetchTimeout  time.Duration `envconfig:"FEEDS_TIMEOUT" default:"30s"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
