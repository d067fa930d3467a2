// internal/common/config/config.go
package config

import (
	"fmt"

	"muse-workers/internal/common/resilient"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	GenAI    GenAIConfig             `mapstructure:"genai"`
	Stylist  StylistConfig           `mapstructure:"stylist"`
	Retail   RetailConfig            `mapstructure:"retail"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Server   ServerConfig            `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// AppID scopes every stored record, so several deployments can share one database.
	AppID string `mapstructure:"app_id"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	// Bootstrap runs the idempotent schema DDL on startup.
	Bootstrap bool `mapstructure:"bootstrap"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// GenAIConfig configures the generateContent endpoint and its retry policy.
type GenAIConfig struct {
	BaseURL           string   `mapstructure:"base_url"`
	Model             string   `mapstructure:"model"`
	APIKey            string   `mapstructure:"api_key"`
	Timeout           int      `mapstructure:"timeout"` // milliseconds, per attempt
	MaxRetries        int      `mapstructure:"max_retries"`
	InitialBackoffMs  int      `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int      `mapstructure:"max_backoff_ms"`
	RetryClientErrors bool     `mapstructure:"retry_client_errors"`
	Extraction        string   `mapstructure:"extraction"`
	MaxResponseBytes  int64    `mapstructure:"max_response_bytes"`
	Temperature       *float64 `mapstructure:"temperature"`
}

func (g GenAIConfig) Policy() resilient.Policy {
	return resilient.Policy{
		MaxRetries:        g.MaxRetries,
		InitialBackoff:    GetDuration(g.InitialBackoffMs),
		MaxBackoff:        GetDuration(g.MaxBackoffMs),
		RetryClientErrors: g.RetryClientErrors,
	}
}

type StylistConfig struct {
	IdentifyCacheSize int `mapstructure:"identify_cache_size"`
	LookFeedSize      int `mapstructure:"look_feed_size"`
	LookFeedTTL       int `mapstructure:"look_feed_ttl"` // milliseconds
	ChatHistoryTurns  int `mapstructure:"chat_history_turns"`
	MaxTripDays       int `mapstructure:"max_trip_days"`
}

type RetailConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}
