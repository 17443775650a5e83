package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/loanpilot/loanpilot/pkg/kafka"
	"github.com/loanpilot/loanpilot/pkg/postgres"
)

// ExternalService holds the connection settings for an upstream HTTP dependency.
type ExternalService struct {
	BaseURL string
	Timeout time.Duration
}

// OpenAIConfig holds the settings for the hosted language model used to phrase
// replies. An empty APIKey disables the model and the rule-based generator is
// used instead.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Config struct {
	HTTPPort int

	DB    postgres.Config
	Kafka kafka.Config

	RedisAddr     string
	RedisPassword string

	CRM      ExternalService
	Bureau   ExternalService
	Notifier ExternalService

	OpenAI OpenAIConfig

	EventTopic      string
	DocumentBaseURL string

	LogLevel  string
	LogFormat string

	ServiceName string
}

func (c Config) Validate() {
	if c.DB.Password == "" {
		panic("DB_PASSWORD environment variable is required")
	}
}

func Load() Config {
	return Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		DB: postgres.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "loanpilot"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "loanpilot"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Kafka: kafka.Config{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
		},
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CRM: ExternalService{
			BaseURL: getEnv("CRM_BASE_URL", ""),
			Timeout: getEnvDuration("CRM_TIMEOUT", 5*time.Second),
		},
		Bureau: ExternalService{
			BaseURL: getEnv("BUREAU_BASE_URL", ""),
			Timeout: getEnvDuration("BUREAU_TIMEOUT", 5*time.Second),
		},
		Notifier: ExternalService{
			BaseURL: getEnv("NOTIFIER_BASE_URL", ""),
			Timeout: getEnvDuration("NOTIFIER_TIMEOUT", 5*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		EventTopic:      getEnv("EVENT_TOPIC", "origination-events"),
		DocumentBaseURL: getEnv("DOCUMENT_BASE_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		ServiceName:     "loan-orchestrator",
	}
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
