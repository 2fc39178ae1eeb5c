package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the publisher service
type Config struct {
	Database DatabaseConfig
	Telegram TelegramConfig
	Kafka    KafkaConfig
	Dispatch DispatchConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// GetDSN builds the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// TelegramConfig holds bot API and MTProto configuration
type TelegramConfig struct {
	BotToken   string
	APIID      int
	APIHash    string
	SessionDir string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers        []string
	TopicCompleted string
	TopicFailed    string
}

// DispatchConfig holds dispatch engine tuning
type DispatchConfig struct {
	// BatchSize caps how many due tasks one dispatch cycle may pick up.
	BatchSize int

	// Interval is the pause between dispatch cycles.
	Interval time.Duration

	// StuckThreshold is how long a task may sit in processing before the
	// reclaimer considers it orphaned.
	StuckThreshold time.Duration

	// MaxAttempts is the retry ceiling; a task reaching it is failed.
	MaxAttempts int

	// WindowStartHour and WindowEndHour bound the daily publish window (UTC).
	WindowStartHour int
	WindowEndHour   int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	apiID, err := strconv.Atoi(getEnv("TELEGRAM_API_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
	}

	batchSize, err := strconv.Atoi(getEnv("DISPATCH_BATCH_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_BATCH_SIZE: %w", err)
	}

	interval, err := time.ParseDuration(getEnv("DISPATCH_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_INTERVAL: %w", err)
	}

	stuckThreshold, err := time.ParseDuration(getEnv("DISPATCH_STUCK_THRESHOLD", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_STUCK_THRESHOLD: %w", err)
	}

	maxAttempts, err := strconv.Atoi(getEnv("DISPATCH_MAX_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_MAX_ATTEMPTS: %w", err)
	}

	windowStart, err := strconv.Atoi(getEnv("PUBLISH_WINDOW_START_HOUR", "9"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUBLISH_WINDOW_START_HOUR: %w", err)
	}

	windowEnd, err := strconv.Atoi(getEnv("PUBLISH_WINDOW_END_HOUR", "21"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUBLISH_WINDOW_END_HOUR: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "publisher"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
			APIID:      apiID,
			APIHash:    getEnv("TELEGRAM_API_HASH", ""),
			SessionDir: getEnv("TELEGRAM_SESSION_DIR", "./sessions"),
		},
		Kafka: KafkaConfig{
			Brokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9093"), ","),
			TopicCompleted: getEnv("KAFKA_TOPIC_PUBLICATION_COMPLETED", "publication.completed"),
			TopicFailed:    getEnv("KAFKA_TOPIC_PUBLICATION_FAILED", "publication.failed"),
		},
		Dispatch: DispatchConfig{
			BatchSize:       batchSize,
			Interval:        interval,
			StuckThreshold:  stuckThreshold,
			MaxAttempts:     maxAttempts,
			WindowStartHour: windowStart,
			WindowEndHour:   windowEnd,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "publisher"),
			Port: getEnv("SERVICE_PORT", "8085"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Dispatch.BatchSize <= 0 {
		return fmt.Errorf("DISPATCH_BATCH_SIZE must be positive")
	}

	if c.Dispatch.MaxAttempts <= 0 {
		return fmt.Errorf("DISPATCH_MAX_ATTEMPTS must be positive")
	}

	if c.Dispatch.WindowStartHour < 0 || c.Dispatch.WindowStartHour > 23 {
		return fmt.Errorf("PUBLISH_WINDOW_START_HOUR must be within 0-23")
	}

	if c.Dispatch.WindowEndHour <= c.Dispatch.WindowStartHour || c.Dispatch.WindowEndHour > 23 {
		return fmt.Errorf("PUBLISH_WINDOW_END_HOUR must be after the start hour and within 0-23")
	}

	return nil
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Database *DatabaseConfig
	Telegram *TelegramConfig
	Kafka    *KafkaConfig
	Dispatch *DispatchConfig
	Logging  *LoggingConfig
	Service  *ServiceConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Database: &cfg.Database,
		Telegram: &cfg.Telegram,
		Kafka:    &cfg.Kafka,
		Dispatch: &cfg.Dispatch,
		Logging:  &cfg.Logging,
		Service:  &cfg.Service,
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
