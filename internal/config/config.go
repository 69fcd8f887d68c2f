package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/couchcryptid/weather-notification-service/internal/domain"
)

// Queue backends.
const (
	BackendSQS   = "sqs"
	BackendKafka = "kafka"
)

// Common holds settings shared by both stages.
type Common struct {
	QueueBackend    string        `envconfig:"QUEUE_BACKEND" default:"sqs"`
	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopic      string        `envconfig:"KAFKA_TOPIC" default:"weather-updates"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Fetcher holds the fetcher stage settings, populated from environment variables.
type Fetcher struct {
	Common

	WeatherAPIKey  string  `envconfig:"WEATHER_API_KEY" required:"true"`
	WeatherAPIURL  string  `envconfig:"WEATHER_API_URL" default:"https://api.openweathermap.org/data/2.5/weather"`
	Latitude       float64 `envconfig:"WEATHER_LAT" default:"46.7712"`
	Longitude      float64 `envconfig:"WEATHER_LON" default:"23.6236"`
	Schedule       string  `envconfig:"FETCH_SCHEDULE" default:"@hourly"`
	QueueURL       string  `envconfig:"QUEUE_URL"`
	MessageGroupID string  `envconfig:"MESSAGE_GROUP_ID" default:"weather-updates"`
}

// Processor holds the processor stage settings, populated from environment variables.
type Processor struct {
	Common

	TimestreamDatabase string `envconfig:"TIMESTREAM_DATABASE" required:"true"`
	TimestreamTable    string `envconfig:"TIMESTREAM_TABLE" required:"true"`
	DiscordWebhookURL  string `envconfig:"DISCORD_WEBHOOK_URL" required:"true"`

	NotifyBreakerFailures uint32        `envconfig:"NOTIFY_BREAKER_FAILURES" default:"5"`
	NotifyBreakerTimeout  time.Duration `envconfig:"NOTIFY_BREAKER_TIMEOUT" default:"30s"`

	KafkaGroupID       string        `envconfig:"KAFKA_GROUP_ID" default:"weather-processor"`
	BatchSize          int           `envconfig:"BATCH_SIZE" default:"10"`
	BatchFlushInterval time.Duration `envconfig:"BATCH_FLUSH_INTERVAL" default:"2s"`
}

// LoadFetcher reads the fetcher configuration. A missing required value is an
// error wrapping domain.ErrConfig.
func LoadFetcher() (*Fetcher, error) {
	loadDotEnv()

	var cfg Fetcher
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return &cfg, nil
}

// LoadProcessor reads the processor configuration. A missing required value is
// an error wrapping domain.ErrConfig.
func LoadProcessor() (*Processor, error) {
	loadDotEnv()

	var cfg Processor
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return &cfg, nil
}

// loadDotEnv populates the environment from a local .env file when one exists.
// Variables already set in the environment win.
func loadDotEnv() {
	_ = godotenv.Load()
}

func (c *Common) validate() error {
	c.QueueBackend = strings.ToLower(strings.TrimSpace(c.QueueBackend))
	switch c.QueueBackend {
	case BackendSQS:
	case BackendKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when QUEUE_BACKEND is kafka")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when QUEUE_BACKEND is kafka")
		}
	default:
		return fmt.Errorf("QUEUE_BACKEND must be sqs or kafka, got %q", c.QueueBackend)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Fetcher) validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.WeatherAPIKey) == "" {
		return errors.New("WEATHER_API_KEY must not be empty")
	}
	if c.QueueBackend == BackendSQS && c.QueueURL == "" {
		return errors.New("QUEUE_URL is required when QUEUE_BACKEND is sqs")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("WEATHER_LAT %g out of range", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("WEATHER_LON %g out of range", c.Longitude)
	}
	if c.MessageGroupID == "" {
		return errors.New("MESSAGE_GROUP_ID must not be empty")
	}
	return nil
}

func (c *Processor) validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}
	for _, kv := range []struct{ key, value string }{
		{"TIMESTREAM_DATABASE", c.TimestreamDatabase},
		{"TIMESTREAM_TABLE", c.TimestreamTable},
		{"DISCORD_WEBHOOK_URL", c.DiscordWebhookURL},
	} {
		if strings.TrimSpace(kv.value) == "" {
			return fmt.Errorf("%s must not be empty", kv.key)
		}
	}
	if c.NotifyBreakerFailures == 0 {
		return errors.New("NOTIFY_BREAKER_FAILURES must be positive")
	}
	if c.NotifyBreakerTimeout <= 0 {
		return errors.New("NOTIFY_BREAKER_TIMEOUT must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("BATCH_SIZE must be positive")
	}
	if c.BatchFlushInterval <= 0 {
		return errors.New("BATCH_FLUSH_INTERVAL must be positive")
	}
	return nil
}
