package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the booking engine.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Payment  PaymentConfig
	Saga     SagaConfig
	Locks    LockConfig
}

type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host string
	Port string
	DB   int
}

type RabbitMQConfig struct {
	URL string
}

// PaymentConfig points at the external payment gateway service.
type PaymentConfig struct {
	BaseURL string
}

// SagaConfig tunes the payment saga's business-level retry and the
// gateway status poll.
type SagaConfig struct {
	MaxRetries      int
	PollInterval    time.Duration
	PollMaxAttempts int
}

type LockConfig struct {
	SeatLockTTL time.Duration
}

// Load reads configuration from environment variables, with a .env file as
// fallback for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "booking_engine"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
			DB:   getEnvInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL: getEnv("RABBITMQ_URL", "amqp://localhost:5672"),
		},
		Payment: PaymentConfig{
			BaseURL: getEnv("PAYMENT_SERVICE_URL", "http://localhost:3004"),
		},
		Saga: SagaConfig{
			MaxRetries:      getEnvInt("PAYMENT_MAX_RETRIES", 3),
			PollInterval:    getEnvDuration("PAYMENT_POLL_INTERVAL", 2*time.Second),
			PollMaxAttempts: getEnvInt("PAYMENT_POLL_MAX_ATTEMPTS", 10),
		},
		Locks: LockConfig{
			SeatLockTTL: getEnvDuration("SEAT_LOCK_TTL", 10*time.Minute),
		},
	}

	if cfg.Saga.MaxRetries < 0 {
		return nil, fmt.Errorf("PAYMENT_MAX_RETRIES must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
