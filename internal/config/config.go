package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	Port             string
	DBConn           string
	LogLevel         string
	JWTSecret        string
	ProcessorURL     string
	ProcessorKey     string
	ProcessorSecret  string
	ProcessorTimeout time.Duration
	PollSchedule     string
	Currency         string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SenderEmail      string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=marketplace sslmode=disable"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		ProcessorURL:    getEnv("PROCESSOR_URL", "https://api-sandbox.achdirect.example.com/v1"),
		ProcessorKey:    getEnv("PROCESSOR_KEY", "sandbox-key"),
		ProcessorSecret: getEnv("PROCESSOR_SECRET", "sandbox-secret"),
		PollSchedule:    getEnv("TRANSFER_POLL_SCHEDULE", "@every 1m"),
		Currency:        getEnv("TRANSFER_CURRENCY", "USD"),
		SMTPHost:        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:        getEnv("SMTP_PORT", "25"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "no-reply@thorplatform.example.com"),
	}

	timeout, err := time.ParseDuration(getEnv("PROCESSOR_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROCESSOR_TIMEOUT: %w", err)
	}
	cfg.ProcessorTimeout = timeout

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.ProcessorURL == "" {
		return nil, fmt.Errorf("PROCESSOR_URL is required")
	}
	if cfg.ProcessorKey == "" || cfg.ProcessorSecret == "" {
		return nil, fmt.Errorf("PROCESSOR_KEY and PROCESSOR_SECRET are required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
