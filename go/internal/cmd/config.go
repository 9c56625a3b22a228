package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/aviator/go/internal/round"
)

// Config is the fully parsed engine configuration.
type Config struct {
	Port     string
	Database DatabaseConfig
	NATS     NATSConfig
	Round    round.Config
	// Curve selects the multiplier progression: "step" or "expo".
	Curve string
	// Step is the per-tick increment for the step curve.
	Step string
	// ExpoRate is the growth exponent per second for the expo curve.
	ExpoRate float64
	// InMemory runs without Postgres; balances and rounds live in memory.
	InMemory bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the Postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type NATSConfig struct {
	Enabled bool
	URL     string
}

// configFile is the yaml shape. Durations are strings ("10s", "100ms") and
// converted after parsing.
type configFile struct {
	Port  string `yaml:"port"`
	Round struct {
		Countdown        string  `yaml:"countdown"`
		TickInterval     string  `yaml:"tick_interval"`
		Cooldown         string  `yaml:"cooldown"`
		MaxRoundDuration string  `yaml:"max_round_duration"`
		HistorySize      int     `yaml:"history_size"`
		Curve            string  `yaml:"curve"`
		Step             string  `yaml:"step"`
		ExpoRate         float64 `yaml:"expo_rate"`
	} `yaml:"round"`
	NATS struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"nats"`
	InMemory bool `yaml:"in_memory"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// loadConfig builds the config from defaults, an optional yaml file and
// environment overrides, in that order.
func loadConfig(path string) (*Config, error) {
	config := &Config{
		Port: "8080",
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "aviator"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     nats.DefaultURL,
		},
		Round:    round.DefaultConfig(),
		Curve:    "step",
		Step:     "0.1",
		ExpoRate: 0.06,
	}

	if path != "" {
		if err := applyFile(config, path); err != nil {
			return nil, err
		}
	}

	config.Port = getEnv("PORT", config.Port)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.NATS.Enabled = getEnvAsBool("NATS_ENABLED", config.NATS.Enabled)
	config.InMemory = getEnvAsBool("IN_MEMORY", config.InMemory)

	return config, nil
}

func applyFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if file.Port != "" {
		config.Port = file.Port
	}
	if file.NATS.URL != "" {
		config.NATS.URL = file.NATS.URL
	}
	config.NATS.Enabled = file.NATS.Enabled
	config.InMemory = file.InMemory

	if err := applyDuration(&config.Round.Countdown, file.Round.Countdown); err != nil {
		return fmt.Errorf("round.countdown: %w", err)
	}
	if err := applyDuration(&config.Round.TickInterval, file.Round.TickInterval); err != nil {
		return fmt.Errorf("round.tick_interval: %w", err)
	}
	if err := applyDuration(&config.Round.Cooldown, file.Round.Cooldown); err != nil {
		return fmt.Errorf("round.cooldown: %w", err)
	}
	if err := applyDuration(&config.Round.MaxRoundDuration, file.Round.MaxRoundDuration); err != nil {
		return fmt.Errorf("round.max_round_duration: %w", err)
	}
	if file.Round.HistorySize > 0 {
		config.Round.HistorySize = file.Round.HistorySize
	}
	if file.Round.Curve != "" {
		config.Curve = file.Round.Curve
	}
	if file.Round.Step != "" {
		config.Step = file.Round.Step
	}
	if file.Round.ExpoRate > 0 {
		config.ExpoRate = file.Round.ExpoRate
	}
	return nil
}

func applyDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}
