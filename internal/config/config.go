// Package config loads the server configuration from the environment and
// holds the constants shared by the messaging components.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "skillnexus"

const (
	// MaxContentLength is the upper bound of a message body, in characters.
	MaxContentLength = 1000

	// TypingDebounce is how long a composer stays "typing" after the last keystroke.
	TypingDebounce = 2 * time.Second
	// TypingAutoClear hides a remote typing indicator that never received its stop signal.
	TypingAutoClear = 5 * time.Second

	ReconnectAttempts = 5
	ReconnectDelay    = 1 * time.Second
	ConnectTimeout    = 10 * time.Second
)

// Config holds the server settings read from SKILLNEXUS_* variables.
type Config struct {
	Host    string `envconfig:"host"`
	Port    int    `envconfig:"port" default:"8080" validate:"min=1,max=65535"`
	Storage string `envconfig:"storage" default:"postgres" validate:"oneof=postgres memory"`

	DatabaseDSN string `envconfig:"database_dsn" default:"host=localhost user=user password=password dbname=skillnexus port=5432 sslmode=disable"`

	RedisAddr     string `envconfig:"redis_addr"`
	RedisPassword string `envconfig:"redis_password"`
	RedisDB       int    `envconfig:"redis_db" default:"0" validate:"min=0"`

	JWTSecret string        `envconfig:"jwt_secret" required:"true" validate:"required,min=16"`
	TokenTTL  time.Duration `envconfig:"token_ttl" default:"72h" validate:"min=1m"`

	AllowedOrigin string `envconfig:"allowed_origin" default:"http://localhost:5173"`

	LogLevel  string `envconfig:"log_level" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"log_format" default:"text" validate:"oneof=text json"`

	SendBuffer int `envconfig:"send_buffer" default:"256" validate:"min=1"`
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads an optional .env file, processes the environment and validates
// the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
