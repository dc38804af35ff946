package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ChatConfig holds the terminal client settings read from
// SKILLNEXUS_CHAT_* variables.
type ChatConfig struct {
	ServerURL string `envconfig:"server_url" default:"http://localhost:8080" validate:"required,url"`
	Token     string `envconfig:"token" required:"true" validate:"required"`
	UserID    string `envconfig:"user_id" required:"true" validate:"required"`
	LogLevel  string `envconfig:"log_level" default:"error" validate:"oneof=debug info warn error"`
}

// LoadChat reads the terminal client configuration.
func LoadChat() (*ChatConfig, error) {
	_ = godotenv.Load()

	var cfg ChatConfig
	if err := envconfig.Process(envPrefix+"_chat", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
