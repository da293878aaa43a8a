package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds server configuration values.
type Config struct {
	// Addr is the newline-framed TCP listener.
	Addr string `mapstructure:"addr" yaml:"addr" validate:"required,hostname_port"`
	// HTTPAddr serves /ws, /health and /api. Empty disables it.
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr" validate:"omitempty,hostname_port"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error disabled off"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	MaxLineLength     int           `mapstructure:"max_line_length" yaml:"max_line_length" validate:"gte=64"`
	OutboxSize        int           `mapstructure:"outbox_size" yaml:"outbox_size" validate:"gte=1"`
	// PromptTimeout expires unanswered confirmation prompts. Zero waits forever.
	PromptTimeout time.Duration `mapstructure:"prompt_timeout" yaml:"prompt_timeout" validate:"gte=0"`
	// WSRateLimit caps inbound WebSocket lines per minute. Zero disables it.
	WSRateLimit int `mapstructure:"ws_rate_limit" yaml:"ws_rate_limit" validate:"gte=0"`
	// Console enables the administrative console on stdin.
	Console bool `mapstructure:"console" yaml:"console"`
}

var validate = validator.New()

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8888",
		HTTPAddr:          ":8080",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxLineLength:     4096,
		OutboxSize:        64,
		Console:           true,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Console is left alone since false is indistinguishable from unset.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.MaxLineLength != 0 {
		c.MaxLineLength = other.MaxLineLength
	}
	if other.OutboxSize != 0 {
		c.OutboxSize = other.OutboxSize
	}
	if other.PromptTimeout != 0 {
		c.PromptTimeout = other.PromptTimeout
	}
	if other.WSRateLimit != 0 {
		c.WSRateLimit = other.WSRateLimit
	}
}
