package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Game      GameConfig
	Store     StoreConfig
	Generator GeneratorConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Env  string `env:"ENV" envDefault:"development"` // "development" or "production"
}

// GameConfig holds game-related configuration
type GameConfig struct {
	RoundCap             int           `env:"ROUND_CAP" envDefault:"6"`
	WipePolicy           string        `env:"TOTAL_WIPE_POLICY" envDefault:"evil_wins"`
	EarlyRoundThreshold  int           `env:"EARLY_ROUND_THRESHOLD" envDefault:"2"`
	AgentTimeout         time.Duration `env:"AGENT_TIMEOUT" envDefault:"10s"`
	BackgroundTimeout    time.Duration `env:"BACKGROUND_TIMEOUT" envDefault:"5s"`
	SettleTimeout        time.Duration `env:"SETTLE_TIMEOUT" envDefault:"8s"`
	FanOutLimit          int           `env:"FAN_OUT_LIMIT" envDefault:"4"`
	SoftLimitPerPlayer   float64       `env:"SOFT_LIMIT_PER_PLAYER" envDefault:"2.5"`
	HardLimitExtra       int           `env:"HARD_LIMIT_EXTRA" envDefault:"3"`
	SessionStaleDuration time.Duration `env:"SESSION_STALE_DURATION" envDefault:"2h"`
}

// StoreConfig holds snapshot persistence configuration. An empty DSN
// selects the in-process store.
type StoreConfig struct {
	DSN string        `env:"STORE_DSN" envDefault:""`
	TTL time.Duration `env:"STORE_TTL" envDefault:"24h"`
}

// GeneratorConfig holds text-generation configuration. An empty API key
// selects the offline generator.
type GeneratorConfig struct {
	APIKey string `env:"GEMINI_API_KEY" envDefault:""`
	Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load parses configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Addr returns the server address in host:port format
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
