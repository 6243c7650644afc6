// Package config loads accessor configuration from the environment and builds
// the external store clients.
package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// MongoConfig holds connection settings for the document store.
type MongoConfig struct {
	URI      string `env:"MONGODB_URI"`
	Database string `env:"MONGODB_DATABASE" envDefault:"docstore"`
}

// RedisConfig holds connection settings for the event journal.
type RedisConfig struct {
	Host            string `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string `env:"REDIS_PORT" envDefault:"6379"`
	Password        string `env:"REDIS_PASSWORD"`
	Database        int    `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool   `env:"REDIS_ENABLE_TLS" envDefault:"false"`
	ConnMaxIdleTime string `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime string `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// GetAddr returns the host:port address of the Redis server.
func (c *RedisConfig) GetAddr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// RealtimeConfig holds configuration specific to live subscriptions.
type RealtimeConfig struct {
	// ChannelBuffer is the buffer size for subscriber event channels. Helps in
	// preventing blocking when broadcasting events if a subscriber is slow.
	ChannelBuffer int `env:"SUBSCRIPTION_CHANNEL_BUFFER" envDefault:"10"`

	// JournalEnabled turns on the Redis event journal so subscriptions can
	// resume after a restart.
	JournalEnabled bool `env:"EVENT_JOURNAL_ENABLED" envDefault:"false"`
}

// Config holds all configuration for the accessor.
type Config struct {
	Mongo    MongoConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
}

// Load loads configuration from a .env file (when present) and environment
// variables, and applies defaults.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(&cfg.Mongo); err != nil {
		return nil, fmt.Errorf("failed to load mongo configuration from environment: %w", err)
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, fmt.Errorf("failed to load redis configuration from environment: %w", err)
	}
	if err := env.Parse(&cfg.Realtime); err != nil {
		return nil, fmt.Errorf("failed to load realtime configuration from environment: %w", err)
	}

	if cfg.Mongo.URI == "" {
		return nil, errors.New("MONGODB_URI environment variable is not set")
	}
	if cfg.Realtime.ChannelBuffer <= 0 {
		cfg.Realtime.ChannelBuffer = 10
	}

	return cfg, nil
}

// Default returns a Config with default values for local development.
func Default() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "docstore",
		},
		Redis: RedisConfig{
			Host:            "localhost",
			Port:            "6379",
			Database:        0,
			MaxRetries:      3,
			PoolSize:        10,
			MinIdleConns:    2,
			ConnMaxIdleTime: "30m",
			ConnMaxLifetime: "1h",
		},
		Realtime: RealtimeConfig{
			ChannelBuffer: 10,
		},
	}
}
