package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string        `mapstructure:"log_format" yaml:"log_format"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Rooms  RoomsConfig  `mapstructure:"rooms" yaml:"rooms"`
	Typing TypingConfig `mapstructure:"typing" yaml:"typing"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	RedisURL    string `mapstructure:"redis_url" yaml:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

// RoomsConfig bounds room capacity.
type RoomsConfig struct {
	DefaultMaxParticipants int `mapstructure:"default_max_participants" yaml:"default_max_participants"`
	// MaxParticipantsLimit of 0 leaves capacity unbounded.
	MaxParticipantsLimit int `mapstructure:"max_participants_limit" yaml:"max_participants_limit"`
}

// TypingConfig controls server-side typing expiry. A zero TTL disables it.
type TypingConfig struct {
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		MaxMessageBytes:    64 << 10,
		RateLimitPerMinute: 300,
		Store: StoreConfig{
			Driver:      DriverSQLite,
			SQLitePath:  "roomchat.db",
			RedisURL:    "redis://localhost:6379/0",
			RedisPrefix: "roomchat:",
		},
		Rooms: RoomsConfig{
			DefaultMaxParticipants: 2,
		},
		Typing: TypingConfig{
			TTL:           3 * time.Second,
			SweepInterval: time.Second,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
	if other.Store.SQLitePath != "" {
		c.Store.SQLitePath = other.Store.SQLitePath
	}
	if other.Store.RedisURL != "" {
		c.Store.RedisURL = other.Store.RedisURL
	}
	if other.Store.RedisPrefix != "" {
		c.Store.RedisPrefix = other.Store.RedisPrefix
	}
	if other.Rooms.DefaultMaxParticipants != 0 {
		c.Rooms.DefaultMaxParticipants = other.Rooms.DefaultMaxParticipants
	}
	if other.Rooms.MaxParticipantsLimit != 0 {
		c.Rooms.MaxParticipantsLimit = other.Rooms.MaxParticipantsLimit
	}
	if other.Typing.TTL != 0 {
		c.Typing.TTL = other.Typing.TTL
	}
	if other.Typing.SweepInterval != 0 {
		c.Typing.SweepInterval = other.Typing.SweepInterval
	}
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for driver %q", c.Store.Driver)
		}
	case DriverRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for driver %q", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Rooms.DefaultMaxParticipants < 2 {
		return fmt.Errorf("rooms.default_max_participants must be at least 2, got %d", c.Rooms.DefaultMaxParticipants)
	}
	if c.Rooms.MaxParticipantsLimit < 0 {
		return fmt.Errorf("rooms.max_participants_limit must not be negative, got %d", c.Rooms.MaxParticipantsLimit)
	}
	if c.Rooms.MaxParticipantsLimit > 0 && c.Rooms.MaxParticipantsLimit < c.Rooms.DefaultMaxParticipants {
		return fmt.Errorf("rooms.max_participants_limit %d is below the default capacity %d",
			c.Rooms.MaxParticipantsLimit, c.Rooms.DefaultMaxParticipants)
	}
	if c.Typing.TTL < 0 || c.Typing.SweepInterval < 0 {
		return fmt.Errorf("typing durations must not be negative")
	}
	return nil
}
