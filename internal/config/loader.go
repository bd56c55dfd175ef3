package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix      = "ROOMCHAT"
	envConfigDir   = "ROOMCHAT_CONFIG_DEFAULT_PATH"
	configFileName = "config.yaml"

	fileHeader = "# roomchat-server configuration. Durations are in nanoseconds here;\n" +
		"# ROOMCHAT_* env vars (e.g. ROOMCHAT_STORE_DRIVER) override any value.\n"
)

// Load resolves the configuration and the file it came from.
// Precedence: defaults < config file < ROOMCHAT_* env. A missing file is
// created with the defaults; failing to create it is logged, not fatal.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	defaults := Default()
	path := configPath(explicitPath)

	created, err := ensureFile(path, defaults)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("path", path).Msg("could not create default config, using defaults and env")
	case created:
		logger.Info().Str("path", path).Msg("created default config")
	}

	v := newViper(defaults)
	if err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return defaults, path, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, path, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

// newViper registers every key with its default so env vars reach nested values.
func newViper(cfg Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range map[string]any{
		"addr":                  cfg.Addr,
		"read_header_timeout":   cfg.ReadHeaderTimeout,
		"shutdown_timeout":      cfg.ShutdownTimeout,
		"log_level":             cfg.LogLevel,
		"log_format":            cfg.LogFormat,
		"max_message_bytes":     cfg.MaxMessageBytes,
		"rate_limit_per_minute": cfg.RateLimitPerMinute,

		"store.driver":       cfg.Store.Driver,
		"store.sqlite_path":  cfg.Store.SQLitePath,
		"store.redis_url":    cfg.Store.RedisURL,
		"store.redis_prefix": cfg.Store.RedisPrefix,

		"rooms.default_max_participants": cfg.Rooms.DefaultMaxParticipants,
		"rooms.max_participants_limit":   cfg.Rooms.MaxParticipantsLimit,

		"typing.ttl":            cfg.Typing.TTL,
		"typing.sweep_interval": cfg.Typing.SweepInterval,
	} {
		v.SetDefault(key, value)
	}
	return v
}

// configPath picks the explicit path, then $ROOMCHAT_CONFIG_DEFAULT_PATH,
// then the working directory.
func configPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if dir := os.Getenv(envConfigDir); dir != "" {
		return filepath.Join(dir, configFileName)
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, configFileName)
	}
	return configFileName
}

// ensureFile writes cfg to path unless a file already exists there.
func ensureFile(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(fileHeader), body...), 0o600); err != nil {
		return false, err
	}
	return true, nil
}
