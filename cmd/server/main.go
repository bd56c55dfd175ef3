package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-server/internal/app"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/log"
)

type options struct {
	configPath     string
	envFile        string
	overrides      config.Config
	logLevel       string
	logFormat      string
	storeDriver    string
	sqlitePath     string
	redisURL       string
	noTypingExpiry bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "roomchat-server",
		Short:         "Real-time multi-room chat server over WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (created with defaults when missing)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.DurationVar(&opts.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&opts.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log output format (console, json)")
	flags.StringVar(&opts.storeDriver, "store-driver", "", "persistence backend (sqlite, redis, memory)")
	flags.StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database file")
	flags.StringVar(&opts.redisURL, "redis-url", "", "Redis connection URL")
	flags.BoolVar(&opts.noTypingExpiry, "no-typing-expiry", false, "disable server-side typing expiry")

	return cmd
}

func run(ctx context.Context, opts options) error {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", opts.envFile, err)
	}

	bootLogger := log.New(
		firstNonEmpty(opts.logLevel, os.Getenv("ROOMCHAT_LOG_LEVEL")),
		firstNonEmpty(opts.logFormat, os.Getenv("ROOMCHAT_LOG_FORMAT")),
	)
	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		bootLogger.Error().Err(err).Str("path", path).Msg("failed to load config")
		return err
	}

	overrides := opts.overrides
	overrides.LogLevel = opts.logLevel
	overrides.LogFormat = opts.logFormat
	overrides.Store.Driver = opts.storeDriver
	overrides.Store.SQLitePath = opts.sqlitePath
	overrides.Store.RedisURL = opts.redisURL
	cfg.UpdateFrom(overrides)
	if opts.noTypingExpiry {
		cfg.Typing.TTL = 0
	}
	if err := cfg.Validate(); err != nil {
		bootLogger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize app")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Str("config", path).Str("driver", cfg.Store.Driver).Msg("starting roomchat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
