package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/store"
	"github.com/vovakirdan/roomchat-server/internal/store/memory"
	"github.com/vovakirdan/roomchat-server/internal/store/redis"
	"github.com/vovakirdan/roomchat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/roomchat-server/internal/transport/http"
	"github.com/vovakirdan/roomchat-server/internal/utils"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	gateway         *store.Gateway
	log             *zerolog.Logger
}

// New opens the configured store, restores persisted state and builds the server.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	blobs, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	gateway := store.NewGateway(blobs)

	hub := core.NewHub(core.HubOptions{
		Gateway:                gateway,
		Logger:                 logger,
		NewRoomID:              utils.NewRoomID,
		DefaultMaxParticipants: cfg.Rooms.DefaultMaxParticipants,
		MaxParticipantsLimit:   cfg.Rooms.MaxParticipantsLimit,
		TypingTTL:              cfg.Typing.TTL,
		SweepInterval:          cfg.Typing.SweepInterval,
	})
	if err := hub.Restore(ctx); err != nil {
		_ = gateway.Close()
		return nil, fmt.Errorf("restore state: %w", err)
	}

	return &App{
		server:          transporthttp.NewServer(hub, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		gateway:         gateway,
		log:             logger,
	}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zerolog.Logger) (store.BlobStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", cfg.Driver).Str("db_path", cfg.SQLitePath).Msg("store opened")
		return st, nil
	case config.DriverRedis:
		st, err := redis.New(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", cfg.Driver).Str("prefix", cfg.RedisPrefix).Msg("store opened")
		return st, nil
	case config.DriverMemory:
		logger.Warn().Str("driver", cfg.Driver).Msg("state will not survive a restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Run starts the hub and the HTTP server and blocks until ctx is cancelled
// or the server fails. The hub outlives the server so in-flight events drain.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		a.hub.Run(hubCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	stopHub()
	<-hubDone
	a.cleanup()
	return err
}

// cleanup closes the store.
func (a *App) cleanup() {
	if a.gateway == nil {
		return
	}
	if err := a.gateway.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Info().Msg("store closed")
	}
}
