package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
)

const wsPath = "/ws"

// Hub is the part of core.Hub the transport depends on.
type Hub interface {
	RegisterClient(c *core.Client)
	UnregisterClient(c *core.Client)

	RoomInfo(ctx context.Context, roomID string) (core.RoomInfo, error)
	RoomList(ctx context.Context, userID string) (core.RoomList, error)
	Rooms(ctx context.Context) ([]core.RoomSummary, error)
	History(ctx context.Context, roomID string) ([]core.Message, error)
	Stats(ctx context.Context) (core.Stats, error)
}

// NewServer builds an HTTP server with the WebSocket endpoint and read-only REST routes.
func NewServer(hub Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/health", healthHandler)
	router.GET(wsPath, gin.WrapH(NewWSHandler(hub, cfg.MaxMessageBytes, cfg.RateLimitPerMinute, logger)))

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	{
		api.GET("/stats", rooms.Stats)
		api.GET("/rooms", rooms.ListRooms)
		api.GET("/rooms/:id", rooms.GetRoom)
		api.GET("/rooms/:id/messages", rooms.GetMessages)
		api.GET("/users/:id/rooms", rooms.GetUserRooms)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
