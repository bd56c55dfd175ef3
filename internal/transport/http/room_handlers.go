package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

// RoomHandlers serves read-only views of hub state.
type RoomHandlers struct {
	hub Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{hub: hub, log: logger}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RoomsResponse lists all rooms.
type RoomsResponse struct {
	Rooms []proto.RoomSummary `json:"rooms"`
}

// MessagesResponse is a room's full history.
type MessagesResponse struct {
	RoomID   string          `json:"roomId"`
	Messages []proto.Message `json:"messages"`
}

// StatsResponse counts hub state.
type StatsResponse struct {
	Rooms       int `json:"rooms"`
	Users       int `json:"users"`
	Connections int `json:"connections"`
}

// ListRooms returns every room in creation order.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.hub.Rooms(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, RoomsResponse{Rooms: summariesToProto(rooms)})
}

// GetRoom returns a room snapshot.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	info, err := h.hub.RoomInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, roomInfoToProto(&info))
}

// GetMessages returns the full history of a room.
// GET /api/rooms/:id/messages
func (h *RoomHandlers) GetMessages(c *gin.Context) {
	roomID := c.Param("id")
	msgs, err := h.hub.History(c.Request.Context(), roomID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessagesResponse{RoomID: roomID, Messages: messagesToProto(msgs)})
}

// GetUserRooms partitions rooms from one user's point of view.
// GET /api/users/:id/rooms
func (h *RoomHandlers) GetUserRooms(c *gin.Context) {
	list, err := h.hub.RoomList(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, roomListToProto(&list))
}

// Stats returns room, user and connection counts.
// GET /api/stats
func (h *RoomHandlers) Stats(c *gin.Context) {
	s, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Rooms: s.Rooms, Users: s.Users, Connections: s.Connections})
}

func (h *RoomHandlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
	case errors.Is(err, core.ErrHubStopped):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "server shutting down"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("hub query failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
