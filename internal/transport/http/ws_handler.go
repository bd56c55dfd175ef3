package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
	"github.com/vovakirdan/roomchat-server/internal/utils"
)

const rateWindow = time.Minute

// errEventsClosed ends the write loop once the hub has released the client.
var errEventsClosed = errors.New("client events closed")

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub             Hub
	log             *zerolog.Logger
	maxMessageBytes int64
	ratePerMinute   int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, maxMessageBytes int64, ratePerMinute int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:             hub,
		log:             logger,
		maxMessageBytes: maxMessageBytes,
		ratePerMinute:   ratePerMinute,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("ws accept failed")
		return
	}
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	client := core.NewClient(utils.NewID())
	connLog := h.log.With().Str("conn_id", client.ID).Logger()
	h.hub.RegisterClient(client)
	connLog.Debug().Str("remote", r.RemoteAddr).Msg("ws connected")

	// The first loop to return cancels the other through gctx.
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return h.readLoop(gctx, conn, client) })
	g.Go(func() error { return h.writeLoop(gctx, conn, client) })
	err = g.Wait()

	h.hub.UnregisterClient(client)

	status, reason, failure := closeStatus(err)
	if failure != nil {
		connLog.Warn().Err(failure).Msg("ws connection closed with error")
	}
	connLog.Debug().Int("status", int(status)).Msg("ws disconnected")
	conn.Close(status, reason)
}

// closeStatus classifies the error that ended a connection. Peer closes,
// EOF and cancellation are clean; anything else is reported as a failure.
func closeStatus(err error) (websocket.StatusCode, string, error) {
	switch {
	case err == nil, errors.Is(err, errEventsClosed), errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing", nil
	}
	switch s := websocket.CloseStatus(err); s {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return s, "closing", nil
	case -1:
		return websocket.StatusInternalError, err.Error(), err
	default:
		return s, err.Error(), err
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.ratePerMinute, rateWindow, nil)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow() {
			if err := writeError(ctx, conn, core.ErrCodeRateLimited, "too many events"); err != nil {
				return err
			}
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("malformed inbound")
			if err := writeError(ctx, conn, core.ErrCodeBadRequest, "invalid json"); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.log.Debug().Str("conn_id", client.ID).Str("event", inbound.Event).Str("code", protoErr.Code).Msg("rejected inbound")
			if err := wsjson.Write(ctx, conn, proto.Outbound{Event: proto.OutboundError, Data: protoErr}); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return errEventsClosed
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Event: proto.OutboundError,
		Data:  proto.Error{Code: code, Msg: msg},
	})
}
