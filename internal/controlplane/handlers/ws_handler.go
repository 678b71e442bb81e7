package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsMaxMessageSize = 4 << 10
	wsResultBuffer   = 16
)

// WebSocket answers GET /v1/ws. The socket opens with the same snapshot as
// the SSE feed, then carries change messages. Clients may send subscribe
// (resend the snapshot), action and ping messages.
func (h *FeedHandler) WebSocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		c.Abort()
		c.Error(fmt.Errorf("websocket accept failed: %w", err))
		return
	}
	conn.SetReadLimit(wsMaxMessageSize)

	connID := uuid.NewString()[:8]
	slog.Debug("ws feed open", "connId", connID, "ip", c.ClientIP())

	err = h.serveSocket(c.Request.Context(), conn)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure, websocket.CloseStatus(err) == websocket.StatusGoingAway:
	default:
		slog.Warn("ws feed", "connId", connID, "error", err)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	slog.Debug("ws feed closed", "connId", connID)
}

func (h *FeedHandler) serveSocket(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := h.ov.Subscribe()
	defer h.ov.Unsubscribe(sub)

	incoming := make(chan ClientMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg ClientMessage
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				readErr <- err
				return
			}
			select {
			case incoming <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make(chan FeedMessage, wsResultBuffer)

	if err := writeAll(ctx, conn, snapshotMessages(h.ov)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return err

		case change, ok := <-sub:
			if !ok {
				return nil
			}
			if err := writeAll(ctx, conn, changeMessages(h.ov, change.Kind)); err != nil {
				return err
			}

		case res := <-results:
			if err := writeMessage(ctx, conn, res); err != nil {
				return err
			}

		case msg := <-incoming:
			replies := h.handleClientMessage(ctx, msg, results)
			if err := writeAll(ctx, conn, replies); err != nil {
				return err
			}
		}
	}
}

// handleClientMessage answers msg immediately or, for actions, later on
// results.
func (h *FeedHandler) handleClientMessage(ctx context.Context, msg ClientMessage, results chan<- FeedMessage) []FeedMessage {
	switch msg.Type {
	case MsgSubscribe:
		return snapshotMessages(h.ov)

	case MsgPing:
		return []FeedMessage{{Type: MsgPong, ID: msg.ID}}

	case MsgAction:
		go func() {
			res := h.actionResult(ctx, msg)
			select {
			case results <- res:
			case <-ctx.Done():
			}
		}()
		return nil
	}

	return []FeedMessage{{
		Type:  MsgError,
		ID:    msg.ID,
		Error: fmt.Sprintf("unknown message type %q", msg.Type),
	}}
}

func (h *FeedHandler) actionResult(ctx context.Context, msg ClientMessage) FeedMessage {
	id := strings.TrimSpace(msg.TimerID)
	action := strings.ToLower(strings.TrimSpace(msg.Action))
	out, replayed := h.timers.dispatch(ctx, strings.TrimSpace(msg.ID), id, action)
	res := FeedMessage{Type: MsgResult, ID: msg.ID, Replayed: replayed}
	if e, ok := out.Body.(ControlPlaneError); ok {
		res.Error = e.Error
		res.Data = &ActionResponse{Code: e.ErrorCode, TimerID: id, Action: action}
		return res
	}
	res.Data = out.Body
	return res
}

func writeAll(ctx context.Context, conn *websocket.Conn, msgs []FeedMessage) error {
	for _, msg := range msgs {
		if err := writeMessage(ctx, conn, msg); err != nil {
			return err
		}
	}
	return nil
}

func writeMessage(ctx context.Context, conn *websocket.Conn, msg FeedMessage) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
