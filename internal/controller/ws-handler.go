package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/streamnest/watchparty/internal/domain"
	"github.com/streamnest/watchparty/internal/service/room"
	"github.com/streamnest/watchparty/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Handle(domain.MessageTypeVideoChange, c.handleVideoChange)

	mux.OnMalformed(func(ctx context.Context, err error) {
		c.logger.DebugContext(ctx, "dropping malformed message", "error", err)
	})
	mux.OnUnknown(func(ctx context.Context, messageType string) {
		c.logger.DebugContext(ctx, "dropping message of unknown type", "message_type", messageType)
	})
	mux.OnError(func(ctx context.Context, messageType string, err error) {
		c.logger.WarnContext(ctx, "failed to handle message", "message_type", messageType, "error", err)
	})

	return mux
}

// connectRoom upgrades the request and binds the socket to the member
// for the lifetime of the connection.
func (c controller) connectRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := domain.NormalizeRoomCode(chi.URLParam(r, "room-code"))
	userId := c.getUserIdFromCtx(r.Context())

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	if err := c.roomService.ConnectMember(r.Context(), &room.ConnectMemberParams{
		Conn:     conn,
		RoomCode: roomCode,
		UserId:   userId,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect member", "error", err)
		return
	}
	defer func() {
		if err := c.roomService.DisconnectMember(r.Context(), &room.DisconnectMemberParams{
			Conn: conn,
		}); err != nil {
			c.logger.DebugContext(r.Context(), "failed to disconnect member", "error", err)
		}
	}()

	ctx := context.WithValue(r.Context(), roomCodeCtxKey, roomCode)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(r.Context(), "connection closed", "error", err)
	}
}

func (c controller) handleVideoChange(ctx context.Context, _ *websocket.Conn, data json.RawMessage) error {
	var input domain.VideoChangeMessage
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to decode video change: %w", err)
	}

	// sender identity and room come from the authenticated socket, not
	// from the message body
	broadcastResp, err := c.roomService.BroadcastVideoChange(ctx, &room.BroadcastVideoChangeParams{
		RoomCode:  c.getRoomCodeFromCtx(ctx),
		SenderId:  c.getUserIdFromCtx(ctx),
		Username:  c.getUsernameFromCtx(ctx),
		VideoPath: input.VideoPath,
	})
	if err != nil {
		return fmt.Errorf("failed to prepare broadcast: %w", err)
	}

	c.broadcast(ctx, broadcastResp.Conns, &broadcastResp.Message)

	return nil
}

// broadcast delivers the message to every connection it can. Delivery
// is fire and forget, a dead socket never fails the sender. Writes are
// funneled through sendMu so concurrent senders never write to the
// same conn at once.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, message any) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(message); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
		}
	}
}
