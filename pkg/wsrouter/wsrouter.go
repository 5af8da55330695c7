package wsrouter

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

// HandlerFunc receives the raw message bytes so handlers can decode
// their own flat payload shape.
type HandlerFunc func(ctx context.Context, conn *websocket.Conn, data json.RawMessage) error

// WSRouter dispatches inbound websocket messages by their top-level
// "type" field. Messages that do not decode, or whose type has no
// handler, are reported to the configured callbacks and dropped; they
// never close the connection.
type WSRouter struct {
	routes      map[string]HandlerFunc
	onMalformed func(ctx context.Context, err error)
	onUnknown   func(ctx context.Context, messageType string)
	onError     func(ctx context.Context, messageType string, err error)
}

func New() *WSRouter {
	return &WSRouter{
		routes:      make(map[string]HandlerFunc),
		onMalformed: func(context.Context, error) {},
		onUnknown:   func(context.Context, string) {},
		onError:     func(context.Context, string, error) {},
	}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

func (r *WSRouter) OnMalformed(f func(ctx context.Context, err error)) {
	r.onMalformed = f
}

func (r *WSRouter) OnUnknown(f func(ctx context.Context, messageType string)) {
	r.onUnknown = f
}

func (r *WSRouter) OnError(f func(ctx context.Context, messageType string, err error)) {
	r.onError = f
}

// ServeConn pumps the connection until it dies, handling one message
// at a time in arrival order.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			r.onMalformed(ctx, err)
			continue
		}

		handler, exists := r.routes[head.Type]
		if !exists {
			r.onUnknown(ctx, head.Type)
			continue
		}

		msgCtx := withMessageType(ctx, head.Type)
		if err := handler(msgCtx, conn, data); err != nil {
			r.onError(msgCtx, head.Type, err)
		}
	}
}

type ctxKey int

const messageTypeKey ctxKey = iota

func withMessageType(ctx context.Context, messageType string) context.Context {
	return context.WithValue(ctx, messageTypeKey, messageType)
}

// MessageTypeFromCtx returns the message type of the message being
// handled, or "" outside a handler.
func MessageTypeFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(messageTypeKey).(string); ok {
		return v
	}
	return ""
}
