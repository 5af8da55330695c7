package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/streamnest/watchparty/internal/domain"
)

// ConnectionState describes the sync socket lifecycle. Exactly one
// channel is live per active room membership.
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Errored
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Channel holds one persistent websocket to a room's event stream. It
// decodes inbound sync messages onto Messages and transmits outbound
// ones fire-and-forget. A closed channel is restartable only via a
// fresh Connect.
type Channel struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *slog.Logger

	state atomic.Int32

	mu       sync.Mutex
	writeMu  sync.Mutex
	conn     *websocket.Conn
	messages chan domain.SyncMessage
	closed   bool
}

func NewChannel(baseURL string, logger *slog.Logger) *Channel {
	return &Channel{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

// UnwrapCredential extracts the bearer token from a stored credential.
// Some callers persist the raw token, others the login response
// envelope {"token":"..."}; both are accepted, trimmed.
func UnwrapCredential(credential string) string {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ""
	}

	var envelope struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(credential), &envelope); err == nil && envelope.Token != "" {
		return strings.TrimSpace(envelope.Token)
	}

	return credential
}

func (c *Channel) wsURL(roomCode, token string) string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	return fmt.Sprintf("%s/watchparty/%s/ws?token=%s", base, roomCode, url.QueryEscape(token))
}

// Connect dials the room's event stream and starts the read pump. It
// is a no-op when already connected.
func (c *Channel) Connect(ctx context.Context, roomCode, credential string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.logger.DebugContext(ctx, "sync channel already connected", "room_code", roomCode)
		return nil
	}

	token := UnwrapCredential(credential)
	if token == "" {
		return fmt.Errorf("cannot open sync channel without a token: %w", domain.ErrAuth)
	}

	c.state.Store(int32(Connecting))

	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL(roomCode, token), nil)
	if err != nil {
		c.state.Store(int32(Errored))
		if resp != nil {
			return fmt.Errorf("sync connect to room %s refused with status %d: %w", roomCode, resp.StatusCode, domain.ErrTransport)
		}
		return fmt.Errorf("sync connect to room %s failed: %s: %w", roomCode, err, domain.ErrTransport)
	}

	c.conn = conn
	c.closed = false
	c.messages = make(chan domain.SyncMessage, 16)
	c.state.Store(int32(Connected))
	c.logger.InfoContext(ctx, "sync channel connected", "room_code", roomCode)

	go c.readPump(conn, c.messages)

	return nil
}

// readPump decodes inbound payloads until the socket dies. Malformed
// payloads are dropped without closing the connection.
func (c *Channel) readPump(conn *websocket.Conn, messages chan domain.SyncMessage) {
	defer close(messages)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Info("sync channel read loop ended", "error", err)
			c.teardown(conn)
			return
		}

		msg, err := domain.DecodeSyncMessage(data)
		if err != nil {
			c.logger.Warn("dropping malformed sync message", "error", err)
			continue
		}
		if msg.VideoChange == nil {
			c.logger.Warn("dropping sync message of unknown type", "type", msg.Unknown)
			continue
		}

		messages <- msg
	}
}

// Messages is the inbound stream of the current connection. The
// channel is closed when the connection dies.
func (c *Channel) Messages() <-chan domain.SyncMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages
}

func (c *Channel) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Send transmits one message immediately, at most once. There is no
// acknowledgement and no retry; the caller decides whether a failed
// send matters.
func (c *Channel) Send(msg domain.VideoChangeMessage) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || c.State() != Connected {
		err := fmt.Errorf("video change for room %s not sent: %w", msg.RoomCode, domain.ErrNotConnected)
		c.logger.Warn("sync send skipped", "error", err)
		return err
	}

	msg.Type = domain.MessageTypeVideoChange

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(&msg); err != nil {
		err = fmt.Errorf("video change for room %s not sent: %s: %w", msg.RoomCode, err, domain.ErrTransport)
		c.logger.Warn("sync send failed", "error", err)
		return err
	}

	return nil
}

// Close tears the transport down. Safe to call on every exit path,
// any number of times.
func (c *Channel) Close() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.teardown(conn)
	}
}

func (c *Channel) teardown(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn != conn {
		return
	}

	c.closed = true
	c.conn = nil
	conn.Close()
	c.state.Store(int32(Disconnected))
	c.logger.Info("sync channel disconnected")
}
