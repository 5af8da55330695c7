package sync

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamnest/watchparty/internal/domain"
)

func TestUnwrapCredential(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		want       string
	}{
		{"raw token", "abc.def.ghi", "abc.def.ghi"},
		{"padded token", "  abc.def.ghi \n", "abc.def.ghi"},
		{"login envelope", `{"token":"abc.def.ghi"}`, "abc.def.ghi"},
		{"envelope with padding", ` {"token":" abc.def.ghi "} `, "abc.def.ghi"},
		{"empty", "   ", ""},
		{"envelope without token", `{"other":"x"}`, `{"other":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnwrapCredential(tt.credential))
		})
	}
}

// wsTestServer upgrades every request and exposes the server-side
// conns for the test to script.
type wsTestServer struct {
	*httptest.Server
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
	requests chan *http.Request
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	s := &wsTestServer{
		conns:    make(chan *websocket.Conn, 4),
		requests: make(chan *http.Request, 4),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.requests <- r
		s.conns <- conn
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsTestServer) baseURL() string {
	return s.URL
}

func TestConnectWithoutTokenFails(t *testing.T) {
	c := NewChannel("http://localhost:0", slog.Default())

	err := c.Connect(context.Background(), "XY12KT", "   ")
	require.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, Disconnected, c.State())
}

func TestConnectDialFailureIsErrored(t *testing.T) {
	c := NewChannel("http://127.0.0.1:1", slog.Default())

	err := c.Connect(context.Background(), "XY12KT", "some-token")
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, Errored, c.State())
}

func TestConnectSendsUnwrappedToken(t *testing.T) {
	srv := newWSTestServer(t)
	c := NewChannel(srv.baseURL(), slog.Default())

	err := c.Connect(context.Background(), "XY12KT", `{"token":"abc.def"}`)
	require.NoError(t, err)
	defer c.Close()

	r := <-srv.requests
	assert.True(t, strings.HasSuffix(r.URL.Path, "/watchparty/XY12KT/ws"))
	assert.Equal(t, "abc.def", r.URL.Query().Get("token"))
	assert.Equal(t, Connected, c.State())

	// a second connect on a live channel is a no-op
	require.NoError(t, c.Connect(context.Background(), "XY12KT", "abc.def"))
	select {
	case <-srv.conns:
	default:
		t.Fatal("expected exactly one server-side connection")
	}
}

func TestInboundMessagesDecoded(t *testing.T) {
	srv := newWSTestServer(t)
	c := NewChannel(srv.baseURL(), slog.Default())

	require.NoError(t, c.Connect(context.Background(), "XY12KT", "some-token"))
	defer c.Close()
	server := <-srv.conns

	// malformed and unknown payloads are dropped, the good one arrives
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"SOMETHING_ELSE"}`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(
		`{"type":"VIDEO_CHANGE","roomCode":"XY12KT","videoPath":"movie-night","userId":"user-1","username":"alice"}`,
	)))

	select {
	case msg := <-c.Messages():
		require.NotNil(t, msg.VideoChange)
		assert.Equal(t, "XY12KT", msg.VideoChange.RoomCode)
		assert.Equal(t, "movie-night", msg.VideoChange.VideoPath)
		assert.Equal(t, "alice", msg.VideoChange.Username)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for decoded message")
	}

	select {
	case msg, ok := <-c.Messages():
		if ok {
			t.Fatalf("unexpected extra message: %+v", msg)
		}
	default:
	}
}

func TestSendCarriesMessageType(t *testing.T) {
	srv := newWSTestServer(t)
	c := NewChannel(srv.baseURL(), slog.Default())

	require.NoError(t, c.Connect(context.Background(), "XY12KT", "some-token"))
	defer c.Close()
	server := <-srv.conns

	require.NoError(t, c.Send(domain.VideoChangeMessage{
		RoomCode:  "XY12KT",
		VideoPath: "movie-night",
		UserId:    "user-1",
		Username:  "alice",
	}))

	var got domain.VideoChangeMessage
	require.NoError(t, server.ReadJSON(&got))
	assert.Equal(t, domain.MessageTypeVideoChange, got.Type)
	assert.Equal(t, "movie-night", got.VideoPath)
}

func TestSendWhenNotConnected(t *testing.T) {
	c := NewChannel("http://localhost:0", slog.Default())

	err := c.Send(domain.VideoChangeMessage{RoomCode: "XY12KT", VideoPath: "movie-night"})
	require.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestServerCloseEndsMessages(t *testing.T) {
	srv := newWSTestServer(t)
	c := NewChannel(srv.baseURL(), slog.Default())

	require.NoError(t, c.Connect(context.Background(), "XY12KT", "some-token"))
	server := <-srv.conns
	messages := c.Messages()

	server.Close()

	select {
	case _, ok := <-messages:
		assert.False(t, ok, "messages channel must close with the connection")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for messages channel to close")
	}

	assert.Eventually(t, func() bool {
		return c.State() == Disconnected
	}, time.Second, 5*time.Millisecond)

	// closing again stays safe
	c.Close()
	c.Close()
}
