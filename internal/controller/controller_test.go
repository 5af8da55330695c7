package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamnest/watchparty/internal/domain"
	"github.com/streamnest/watchparty/internal/repository/connection/inmemory"
	roomRedis "github.com/streamnest/watchparty/internal/repository/room/redis"
	"github.com/streamnest/watchparty/internal/service/room"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	roomRepo := roomRedis.NewRepo(rc, time.Hour, slog.Default())
	connRepo := inmemory.NewRepo(slog.Default())
	roomService := room.NewService(roomRepo, connRepo, &room.Config{Secret: "test-secret"}, slog.Default())

	srv := httptest.NewServer(NewController(roomService, slog.Default()).GetMux())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token string, body, out any) {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "unexpected status %d", resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

type tokenGrant struct {
	Token    string `json:"token"`
	UserId   string `json:"userId"`
	Username string `json:"username"`
}

func issueTestToken(t *testing.T, srv *httptest.Server, username string) tokenGrant {
	t.Helper()
	var grant tokenGrant
	postJSON(t, srv.URL+"/api/watchparty/token", "", map[string]string{"username": username}, &grant)
	return grant
}

func dialRoom(t *testing.T, srv *httptest.Server, roomCode, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/watchparty/" + roomCode + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// receiveOne sends announce repeatedly until the reader picks up a
// message, riding out the window between a successful dial and the
// server registering the connection.
func receiveOne(t *testing.T, sender, receiver *websocket.Conn, videoPath string) domain.VideoChangeMessage {
	t.Helper()
	received := make(chan domain.VideoChangeMessage, 1)
	go func() {
		var msg domain.VideoChangeMessage
		if err := receiver.ReadJSON(&msg); err == nil {
			received <- msg
		}
	}()

	var msg domain.VideoChangeMessage
	require.Eventually(t, func() bool {
		if err := sender.WriteJSON(domain.VideoChangeMessage{Type: domain.MessageTypeVideoChange, VideoPath: videoPath}); err != nil {
			return false
		}
		select {
		case msg = <-received:
			return true
		default:
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)
	return msg
}

func TestVideoChangeRelayedWithSocketIdentity(t *testing.T) {
	srv := newTestServer(t)

	creator := issueTestToken(t, srv, "alice")
	member := issueTestToken(t, srv, "bob")

	var created domain.Room
	postJSON(t, srv.URL+"/api/watchparty/create", creator.Token, map[string]bool{"isPublic": false}, &created)

	var joined domain.Room
	postJSON(t, srv.URL+"/api/watchparty/join", member.Token, map[string]string{"roomCode": created.RoomCode}, &joined)
	require.Equal(t, 2, joined.MemberCount)

	creatorConn := dialRoom(t, srv, created.RoomCode, creator.Token)
	memberConn := dialRoom(t, srv, created.RoomCode, member.Token)

	msg := receiveOne(t, creatorConn, memberConn, "movie-night")

	assert.Equal(t, domain.MessageTypeVideoChange, msg.Type)
	assert.Equal(t, created.RoomCode, msg.RoomCode)
	assert.Equal(t, "movie-night", msg.VideoPath)
	assert.Equal(t, creator.UserId, msg.UserId, "sender identity comes from the socket, not the payload")
	assert.Equal(t, "alice", msg.Username)
}

func TestConcurrentSendersDeliverToSharedTarget(t *testing.T) {
	srv := newTestServer(t)

	creator := issueTestToken(t, srv, "alice")
	memberB := issueTestToken(t, srv, "bob")
	memberC := issueTestToken(t, srv, "carol")

	var created domain.Room
	postJSON(t, srv.URL+"/api/watchparty/create", creator.Token, map[string]bool{"isPublic": false}, &created)
	join := map[string]string{"roomCode": created.RoomCode}
	var joined domain.Room
	postJSON(t, srv.URL+"/api/watchparty/join", memberB.Token, join, &joined)
	postJSON(t, srv.URL+"/api/watchparty/join", memberC.Token, join, &joined)

	creatorConn := dialRoom(t, srv, created.RoomCode, creator.Token)
	connB := dialRoom(t, srv, created.RoomCode, memberB.Token)
	connC := dialRoom(t, srv, created.RoomCode, memberC.Token)

	// make sure every socket is registered before the barrage
	receiveOne(t, creatorConn, connB, "warmup")
	receiveOne(t, creatorConn, connC, "warmup")
	receiveOne(t, connB, creatorConn, "warmup-b")

	// bob and carol broadcast at the same time; both relays target the
	// creator's conn concurrently
	const perSender = 25
	var senders sync.WaitGroup
	for i, conn := range []*websocket.Conn{connB, connC} {
		senders.Add(1)
		go func(idx int, conn *websocket.Conn) {
			defer senders.Done()
			for n := 0; n < perSender; n++ {
				if err := conn.WriteJSON(domain.VideoChangeMessage{
					Type:      domain.MessageTypeVideoChange,
					VideoPath: fmt.Sprintf("from-%d", idx),
				}); err != nil {
					t.Errorf("send failed: %v", err)
					return
				}
			}
		}(i, conn)
	}

	// drain the members so the server's relay writes never back up
	for _, conn := range []*websocket.Conn{connB, connC} {
		go func(conn *websocket.Conn) {
			var msg domain.VideoChangeMessage
			for conn.ReadJSON(&msg) == nil {
			}
		}(conn)
	}

	counts := map[string]int{}
	require.NoError(t, creatorConn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for counts["from-0"] < perSender || counts["from-1"] < perSender {
		var msg domain.VideoChangeMessage
		require.NoError(t, creatorConn.ReadJSON(&msg), "relay died mid-barrage, counts so far: %v", counts)
		counts[msg.VideoPath]++
	}

	senders.Wait()
	assert.Equal(t, perSender, counts["from-0"])
	assert.Equal(t, perSender, counts["from-1"])
}
