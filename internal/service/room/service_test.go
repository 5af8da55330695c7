package room

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamnest/watchparty/internal/repository/connection/inmemory"
	roomRedis "github.com/streamnest/watchparty/internal/repository/room/redis"
)

func newTestService(t *testing.T) *service {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	roomRepo := roomRedis.NewRepo(rc, time.Hour, slog.Default())
	connRepo := inmemory.NewRepo(slog.Default())
	return NewService(roomRepo, connRepo, &Config{Secret: "test-secret"}, slog.Default())
}

func TestJoinUnknownRoom(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.JoinRoom(context.Background(), &JoinRoomParams{
		RoomCode: "NOSUCH",
		UserId:   "user-1",
		Username: "alice",
	})
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRejoinKeepsMemberCount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, &CreateRoomParams{UserId: "creator-1", Username: "alice"})
	require.NoError(t, err)

	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomCode: created.RoomCode, UserId: "user-2", Username: "bob"})
	require.NoError(t, err)

	// joining again is idempotent
	rejoined, err := svc.JoinRoom(ctx, &JoinRoomParams{RoomCode: created.RoomCode, UserId: "user-2", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, rejoined.MemberCount)
}

func TestConnectRequiresMembership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, &CreateRoomParams{UserId: "creator-1", Username: "alice"})
	require.NoError(t, err)

	err = svc.ConnectMember(ctx, &ConnectMemberParams{
		Conn:     &websocket.Conn{},
		RoomCode: created.RoomCode,
		UserId:   "stranger",
	})
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMemberLeaveKeepsRoom(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, &CreateRoomParams{UserId: "creator-1", Username: "alice"})
	require.NoError(t, err)
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomCode: created.RoomCode, UserId: "user-2", Username: "bob"})
	require.NoError(t, err)

	resp, err := svc.LeaveRoom(ctx, &LeaveRoomParams{RoomCode: created.RoomCode, UserId: "user-2"})
	require.NoError(t, err)
	assert.False(t, resp.IsRoomDeleted)

	remaining, err := svc.GetRoom(ctx, created.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining.MemberCount)
}

func TestGetRoomNormalizesCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, &CreateRoomParams{UserId: "creator-1", Username: "alice"})
	require.NoError(t, err)

	found, err := svc.GetRoom(ctx, "  "+created.RoomCode+"  ")
	require.NoError(t, err)
	assert.Equal(t, created.RoomCode, found.RoomCode)
}

func TestPrivateRoomNotListed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, &CreateRoomParams{UserId: "creator-1", Username: "alice", IsPublic: false})
	require.NoError(t, err)

	rooms, err := svc.ListPublicRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ParseToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	svc := newTestService(t)
	other := newTestService(t) // different service, same secret

	grant, err := other.IssueToken(context.Background(), &IssueTokenParams{Username: "alice"})
	require.NoError(t, err)

	// same secret parses fine
	claims, err := svc.ParseToken(grant.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	foreign := NewService(nil, nil, &Config{Secret: "different"}, slog.Default())
	_, err = foreign.ParseToken(grant.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
