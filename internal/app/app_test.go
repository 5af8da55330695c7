package app

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamnest/watchparty/internal/repository/connection/inmemory"
	roomRedis "github.com/streamnest/watchparty/internal/repository/room/redis"
	"github.com/streamnest/watchparty/internal/service/room"
)

func TestRoomLifecycle(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	s, _ := miniredis.Run()
	r := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	roomRepo := roomRedis.NewRepo(r, time.Hour, slog.Default())
	connRepo := inmemory.NewRepo(slog.Default())
	service := room.NewService(roomRepo, connRepo, &room.Config{Secret: "test-secret"}, slog.Default())

	ctx := context.Background()

	// issue tokens for two users
	creatorGrant, err := service.IssueToken(ctx, &room.IssueTokenParams{Username: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, creatorGrant.Token, "token is empty")
	assert.NotEmpty(t, creatorGrant.UserId, "user id is empty")

	creatorClaims, err := service.ParseToken(creatorGrant.Token)
	require.NoError(t, err)
	assert.Equal(t, creatorGrant.UserId, creatorClaims.UserId, "claims user id is not equal")
	assert.Equal(t, "alice", creatorClaims.Username, "claims username is not equal")

	memberGrant, err := service.IssueToken(ctx, &room.IssueTokenParams{Username: "bob"})
	require.NoError(t, err)

	// creator makes a public room
	createdRoom, err := service.CreateRoom(ctx, &room.CreateRoomParams{
		UserId:   creatorGrant.UserId,
		Username: "alice",
		IsPublic: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, createdRoom.RoomCode, "room code is empty")
	assert.Equal(t, createdRoom.RoomCode, strings.ToUpper(createdRoom.RoomCode), "room code must be uppercase")
	assert.Equal(t, creatorGrant.UserId, createdRoom.CreatorId, "creator id is not equal")
	assert.Equal(t, 1, createdRoom.MemberCount, "room must contain 1 member")
	t.Log("room created", createdRoom.RoomCode)

	err = service.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:     &websocket.Conn{},
		RoomCode: createdRoom.RoomCode,
		UserId:   creatorGrant.UserId,
	})
	require.NoError(t, err)

	// member joins with a lowercase code
	joinedRoom, err := service.JoinRoom(ctx, &room.JoinRoomParams{
		RoomCode: strings.ToLower(createdRoom.RoomCode),
		UserId:   memberGrant.UserId,
		Username: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, createdRoom.RoomCode, joinedRoom.RoomCode, "room code is not equal")
	assert.Equal(t, 2, joinedRoom.MemberCount, "room must contain 2 members")

	memberConn := &websocket.Conn{}
	err = service.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:     memberConn,
		RoomCode: createdRoom.RoomCode,
		UserId:   memberGrant.UserId,
	})
	require.NoError(t, err)
	t.Log("member joined")

	// only the creator may set the current video
	_, err = service.SetCurrentVideo(ctx, &room.SetCurrentVideoParams{
		RoomCode:  createdRoom.RoomCode,
		UserId:    memberGrant.UserId,
		VideoId:   "movie-night",
		VideoPath: "movie-night",
	})
	require.ErrorIs(t, err, room.ErrPermissionDenied)

	updatedRoom, err := service.SetCurrentVideo(ctx, &room.SetCurrentVideoParams{
		RoomCode:  createdRoom.RoomCode,
		UserId:    creatorGrant.UserId,
		VideoId:   "movie-night",
		VideoPath: "movie-night",
	})
	require.NoError(t, err)
	require.NotNil(t, updatedRoom.CurrentVideoPath, "current video path is nil")
	assert.Equal(t, "movie-night", *updatedRoom.CurrentVideoPath, "current video path is not equal")
	t.Log("video set")

	// broadcast goes to everyone but the sender
	broadcastResp, err := service.BroadcastVideoChange(ctx, &room.BroadcastVideoChangeParams{
		RoomCode:  createdRoom.RoomCode,
		SenderId:  creatorGrant.UserId,
		Username:  "alice",
		VideoPath: "movie-night",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, len(broadcastResp.Conns), "conns must contain 1 conn")
	assert.Same(t, memberConn, broadcastResp.Conns[0], "conn must be the member's")
	assert.Equal(t, "VIDEO_CHANGE", broadcastResp.Message.Type, "message type is not equal")
	assert.Equal(t, createdRoom.RoomCode, broadcastResp.Message.RoomCode, "message room code is not equal")
	t.Log("video change broadcast")

	// the room is listed publicly
	publicRooms, err := service.ListPublicRooms(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, len(publicRooms), "public rooms must contain 1 room")
	assert.Equal(t, createdRoom.RoomCode, publicRooms[0].RoomCode, "public room code is not equal")

	// the room dies with its creator
	leaveResp, err := service.LeaveRoom(ctx, &room.LeaveRoomParams{
		RoomCode: createdRoom.RoomCode,
		UserId:   creatorGrant.UserId,
	})
	require.NoError(t, err)
	assert.True(t, leaveResp.IsRoomDeleted, "room must be deleted")

	_, err = service.GetRoom(ctx, createdRoom.RoomCode)
	require.ErrorIs(t, err, room.ErrRoomNotFound)
	t.Log("room deleted")

	t.Log(r.Keys(ctx, "*").Val())
}
