package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/streamnest/watchparty/internal/domain"
	"github.com/streamnest/watchparty/internal/service/room"
	"github.com/streamnest/watchparty/pkg/validator"
	"github.com/streamnest/watchparty/pkg/wsrouter"
)

type iRoomService interface {
	IssueToken(context.Context, *room.IssueTokenParams) (room.IssueTokenResponse, error)
	ParseToken(tokenString string) (*room.Claims, error)
	CreateRoom(context.Context, *room.CreateRoomParams) (domain.Room, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (domain.Room, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	SetCurrentVideo(context.Context, *room.SetCurrentVideoParams) (domain.Room, error)
	GetRoom(ctx context.Context, roomCode string) (domain.Room, error)
	ListPublicRooms(context.Context) ([]domain.Room, error)
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(context.Context, *room.DisconnectMemberParams) error
	BroadcastVideoChange(context.Context, *room.BroadcastVideoChangeParams) (room.BroadcastVideoChangeResponse, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	// sendMu serializes relay writes: a conn supports at most one
	// concurrent writer, and every member's reader goroutine can
	// trigger a broadcast.
	sendMu *sync.Mutex
	logger *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		sendMu:      &sync.Mutex{},
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return &c
}
