package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"

	repository "github.com/streamnest/watchparty/internal/repository/room"
	"github.com/streamnest/watchparty/pkg/randstr"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidToken     = errors.New("invalid token")
)

const roomCodeLength = 6

type iRoomRepo interface {
	SetRoom(context.Context, *repository.SetRoomParams) error
	GetRoom(context.Context, string) (repository.Room, error)
	RemoveRoom(context.Context, string) error
	UpdateRoomVideo(context.Context, *repository.UpdateRoomVideoParams) error
	GetPublicRoomCodes(context.Context) ([]string, error)
	SetMember(context.Context, *repository.SetMemberParams) error
	GetMember(context.Context, *repository.GetMemberParams) (repository.Member, error)
	GetMemberIds(context.Context, string) ([]string, error)
	RemoveMember(context.Context, *repository.RemoveMemberParams) error
}

type iConnRepo interface {
	Add(conn *websocket.Conn, roomCode, userId string) error
	RemoveByConn(conn *websocket.Conn) error
	RemoveByMember(roomCode, userId string) error
	GetConn(roomCode, userId string) (*websocket.Conn, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	Secret string
}

type service struct {
	roomRepo  iRoomRepo
	connRepo  iConnRepo
	generator iGenerator
	secret    string
	logger    *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	s := service{
		roomRepo: roomRepo,
		connRepo: connRepo,
		secret:   cfg.Secret,
		logger:   logger,
	}

	// room codes read well without lookalike characters
	letterBytes := []byte("ABCDEFGHJKLMNPQRSTUVWXYZ123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}
