package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/streamnest/watchparty/internal/domain"
	repository "github.com/streamnest/watchparty/internal/repository/room"
)

type ConnectMemberParams struct {
	Conn     *websocket.Conn
	RoomCode string
	UserId   string
}

// ConnectMember binds a live socket to a joined member. Membership is
// established over REST first; a socket for an unknown member is
// rejected.
func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	roomCode := domain.NormalizeRoomCode(params.RoomCode)

	if _, err := s.roomRepo.GetMember(ctx, &repository.GetMemberParams{
		RoomCode: roomCode,
		UserId:   params.UserId,
	}); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return fmt.Errorf("user %s has not joined room %s: %w", params.UserId, roomCode, ErrMemberNotFound)
		}
		return err
	}

	// a reconnect replaces the previous socket
	if oldConn, err := s.connRepo.GetConn(roomCode, params.UserId); err == nil {
		s.connRepo.RemoveByConn(oldConn)
		oldConn.Close()
	}

	if err := s.connRepo.Add(params.Conn, roomCode, params.UserId); err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}

	s.logger.InfoContext(ctx, "member connected", "room_code", roomCode, "user_id", params.UserId)
	return nil
}

type DisconnectMemberParams struct {
	Conn *websocket.Conn
}

// DisconnectMember drops the socket binding. Membership itself is kept;
// leaving is an explicit registry call, a dropped socket is not a leave.
func (s service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) error {
	if err := s.connRepo.RemoveByConn(params.Conn); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "member disconnected")
	return nil
}
