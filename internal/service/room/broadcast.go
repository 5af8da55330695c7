package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/streamnest/watchparty/internal/domain"
	"github.com/streamnest/watchparty/internal/repository/connection"
	repository "github.com/streamnest/watchparty/internal/repository/room"
)

type BroadcastVideoChangeParams struct {
	RoomCode  string
	SenderId  string
	Username  string
	VideoPath string
}

type BroadcastVideoChangeResponse struct {
	Conns   []*websocket.Conn
	Message domain.VideoChangeMessage
}

// BroadcastVideoChange prepares a video-change relay to every other
// member of the room. The relay does not police sender identity;
// creator authority is a client-side rule. Members without a live
// socket are skipped, there is no queueing or acknowledgement.
func (s service) BroadcastVideoChange(ctx context.Context, params *BroadcastVideoChangeParams) (BroadcastVideoChangeResponse, error) {
	roomCode := domain.NormalizeRoomCode(params.RoomCode)

	if _, err := s.roomRepo.GetRoom(ctx, roomCode); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return BroadcastVideoChangeResponse{}, fmt.Errorf("room %s: %w", roomCode, ErrRoomNotFound)
		}
		return BroadcastVideoChangeResponse{}, err
	}

	userIds, err := s.roomRepo.GetMemberIds(ctx, roomCode)
	if err != nil {
		return BroadcastVideoChangeResponse{}, err
	}

	conns := make([]*websocket.Conn, 0, len(userIds))
	for _, userId := range userIds {
		if userId == params.SenderId {
			continue
		}
		conn, err := s.connRepo.GetConn(roomCode, userId)
		if err != nil {
			if errors.Is(err, connection.ErrNotFound) {
				continue
			}
			return BroadcastVideoChangeResponse{}, err
		}
		conns = append(conns, conn)
	}

	return BroadcastVideoChangeResponse{
		Conns: conns,
		Message: domain.VideoChangeMessage{
			Type:      domain.MessageTypeVideoChange,
			RoomCode:  roomCode,
			VideoPath: params.VideoPath,
			UserId:    params.SenderId,
			Username:  params.Username,
		},
	}, nil
}
