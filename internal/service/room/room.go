package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/streamnest/watchparty/internal/domain"
	repository "github.com/streamnest/watchparty/internal/repository/room"
)

const createRoomAttempts = 5

type CreateRoomParams struct {
	UserId   string
	Username string
	IsPublic bool
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (domain.Room, error) {
	now := time.Now()

	var roomCode string
	for attempt := 0; ; attempt++ {
		roomCode = s.generator.GenerateRandomString(roomCodeLength)
		err := s.roomRepo.SetRoom(ctx, &repository.SetRoomParams{
			Id:              uuid.NewString(),
			RoomCode:        roomCode,
			CreatorId:       params.UserId,
			CreatorUsername: params.Username,
			IsPublic:        params.IsPublic,
			CreatedAt:       now.Unix(),
		})
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrRoomCodeTaken) || attempt+1 >= createRoomAttempts {
			return domain.Room{}, fmt.Errorf("failed to create room: %w", err)
		}
	}

	if err := s.roomRepo.SetMember(ctx, &repository.SetMemberParams{
		RoomCode: roomCode,
		UserId:   params.UserId,
		Username: params.Username,
		JoinedAt: now.Unix(),
	}); err != nil {
		return domain.Room{}, fmt.Errorf("failed to add creator to room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_code", roomCode, "creator_id", params.UserId)

	return s.buildRoom(ctx, roomCode)
}

type JoinRoomParams struct {
	RoomCode string
	UserId   string
	Username string
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (domain.Room, error) {
	roomCode := domain.NormalizeRoomCode(params.RoomCode)

	if _, err := s.roomRepo.GetRoom(ctx, roomCode); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return domain.Room{}, fmt.Errorf("room %s: %w", roomCode, ErrRoomNotFound)
		}
		return domain.Room{}, err
	}

	// rejoin keeps the original joinedAt
	if _, err := s.roomRepo.GetMember(ctx, &repository.GetMemberParams{
		RoomCode: roomCode,
		UserId:   params.UserId,
	}); errors.Is(err, repository.ErrMemberNotFound) {
		if err := s.roomRepo.SetMember(ctx, &repository.SetMemberParams{
			RoomCode: roomCode,
			UserId:   params.UserId,
			Username: params.Username,
			JoinedAt: time.Now().Unix(),
		}); err != nil {
			return domain.Room{}, fmt.Errorf("failed to add member to room: %w", err)
		}
	} else if err != nil {
		return domain.Room{}, err
	}

	s.logger.InfoContext(ctx, "member joined room", "room_code", roomCode, "user_id", params.UserId)

	return s.buildRoom(ctx, roomCode)
}

type LeaveRoomParams struct {
	RoomCode string
	UserId   string
}

type LeaveRoomResponse struct {
	IsRoomDeleted bool
}

// LeaveRoom removes the member. The room dies with its creator, and an
// emptied room is deleted too.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	roomCode := domain.NormalizeRoomCode(params.RoomCode)

	storedRoom, err := s.roomRepo.GetRoom(ctx, roomCode)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return LeaveRoomResponse{}, fmt.Errorf("room %s: %w", roomCode, ErrRoomNotFound)
		}
		return LeaveRoomResponse{}, err
	}

	s.connRepo.RemoveByMember(roomCode, params.UserId)

	if storedRoom.CreatorId == params.UserId {
		if err := s.roomRepo.RemoveRoom(ctx, roomCode); err != nil {
			return LeaveRoomResponse{}, err
		}
		s.logger.InfoContext(ctx, "room deleted, creator left", "room_code", roomCode)
		return LeaveRoomResponse{IsRoomDeleted: true}, nil
	}

	if err := s.roomRepo.RemoveMember(ctx, &repository.RemoveMemberParams{
		RoomCode: roomCode,
		UserId:   params.UserId,
	}); err != nil && !errors.Is(err, repository.ErrMemberNotFound) {
		return LeaveRoomResponse{}, err
	}

	userIds, err := s.roomRepo.GetMemberIds(ctx, roomCode)
	if err != nil {
		return LeaveRoomResponse{}, err
	}
	if len(userIds) == 0 {
		if err := s.roomRepo.RemoveRoom(ctx, roomCode); err != nil {
			return LeaveRoomResponse{}, err
		}
		s.logger.InfoContext(ctx, "room deleted, no members left", "room_code", roomCode)
		return LeaveRoomResponse{IsRoomDeleted: true}, nil
	}

	return LeaveRoomResponse{}, nil
}

type SetCurrentVideoParams struct {
	RoomCode  string
	UserId    string
	VideoId   string
	VideoPath string
}

// SetCurrentVideo persists the room's current-video pointer so late
// joiners see the right state. Creator only.
func (s service) SetCurrentVideo(ctx context.Context, params *SetCurrentVideoParams) (domain.Room, error) {
	roomCode := domain.NormalizeRoomCode(params.RoomCode)

	storedRoom, err := s.roomRepo.GetRoom(ctx, roomCode)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return domain.Room{}, fmt.Errorf("room %s: %w", roomCode, ErrRoomNotFound)
		}
		return domain.Room{}, err
	}

	if storedRoom.CreatorId != params.UserId {
		return domain.Room{}, fmt.Errorf("only the room creator can set the current video: %w", ErrPermissionDenied)
	}

	if err := s.roomRepo.UpdateRoomVideo(ctx, &repository.UpdateRoomVideoParams{
		RoomCode:  roomCode,
		VideoId:   params.VideoId,
		VideoPath: params.VideoPath,
	}); err != nil {
		return domain.Room{}, err
	}

	return s.buildRoom(ctx, roomCode)
}

func (s service) GetRoom(ctx context.Context, roomCode string) (domain.Room, error) {
	roomCode = domain.NormalizeRoomCode(roomCode)

	if _, err := s.roomRepo.GetRoom(ctx, roomCode); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return domain.Room{}, fmt.Errorf("room %s: %w", roomCode, ErrRoomNotFound)
		}
		return domain.Room{}, err
	}

	return s.buildRoom(ctx, roomCode)
}

func (s service) ListPublicRooms(ctx context.Context) ([]domain.Room, error) {
	roomCodes, err := s.roomRepo.GetPublicRoomCodes(ctx)
	if err != nil {
		return nil, err
	}

	rooms := make([]domain.Room, 0, len(roomCodes))
	for _, roomCode := range roomCodes {
		builtRoom, err := s.buildRoom(ctx, roomCode)
		if err != nil {
			// expired rooms may linger in the index
			s.logger.WarnContext(ctx, "skipping unreadable public room", "room_code", roomCode, "error", err)
			continue
		}
		rooms = append(rooms, builtRoom)
	}

	return rooms, nil
}

// buildRoom assembles the externally visible room snapshot. The member
// count is always derived from the member list.
func (s service) buildRoom(ctx context.Context, roomCode string) (domain.Room, error) {
	storedRoom, err := s.roomRepo.GetRoom(ctx, roomCode)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return domain.Room{}, fmt.Errorf("room %s: %w", roomCode, ErrRoomNotFound)
		}
		return domain.Room{}, err
	}

	userIds, err := s.roomRepo.GetMemberIds(ctx, roomCode)
	if err != nil {
		return domain.Room{}, err
	}

	members := make([]domain.Member, 0, len(userIds))
	for _, userId := range userIds {
		member, err := s.roomRepo.GetMember(ctx, &repository.GetMemberParams{
			RoomCode: roomCode,
			UserId:   userId,
		})
		if err != nil {
			return domain.Room{}, err
		}
		members = append(members, domain.Member{
			UserId:   userId,
			Username: member.Username,
			JoinedAt: time.Unix(member.JoinedAt, 0).UTC(),
		})
	}

	result := domain.Room{
		Id:              storedRoom.Id,
		RoomCode:        storedRoom.RoomCode,
		CreatorId:       storedRoom.CreatorId,
		CreatorUsername: storedRoom.CreatorUsername,
		IsPublic:        storedRoom.IsPublic,
		IsActive:        storedRoom.IsActive,
		CreatedAt:       time.Unix(storedRoom.CreatedAt, 0).UTC(),
		Members:         members,
		MemberCount:     len(members),
	}
	if storedRoom.CurrentVideoId != "" {
		videoId := storedRoom.CurrentVideoId
		result.CurrentVideoId = &videoId
	}
	if storedRoom.CurrentVideoPath != "" {
		videoPath := storedRoom.CurrentVideoPath
		result.CurrentVideoPath = &videoPath
	}

	return result, nil
}
