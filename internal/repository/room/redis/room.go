package redis

import (
	"context"

	"github.com/streamnest/watchparty/internal/repository/room"
)

func (r repo) getRoomKey(roomCode string) string {
	return "room:" + roomCode
}

func (r repo) getPublicRoomsKey() string {
	return "rooms:public"
}

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	// HSETNX claims the code atomically; two simultaneous creates
	// colliding on a code cannot both win.
	roomKey := r.getRoomKey(params.RoomCode)
	claimed, err := r.rc.HSetNX(ctx, roomKey, "id", params.Id).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}
	if !claimed {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomCodeTaken)
		return room.ErrRoomCodeTaken
	}

	stored := room.Room{
		Id:              params.Id,
		RoomCode:        params.RoomCode,
		CreatorId:       params.CreatorId,
		CreatorUsername: params.CreatorUsername,
		IsPublic:        params.IsPublic,
		IsActive:        true,
		CreatedAt:       params.CreatedAt,
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, roomKey, stored)
	pipe.Expire(ctx, roomKey, r.keyTTL)
	if params.IsPublic {
		pipe.SAdd(ctx, r.getPublicRoomsKey(), params.RoomCode)
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomCode string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_code": roomCode,
	})

	var stored room.Room
	if err := r.rc.HGetAll(ctx, r.getRoomKey(roomCode)).Scan(&stored); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Room{}, err
	}

	if stored.Id == "" {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.Room{}, room.ErrRoomNotFound
	}

	return stored, nil
}

func (r repo) UpdateRoomVideo(ctx context.Context, params *room.UpdateRoomVideoParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	roomKey := r.getRoomKey(params.RoomCode)
	exists, err := r.rc.Exists(ctx, roomKey).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}
	if exists == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, roomKey,
		"current_video_id", params.VideoId,
		"current_video_path", params.VideoPath,
	).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) RemoveRoom(ctx context.Context, roomCode string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_code": roomCode,
	})

	userIds, err := r.GetMemberIds(ctx, roomCode)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	pipe := r.rc.TxPipeline()
	for _, userId := range userIds {
		pipe.Del(ctx, r.getMemberKey(roomCode, userId))
	}
	pipe.Del(ctx, r.getMemberListKey(roomCode))
	pipe.Del(ctx, r.getRoomKey(roomCode))
	pipe.SRem(ctx, r.getPublicRoomsKey(), roomCode)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetPublicRoomCodes(ctx context.Context) ([]string, error) {
	r.logger.DebugContext(ctx, "called")

	roomCodes, err := r.rc.SMembers(ctx, r.getPublicRoomsKey()).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	return roomCodes, nil
}
