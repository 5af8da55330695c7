package redis

import (
	"context"

	"github.com/streamnest/watchparty/internal/repository/room"
)

func (r repo) getMemberKey(roomCode, userId string) string {
	return "room:" + roomCode + ":member:" + userId
}

func (r repo) getMemberListKey(roomCode string) string {
	return "room:" + roomCode + ":memberlist"
}

func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	member := room.Member{
		Username: params.Username,
		JoinedAt: params.JoinedAt,
	}

	memberKey := r.getMemberKey(params.RoomCode, params.UserId)
	memberListKey := r.getMemberListKey(params.RoomCode)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, memberKey, member)
	pipe.Expire(ctx, memberKey, r.keyTTL)
	r.addWithIncrement(ctx, pipe, memberListKey, params.UserId)
	pipe.Expire(ctx, memberListKey, r.keyTTL)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMember(ctx context.Context, params *room.GetMemberParams) (room.Member, error) {
	r.logger.DebugContext(ctx, "called", "params", params)

	var member room.Member
	if err := r.rc.HGetAll(ctx, r.getMemberKey(params.RoomCode, params.UserId)).Scan(&member); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Member{}, err
	}

	if member.Username == "" {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
		return room.Member{}, room.ErrMemberNotFound
	}

	return member, nil
}

func (r repo) GetMemberIds(ctx context.Context, roomCode string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_code": roomCode,
	})

	userIds, err := r.rc.ZRange(ctx, r.getMemberListKey(roomCode), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	return userIds, nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	removed, err := r.rc.ZRem(ctx, r.getMemberListKey(params.RoomCode), params.UserId).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}
	if removed == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
		return room.ErrMemberNotFound
	}

	if err := r.rc.Del(ctx, r.getMemberKey(params.RoomCode, params.UserId)).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
