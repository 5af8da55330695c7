package controller

import "context"

type contextKey int

const (
	userIdCtxKey contextKey = iota
	usernameCtxKey
	roomCodeCtxKey
)

func (c controller) getUserIdFromCtx(ctx context.Context) string {
	userId, ok := ctx.Value(userIdCtxKey).(string)
	if !ok {
		return ""
	}

	return userId
}

func (c controller) getUsernameFromCtx(ctx context.Context) string {
	username, ok := ctx.Value(usernameCtxKey).(string)
	if !ok {
		return ""
	}

	return username
}

func (c controller) getRoomCodeFromCtx(ctx context.Context) string {
	roomCode, ok := ctx.Value(roomCodeCtxKey).(string)
	if !ok {
		return ""
	}

	return roomCode
}
