package room

type SetRoomParams struct {
	Id              string
	RoomCode        string
	CreatorId       string
	CreatorUsername string
	IsPublic        bool
	CreatedAt       int64
}

type SetMemberParams struct {
	RoomCode string
	UserId   string
	Username string
	JoinedAt int64
}

type RemoveMemberParams struct {
	RoomCode string
	UserId   string
}

type GetMemberParams struct {
	RoomCode string
	UserId   string
}

type UpdateRoomVideoParams struct {
	RoomCode  string
	VideoId   string
	VideoPath string
}
