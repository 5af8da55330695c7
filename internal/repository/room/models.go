package room

// Room is the stored room hash. Times are unix seconds.
type Room struct {
	Id               string `redis:"id"`
	RoomCode         string `redis:"room_code"`
	CreatorId        string `redis:"creator_id"`
	CreatorUsername  string `redis:"creator_username"`
	IsPublic         bool   `redis:"is_public"`
	IsActive         bool   `redis:"is_active"`
	CreatedAt        int64  `redis:"created_at"`
	CurrentVideoId   string `redis:"current_video_id"`
	CurrentVideoPath string `redis:"current_video_path"`
}

// Member is the stored member hash, keyed by room code and user id.
type Member struct {
	Username string `redis:"username"`
	JoinedAt int64  `redis:"joined_at"`
}
