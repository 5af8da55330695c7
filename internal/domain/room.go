package domain

import (
	"strings"
	"time"
)

// Member is a participant of a watch party. Created on join, removed on
// leave; a dropped socket alone does not end membership.
type Member struct {
	UserId   string    `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room is a watch party: one creator, zero or more members, one current
// video pointer. memberCount always equals len(members).
type Room struct {
	Id               string    `json:"id"`
	RoomCode         string    `json:"roomCode"`
	CreatorId        string    `json:"creatorId"`
	CreatorUsername  string    `json:"creatorUsername"`
	IsPublic         bool      `json:"isPublic"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	CurrentVideoId   *string   `json:"currentVideoId,omitempty"`
	CurrentVideoPath *string   `json:"currentVideoPath,omitempty"`
	Members          []Member  `json:"members"`
	MemberCount      int       `json:"memberCount"`
}

// NormalizeRoomCode maps a user-entered room code to its canonical
// form. Codes compare case-insensitively as uppercase.
func NormalizeRoomCode(roomCode string) string {
	return strings.ToUpper(strings.TrimSpace(roomCode))
}
