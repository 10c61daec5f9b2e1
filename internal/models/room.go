package models

import "time"

// Room is one private chat instance. An empty password means the room
// is open to anyone who knows the ID.
type Room struct {
	ID          string        `json:"id"`
	Password    string        `json:"password"`
	Creator     string        `json:"creator"`
	CreatedAt   time.Time     `json:"createdAt"`
	Messages    []ChatMessage `json:"messages"`
	Users       []ChatUser    `json:"users"`
	BannedUsers []string      `json:"bannedUsers"`
}

// RoomSet is the full persisted state of the private chat system,
// keyed by room ID.
type RoomSet map[string]*Room

// IsBanned reports ban-list membership.
func (r *Room) IsBanned(userID string) bool {
	for _, id := range r.BannedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// LastActivityAt is the timestamp of the newest message, or CreatedAt
// when the log is empty. Used by the stale-room sweep.
func (r *Room) LastActivityAt() time.Time {
	if len(r.Messages) == 0 {
		return r.CreatedAt
	}
	return r.Messages[len(r.Messages)-1].Timestamp
}
