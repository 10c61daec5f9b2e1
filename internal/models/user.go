package models

import "time"

// ChatUser is a present occupant of the channel or of a room.
// Users are unique by ID within one room or channel.
type ChatUser struct {
	ID           string    `json:"id"`
	Nickname     string    `json:"nickname"`
	Avatar       string    `json:"avatar"`
	JoinTime     time.Time `json:"joinTime"`
	LastActivity time.Time `json:"lastActivity"`
}

// UpsertUser replaces the user with the same ID or appends a new one.
// It reports whether the user was already present.
func UpsertUser(users []ChatUser, user ChatUser) ([]ChatUser, bool) {
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			return users, true
		}
	}
	return append(users, user), false
}

// RemoveUser deletes the user with the given ID, preserving order.
// Removing an absent ID is a no-op.
func RemoveUser(users []ChatUser, id string) ([]ChatUser, bool) {
	for i := range users {
		if users[i].ID == id {
			return append(users[:i], users[i+1:]...), true
		}
	}
	return users, false
}

// FindUser returns a pointer into the slice for in-place updates.
func FindUser(users []ChatUser, id string) *ChatUser {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}
