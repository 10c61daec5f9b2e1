package models

import "time"

// SystemUserID marks server-generated messages.
const SystemUserID = "system"

// Message types.
const (
	TypeMessage = "message"
	TypeSystem  = "system"
	TypeAction  = "action"
)

// ChatMessage is one entry in a channel or room log. Logs are append-only
// and never reordered; trimming drops from the front.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// FindMessage returns the index of the message with the given ID, or -1.
func FindMessage(messages []ChatMessage, id string) int {
	for i := range messages {
		if messages[i].ID == id {
			return i
		}
	}
	return -1
}
