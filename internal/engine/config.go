package engine

import (
	"time"

	"retrochat-service/internal/models"
)

// Config carries every tunable of the chat engine. Seed data and limits
// are injected here instead of living in package globals.
type Config struct {
	ChannelKey string
	RoomSetKey string

	ChannelTTL time.Duration
	RoomTTL    time.Duration

	ChannelMaxMessages int
	RoomMaxMessages    int

	MaxMessageLen  int
	MaxNicknameLen int

	// RoomStaleAfter is how long an empty room may sit idle before the
	// sweep deletes it.
	RoomStaleAfter time.Duration

	// DefaultChannel seeds the channel document when the store has none.
	DefaultChannel models.ChannelSnapshot
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		ChannelKey:         "chat:channel",
		RoomSetKey:         "chat:rooms",
		ChannelTTL:         5 * time.Minute,
		RoomTTL:            10 * time.Minute,
		ChannelMaxMessages: 100,
		RoomMaxMessages:    200,
		MaxMessageLen:      500,
		MaxNicknameLen:     20,
		RoomStaleAfter:     24 * time.Hour,
	}
}
