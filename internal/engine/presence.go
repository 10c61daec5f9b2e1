package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"retrochat-service/internal/models"
)

// PruneInactive drops every user whose lastActivity is older than ttl and
// appends one system "left (timeout)" message per eviction. It runs before
// retention trimming so the synthetic messages are subject to the same cap
// as everything else. Re-running with the same now is a no-op.
func PruneInactive(users []models.ChatUser, messages []models.ChatMessage, ttl time.Duration, now time.Time) ([]models.ChatUser, []models.ChatMessage, []models.ChatUser) {
	survivors := users[:0]
	var evicted []models.ChatUser

	for _, user := range users {
		if now.Sub(user.LastActivity) > ttl {
			evicted = append(evicted, user)
			continue
		}
		survivors = append(survivors, user)
	}

	for _, user := range evicted {
		messages = append(messages, newSystemMessage(fmt.Sprintf("%s left (timeout)", user.Nickname), now))
	}

	return survivors, messages, evicted
}

func newSystemMessage(text string, now time.Time) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    models.SystemUserID,
		Nickname:  "System",
		Message:   text,
		Timestamp: now,
		Type:      models.TypeSystem,
	}
}
