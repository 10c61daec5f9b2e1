package engine

import "retrochat-service/internal/models"

// Trim keeps the newest max messages, preserving order. It is pure and
// must run last in a request cycle so user content is never dropped
// ahead of synthetic messages appended during the same request.
func Trim(messages []models.ChatMessage, max int) []models.ChatMessage {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}
