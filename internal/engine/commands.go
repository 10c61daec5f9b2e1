package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"retrochat-service/internal/models"
	"retrochat-service/internal/observability"
)

// CommandContext is what the interpreter is allowed to see: the invoker,
// the current occupant list, and the room ID (empty in the channel).
type CommandContext struct {
	Invoker models.ChatUser
	Users   []models.ChatUser
	RoomID  string
}

// IsCommand reports whether a submitted message should be routed to the
// interpreter instead of the message log.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

// Interpret parses a leading-/ command into zero or more messages. Verbs
// match case-insensitively; anything unrecognized is silently dropped.
// All output is persisted into the log uniformly, system and action alike.
func Interpret(text string, cctx CommandContext, now time.Time) []models.ChatMessage {
	verb, rest := splitCommand(text)

	switch verb {
	case "help":
		observability.IncCommand("help")
		return []models.ChatMessage{newSystemMessage(helpText(cctx.RoomID != ""), now)}
	case "users":
		observability.IncCommand("users")
		return []models.ChatMessage{newSystemMessage(occupantsText(cctx.Users), now)}
	case "roomid":
		if cctx.RoomID == "" {
			return nil
		}
		observability.IncCommand("roomid")
		return []models.ChatMessage{newSystemMessage(fmt.Sprintf("Room ID: %s", cctx.RoomID), now)}
	case "me":
		if rest == "" {
			return nil
		}
		observability.IncCommand("me")
		return []models.ChatMessage{{
			ID:        uuid.NewString(),
			UserID:    cctx.Invoker.ID,
			Nickname:  cctx.Invoker.Nickname,
			Avatar:    cctx.Invoker.Avatar,
			Message:   rest,
			Timestamp: now,
			Type:      models.TypeAction,
		}}
	default:
		observability.IncCommand("unknown")
		return nil
	}
}

func splitCommand(text string) (string, string) {
	text = strings.TrimPrefix(text, "/")
	parts := strings.SplitN(text, " ", 2)
	verb := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return verb, ""
	}
	return verb, strings.TrimSpace(parts[1])
}

func helpText(inRoom bool) string {
	commands := []string{"/help", "/users", "/me <action>"}
	if inRoom {
		commands = append(commands, "/roomid")
	}
	return "Available commands: " + strings.Join(commands, ", ")
}

func occupantsText(users []models.ChatUser) string {
	names := make([]string, 0, len(users))
	for _, user := range users {
		name := user.Nickname
		if user.Avatar != "" {
			name = user.Avatar + " " + name
		}
		names = append(names, name)
	}
	return fmt.Sprintf("Online (%d): %s", len(users), strings.Join(names, ", "))
}
