package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"retrochat-service/internal/engine"
	"retrochat-service/internal/models"
	"retrochat-service/internal/telemetry"
)

// ChannelHandler serves the public single-channel chatroom.
type ChannelHandler struct {
	channel engine.ChannelService
	audit   *telemetry.AuditEmitter
}

// NewChannelHandler builds a ChannelHandler.
func NewChannelHandler(channel engine.ChannelService, audit *telemetry.AuditEmitter) *ChannelHandler {
	return &ChannelHandler{channel: channel, audit: audit}
}

// Get is the polling read. A userId query acts as a presence heartbeat.
func (h *ChannelHandler) Get(c *gin.Context) {
	view, err := h.channel.Fetch(c.Request.Context(), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type channelActionRequest struct {
	Action string          `json:"action" binding:"required"`
	Data   json.RawMessage `json:"data" binding:"required"`
}

type channelJoinPayload struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type channelLeavePayload struct {
	UserID string `json:"userId"`
}

type channelSendPayload struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Message  string `json:"message"`
}

// Post dispatches one tagged action: join, leave, send or command.
func (h *ChannelHandler) Post(c *gin.Context) {
	var req channelActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	switch req.Action {
	case "join":
		h.join(c, req.Data)
	case "leave":
		h.leave(c, req.Data)
	case "send":
		h.send(c, req.Data)
	case "command":
		h.command(c, req.Data)
	default:
		respondBadRequest(c, "unknown action")
	}
}

func (h *ChannelHandler) join(c *gin.Context, data json.RawMessage) {
	var payload channelJoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.UserID == "" || payload.Nickname == "" {
		respondBadRequest(c, "userId and nickname are required")
		return
	}

	view, err := h.channel.Join(c.Request.Context(), models.ChatUser{
		ID:       payload.UserID,
		Nickname: payload.Nickname,
		Avatar:   payload.Avatar,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ChannelHandler) leave(c *gin.Context, data json.RawMessage) {
	var payload channelLeavePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.UserID == "" {
		respondBadRequest(c, "userId is required")
		return
	}

	if err := h.channel.Leave(c.Request.Context(), payload.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChannelHandler) send(c *gin.Context, data json.RawMessage) {
	var payload channelSendPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.UserID == "" || payload.Nickname == "" || payload.Message == "" {
		respondBadRequest(c, "userId, nickname and message are required")
		return
	}

	user := models.ChatUser{ID: payload.UserID, Nickname: payload.Nickname, Avatar: payload.Avatar}

	if engine.IsCommand(payload.Message) {
		out, err := h.channel.Command(c.Request.Context(), user, payload.Message)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": out})
		return
	}

	msg, err := h.channel.Send(c.Request.Context(), user, payload.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChannelHandler) command(c *gin.Context, data json.RawMessage) {
	var payload channelSendPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.UserID == "" || payload.Message == "" {
		respondBadRequest(c, "userId and message are required")
		return
	}

	out, err := h.channel.Command(c.Request.Context(), models.ChatUser{
		ID:       payload.UserID,
		Nickname: payload.Nickname,
		Avatar:   payload.Avatar,
	}, payload.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// Delete removes one message; ownership is enforced against the userId
// query unless the caller presented the admin token.
func (h *ChannelHandler) Delete(c *gin.Context) {
	messageID := c.Query("messageId")
	if messageID == "" {
		respondBadRequest(c, "messageId is required")
		return
	}
	userID := c.Query("userId")
	privileged := privilegedFromContext(c)
	if userID == "" && !privileged {
		respondBadRequest(c, "userId is required")
		return
	}

	if err := h.channel.DeleteMessage(c.Request.Context(), messageID, userID, privileged); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.EventMessageDeleted, "", userID, messageID, requestIDFromContext(c))
	c.Status(http.StatusNoContent)
}
