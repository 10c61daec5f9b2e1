package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"retrochat-service/internal/engine"
	"retrochat-service/internal/models"
	"retrochat-service/internal/telemetry"
)

// RoomHandler serves the password-protected multi-room chat system.
type RoomHandler struct {
	rooms engine.RoomService
	audit *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(rooms engine.RoomService, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{rooms: rooms, audit: audit}
}

// Get is the polling read for one room. A userId query acts as a
// presence heartbeat.
func (h *RoomHandler) Get(c *gin.Context) {
	roomID := c.Query("roomId")
	if roomID == "" {
		respondBadRequest(c, "roomId is required")
		return
	}

	view, err := h.rooms.Fetch(c.Request.Context(), roomID, c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type roomActionRequest struct {
	Action string          `json:"action" binding:"required"`
	Data   json.RawMessage `json:"data" binding:"required"`
}

type roomCreatePayload struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

type roomJoinPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Password string `json:"password"`
}

type roomLeavePayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type roomSendPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Message  string `json:"message"`
}

// Post dispatches one tagged action: create_room, join_room, leave_room,
// send_message or command.
func (h *RoomHandler) Post(c *gin.Context) {
	var req roomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	switch req.Action {
	case "create_room":
		h.create(c, req.Data)
	case "join_room":
		h.join(c, req.Data)
	case "leave_room":
		h.leave(c, req.Data)
	case "send_message":
		h.send(c, req.Data)
	case "command":
		h.command(c, req.Data)
	default:
		respondBadRequest(c, "unknown action")
	}
}

func (h *RoomHandler) create(c *gin.Context, data json.RawMessage) {
	var payload roomCreatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.UserID == "" || payload.Nickname == "" {
		respondBadRequest(c, "userId and nickname are required")
		return
	}

	view, err := h.rooms.Create(c.Request.Context(), models.ChatUser{
		ID:       payload.UserID,
		Nickname: payload.Nickname,
		Avatar:   payload.Avatar,
	}, payload.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.EventRoomCreated, view.RoomID, payload.UserID, "", requestIDFromContext(c))
	c.JSON(http.StatusCreated, view)
}

func (h *RoomHandler) join(c *gin.Context, data json.RawMessage) {
	var payload roomJoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.RoomID == "" || payload.UserID == "" || payload.Nickname == "" {
		respondBadRequest(c, "roomId, userId and nickname are required")
		return
	}

	view, err := h.rooms.Join(c.Request.Context(), payload.RoomID, models.ChatUser{
		ID:       payload.UserID,
		Nickname: payload.Nickname,
		Avatar:   payload.Avatar,
	}, payload.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RoomHandler) leave(c *gin.Context, data json.RawMessage) {
	var payload roomLeavePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.RoomID == "" || payload.UserID == "" {
		respondBadRequest(c, "roomId and userId are required")
		return
	}

	if err := h.rooms.Leave(c.Request.Context(), payload.RoomID, payload.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *RoomHandler) send(c *gin.Context, data json.RawMessage) {
	var payload roomSendPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.RoomID == "" || payload.UserID == "" || payload.Message == "" {
		respondBadRequest(c, "roomId, userId and message are required")
		return
	}

	if engine.IsCommand(payload.Message) {
		out, err := h.rooms.Command(c.Request.Context(), payload.RoomID, payload.UserID, payload.Message)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": out})
		return
	}

	msg, err := h.rooms.Send(c.Request.Context(), payload.RoomID, models.ChatUser{
		ID:       payload.UserID,
		Nickname: payload.Nickname,
		Avatar:   payload.Avatar,
	}, payload.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *RoomHandler) command(c *gin.Context, data json.RawMessage) {
	var payload roomSendPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if payload.RoomID == "" || payload.UserID == "" || payload.Message == "" {
		respondBadRequest(c, "roomId, userId and message are required")
		return
	}

	out, err := h.rooms.Command(c.Request.Context(), payload.RoomID, payload.UserID, payload.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// Delete removes one message from a room; ownership is enforced against
// the userId query unless the caller presented the admin token.
func (h *RoomHandler) Delete(c *gin.Context) {
	roomID := c.Query("roomId")
	messageID := c.Query("messageId")
	if roomID == "" || messageID == "" {
		respondBadRequest(c, "roomId and messageId are required")
		return
	}
	userID := c.Query("userId")
	privileged := privilegedFromContext(c)
	if userID == "" && !privileged {
		respondBadRequest(c, "userId is required")
		return
	}

	if err := h.rooms.DeleteMessage(c.Request.Context(), roomID, messageID, userID, privileged); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.EventMessageDeleted, roomID, userID, messageID, requestIDFromContext(c))
	c.Status(http.StatusNoContent)
}

type banRequest struct {
	RoomID string `json:"roomId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
	Ban    *bool  `json:"ban" binding:"required"`
}

// Ban toggles ban-list membership for a user. Admin only.
func (h *RoomHandler) Ban(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if err := h.rooms.SetBan(c.Request.Context(), req.RoomID, req.UserID, *req.Ban); err != nil {
		respondError(c, err)
		return
	}

	eventType := telemetry.EventUserUnbanned
	if *req.Ban {
		eventType = telemetry.EventUserBanned
	}
	h.audit.Emit(c.Request.Context(), eventType, req.RoomID, req.UserID, "", requestIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"success": true, "banned": *req.Ban})
}
