package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"retrochat-service/internal/engine"
	"retrochat-service/internal/middleware"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func privilegedFromContext(c *gin.Context) bool {
	return c.GetBool(middleware.PrivilegedKey)
}

// respondError maps engine sentinels to HTTP statuses. Anything
// unrecognized is a store failure and stays opaque to the caller.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, engine.ErrBadPassword):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, engine.ErrBanned), errors.Is(err, engine.ErrNotOwner), errors.Is(err, engine.ErrNotInRoom):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, engine.ErrRoomNotFound), errors.Is(err, engine.ErrMessageNotFound):
		status = http.StatusNotFound
		message = err.Error()
	}

	c.JSON(status, gin.H{"success": false, "error": message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}
