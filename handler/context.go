package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/session"
)

// sessionID reads the session placed into context by middleware.RequireSession.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("session_id"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "session_id missing in context"})
		return uuid.Nil, false
	}
	return id, true
}

func writeDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidIntent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pickup selection", "detail": err.Error()})
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update favorite pickup", "detail": err.Error()})
	}
}
