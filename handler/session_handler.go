package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authpkg "github.com/mikios34/pickup-availability/auth"
	sessionpkg "github.com/mikios34/pickup-availability/session"
)

// SessionHandler issues and reads shopper sessions.
type SessionHandler struct {
	service  sessionpkg.Service
	secret   string
	tokenTTL time.Duration
}

func NewSessionHandler(svc sessionpkg.Service, secret string, tokenTTL time.Duration) *SessionHandler {
	return &SessionHandler{service: svc, secret: secret, tokenTTL: tokenTTL}
}

// CreateSession starts a session and returns its token. A verified Firebase
// user gets back the session already bound to them.
func (h *SessionHandler) CreateSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		firebaseUID := c.GetString("firebase_uid")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		sess, err := h.service.CreateSession(ctx, firebaseUID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "detail": err.Error()})
			return
		}

		token, err := authpkg.SignJWT(h.secret, sess.ID.String(), firebaseUID, h.tokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token", "detail": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"session": gin.H{"id": sess.ID},
			"token":   token,
		})
	}
}

// GetSession returns the session and its favorite pickup, if any.
func (h *SessionHandler) GetSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionID(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		fav, err := h.service.FavoritePickup(ctx, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "favoritePickup": fav})
	}
}
