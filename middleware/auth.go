package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authpkg "github.com/mikios34/pickup-availability/auth"
)

// RequireSession validates the session JWT and places session_id (and
// firebase_uid when bound) into context. Browsers cannot set headers on
// websocket upgrades, so the token is also accepted as the "token" query
// parameter.
func RequireSession(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearer(c.GetHeader("Authorization"))
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}

		claims, err := authpkg.ParseAndValidate(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("session_id", claims.SessionID)
		if claims.FirebaseUID != "" {
			c.Set("firebase_uid", claims.FirebaseUID)
		}
		c.Next()
	}
}

func bearer(header string) string {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return header[7:]
}
