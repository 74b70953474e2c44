package middleware

import (
	"context"
	"net/http"

	fbAuth "firebase.google.com/go/auth"
	"github.com/gin-gonic/gin"
)

// TokenVerifier verifies Firebase ID tokens; *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbAuth.Token, error)
}

// OptionalFirebaseAuth sets `firebase_uid` in context when a valid Firebase
// ID token is presented as Bearer. Requests without a token pass through
// anonymous; a token that fails verification is rejected.
//
// Typical usage:
//
//	mw.OptionalFirebaseAuth(firebaseAuthClient)
func OptionalFirebaseAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		idToken := bearer(c.GetHeader("Authorization"))
		if idToken == "" {
			c.Next()
			return
		}
		if verifier == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "firebase auth not configured"})
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired firebase token"})
			return
		}

		c.Set("firebase_uid", token.UID)
		c.Next()
	}
}
