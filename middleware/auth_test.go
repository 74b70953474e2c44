package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fbAuth "firebase.google.com/go/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authpkg "github.com/mikios34/pickup-availability/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func echoContext(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session_id": c.GetString("session_id"), "firebase_uid": c.GetString("firebase_uid")})
}

func TestRequireSession(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireSession("secret"), echoContext)

	token, err := authpkg.SignJWT("secret", "s-1", "uid-1", time.Hour)
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"session_id":"s-1","firebase_uid":"uid-1"}`, w.Body.String())
	})

	t.Run("query parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?token="+token, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbAuth.Token, error) {
	if idToken != "good" {
		return nil, errors.New("bad token")
	}
	return &fbAuth.Token{UID: "uid-42"}, nil
}

func TestOptionalFirebaseAuth(t *testing.T) {
	r := gin.New()
	r.POST("/sessions", OptionalFirebaseAuth(fakeVerifier{}), echoContext)

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call("")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"","firebase_uid":""}`, w.Body.String())

	w = call("Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"","firebase_uid":"uid-42"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call("Bearer bad").Code)
}
