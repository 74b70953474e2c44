package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
)

// IntentType names a change to the session's favorite pickup.
type IntentType string

const (
	SetFavoritePickup   IntentType = "SET_FAVORITE_PICKUP"
	ClearFavoritePickup IntentType = "CLEAR_FAVORITE_PICKUP"
)

var (
	ErrInvalidIntent   = errors.New("invalid intent")
	ErrSessionNotFound = errors.New("session not found")
)

// Intent is a request to change session state. Only Service.Dispatch applies it.
type Intent struct {
	ID        uuid.UUID              `json:"id"`
	Type      IntentType             `json:"type"`
	SessionID uuid.UUID              `json:"session_id"`
	Args      *entity.FavoritePickup `json:"args,omitempty"`
	IssuedAt  time.Time              `json:"issued_at"`
}

// SetFavorite builds a SET_FAVORITE_PICKUP intent.
func SetFavorite(sessionID uuid.UUID, favorite *entity.FavoritePickup) Intent {
	return Intent{ID: uuid.New(), Type: SetFavoritePickup, SessionID: sessionID, Args: favorite, IssuedAt: time.Now().UTC()}
}

// ClearFavorite builds a CLEAR_FAVORITE_PICKUP intent.
func ClearFavorite(sessionID uuid.UUID) Intent {
	return Intent{ID: uuid.New(), Type: ClearFavoritePickup, SessionID: sessionID, IssuedAt: time.Now().UTC()}
}
