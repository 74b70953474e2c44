package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
)

// Repository specifies session related database operations.
type Repository interface {
	StoreSession(ctx context.Context, s *entity.Session) (*entity.Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	// GetSessionByFirebaseUID returns nil without error when no session is bound to uid.
	GetSessionByFirebaseUID(ctx context.Context, uid string) (*entity.Session, error)
	// GetFavoritePickup returns nil without error when the session has no favorite.
	GetFavoritePickup(ctx context.Context, sessionID uuid.UUID) (*entity.FavoritePickup, error)
	UpsertFavoritePickup(ctx context.Context, f *entity.FavoritePickup) error
	DeleteFavoritePickup(ctx context.Context, sessionID uuid.UUID) error
}
