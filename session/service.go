package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
)

// Service owns session state. Dispatch is the only way to change a favorite pickup.
type Service interface {
	// CreateSession starts a session, or returns the one already bound to firebaseUID.
	CreateSession(ctx context.Context, firebaseUID string) (*entity.Session, error)
	FavoritePickup(ctx context.Context, sessionID uuid.UUID) (*entity.FavoritePickup, error)
	Dispatch(ctx context.Context, intent Intent) error
	// Subscribe registers fn to run after every applied intent, in registration order.
	Subscribe(fn func(sessionID uuid.UUID))
}
