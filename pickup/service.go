package pickup

import (
	"context"

	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
)

// Service exposes pickup selection for a product page.
type Service interface {
	// Evaluate projects the inputs and current query phases into a UI state.
	// It never fails; failures surface as states.
	Evaluate(ctx context.Context, in Inputs) UIState
	// SelectPickup makes the candidate the session's favorite pickup.
	SelectPickup(ctx context.Context, sessionID uuid.UUID, candidate entity.PickupCandidate) error
	// ClearPickup removes the session's favorite pickup.
	ClearPickup(ctx context.Context, sessionID uuid.UUID) error
}
