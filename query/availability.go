package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
	"github.com/mikios34/pickup-availability/pickup"
)

// Upstream is the source of pickup SLAs.
type Upstream interface {
	// PickupSLAs returns the ranked candidates around the coordinates.
	PickupSLAs(ctx context.Context, params pickup.AvailabilityParams) ([]entity.PickupCandidate, error)
	// PickupSLA returns the candidate for params.PickupID, or nil if it cannot serve the item.
	PickupSLA(ctx context.Context, params pickup.AvailabilityParams) (*entity.PickupCandidate, error)
}

// AvailabilityQuery serves pickup.AvailabilityQuery from the pool.
type AvailabilityQuery struct {
	pool     *Pool
	upstream Upstream
}

func NewAvailabilityQuery(pool *Pool, upstream Upstream) *AvailabilityQuery {
	return &AvailabilityQuery{pool: pool, upstream: upstream}
}

func (q *AvailabilityQuery) Query(ctx context.Context, params pickup.AvailabilityParams) pickup.Result[[]entity.PickupCandidate] {
	return Fetch(ctx, q.pool, params.Key(), func(ctx context.Context) ([]entity.PickupCandidate, error) {
		if params.PickupID == "" {
			return q.upstream.PickupSLAs(ctx, params)
		}
		c, err := q.upstream.PickupSLA(ctx, params)
		if err != nil || c == nil {
			return nil, err
		}
		return []entity.PickupCandidate{*c}, nil
	})
}

// FavoriteSource reads a session's favorite pickup.
type FavoriteSource interface {
	FavoritePickup(ctx context.Context, sessionID uuid.UUID) (*entity.FavoritePickup, error)
}

// FavoriteQuery serves pickup.FavoriteQuery from the pool.
type FavoriteQuery struct {
	pool   *Pool
	source FavoriteSource
}

func NewFavoriteQuery(pool *Pool, source FavoriteSource) *FavoriteQuery {
	return &FavoriteQuery{pool: pool, source: source}
}

func (q *FavoriteQuery) Favorite(ctx context.Context, sessionID uuid.UUID) pickup.Result[*entity.FavoritePickup] {
	return Fetch(ctx, q.pool, pickup.FavoriteKey(sessionID), func(ctx context.Context) (*entity.FavoritePickup, error) {
		return q.source.FavoritePickup(ctx, sessionID)
	})
}

// Invalidate forgets the cached favorite so the next read refetches it.
// It is subscribed to session dispatches.
func (q *FavoriteQuery) Invalidate(sessionID uuid.UUID) {
	q.pool.Invalidate(pickup.FavoriteKey(sessionID))
}
