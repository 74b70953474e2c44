package pickup

import (
	"context"

	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
	"github.com/mikios34/pickup-availability/session"
)

// Phase of an asynchronous query.
type Phase int

const (
	Pending Phase = iota
	Failed
	Ready
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Result is the observable state of a query for the parameter set named by Key.
type Result[T any] struct {
	Phase Phase
	Key   string
	Data  T
	Err   error
}

func PendingResult[T any](key string) Result[T] {
	return Result[T]{Phase: Pending, Key: key}
}

func FailedResult[T any](key string, err error) Result[T] {
	return Result[T]{Phase: Failed, Key: key, Err: err}
}

func ReadyResult[T any](key string, data T) Result[T] {
	return Result[T]{Phase: Ready, Key: key, Data: data}
}

// For returns r when it answers key and a pending result otherwise, so a
// result for superseded parameters is never applied.
func For[T any](r Result[T], key string) Result[T] {
	if r.Key != key {
		return PendingResult[T](key)
	}
	return r
}

// AvailabilityQuery fetches ranked pickup candidates. It must not block on
// the network: an unsettled request reports Pending.
type AvailabilityQuery interface {
	Query(ctx context.Context, params AvailabilityParams) Result[[]entity.PickupCandidate]
}

// FavoriteQuery fetches the favorite pickup of a session; Data is nil when
// the session has none.
type FavoriteQuery interface {
	Favorite(ctx context.Context, sessionID uuid.UUID) Result[*entity.FavoritePickup]
}

// Dispatcher is the write channel to session state.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent session.Intent) error
}
