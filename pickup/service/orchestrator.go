package service

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/mikios34/pickup-availability/entity"
	pickuppkg "github.com/mikios34/pickup-availability/pickup"
	"github.com/mikios34/pickup-availability/session"
)

// orchestrator implements pickup.Service. It holds no state between
// evaluations; the favorite pickup lives in the session store and is only
// changed through the dispatcher.
type orchestrator struct {
	availability pickuppkg.AvailabilityQuery
	favorites    pickuppkg.FavoriteQuery
	dispatcher   pickuppkg.Dispatcher
	logger       logr.Logger
}

// NewOrchestrator wires the selection state machine to its queries and the
// session dispatcher.
func NewOrchestrator(availability pickuppkg.AvailabilityQuery, favorites pickuppkg.FavoriteQuery, dispatcher pickuppkg.Dispatcher, logger logr.Logger) pickuppkg.Service {
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &orchestrator{
		availability: availability,
		favorites:    favorites,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

func (o *orchestrator) Evaluate(ctx context.Context, in pickuppkg.Inputs) pickuppkg.UIState {
	if pickuppkg.EvaluateGuard(in.SkuSelector) == pickuppkg.Blocked {
		return pickuppkg.SelectionIncomplete()
	}
	if in.SelectedItem == nil {
		return pickuppkg.Nothing()
	}
	log := o.logger.WithValues("session", in.SessionID.String())

	favKey := pickuppkg.FavoriteKey(in.SessionID)
	fav := pickuppkg.For(o.favorites.Favorite(ctx, in.SessionID), favKey)
	switch fav.Phase {
	case pickuppkg.Pending:
		return pickuppkg.Loading()
	case pickuppkg.Failed:
		log.Error(fav.Err, "favorite pickup query failed")
		return pickuppkg.NoCandidates()
	}
	favorite := fav.Data

	coords := pickuppkg.ResolveCoordinates(favorite, in.Location)
	if !coords.Present() {
		return pickuppkg.Nothing()
	}
	params := pickuppkg.AvailabilityParams{
		ItemID:   in.SelectedItem.ItemID,
		SellerID: in.SelectedItem.SellerID(),
		Lat:      coords.Lat,
		Long:     coords.Long,
		Country:  in.Country,
	}

	selectedAddressID := ""
	if favorite != nil {
		selectedAddressID = favorite.Address.AddressID
		favParams := params
		favParams.PickupID = selectedAddressID
		res := pickuppkg.For(o.availability.Query(ctx, favParams), favParams.Key())
		switch res.Phase {
		case pickuppkg.Pending:
			return pickuppkg.Loading()
		case pickuppkg.Ready:
			if c, ok := matchFavorite(res.Data, favorite); ok {
				return pickuppkg.StoreSelected(c)
			}
			log.V(1).Info("favorite pickup not available for item", "addressId", selectedAddressID, "item", params.ItemID)
		case pickuppkg.Failed:
			log.V(1).Info("favorite pickup lookup failed", "addressId", selectedAddressID, "reason", res.Err)
		}
	}

	res := pickuppkg.For(o.availability.Query(ctx, params), params.Key())
	switch res.Phase {
	case pickuppkg.Pending:
		return pickuppkg.Loading()
	case pickuppkg.Failed:
		log.Error(res.Err, "pickup availability query failed", "item", params.ItemID)
		return pickuppkg.NoCandidates()
	}
	if len(res.Data) == 0 {
		return pickuppkg.NoCandidates()
	}
	return pickuppkg.ChooseStore(res.Data, selectedAddressID)
}

// matchFavorite finds the candidate with the favorite's address identity.
func matchFavorite(candidates []entity.PickupCandidate, favorite *entity.FavoritePickup) (entity.PickupCandidate, bool) {
	id := favorite.Address.AddressID
	if id == "" {
		return entity.PickupCandidate{}, false
	}
	for _, c := range candidates {
		if c.Address.AddressID == id {
			return c, true
		}
	}
	return entity.PickupCandidate{}, false
}

func (o *orchestrator) SelectPickup(ctx context.Context, sessionID uuid.UUID, candidate entity.PickupCandidate) error {
	return o.dispatcher.Dispatch(ctx, session.SetFavorite(sessionID, entity.FavoriteFromCandidate(candidate)))
}

func (o *orchestrator) ClearPickup(ctx context.Context, sessionID uuid.UUID) error {
	return o.dispatcher.Dispatch(ctx, session.ClearFavorite(sessionID))
}
