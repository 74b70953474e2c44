package pickup

import (
	"reflect"

	"github.com/mikios34/pickup-availability/entity"
)

// StateKind discriminates the pickup UI states.
type StateKind string

const (
	StateNothing             StateKind = "nothing"
	StateSelectionIncomplete StateKind = "selection_incomplete"
	StateLoading             StateKind = "loading"
	StateNoCandidates        StateKind = "no_candidates"
	StateChooseStore         StateKind = "choose_store"
	StateStoreSelected       StateKind = "store_selected"
)

// Localized message ids presentation renders for each state.
const (
	MessageSelectSku         = "store/pickup-availability.select-sku"
	MessageEmptyList         = "store/pickup-availability.empty-list"
	MessageAvailableHeader   = "store/pickup-availability.available-header"
	MessagePickupEstimate    = "store/pickup-availability.pickup-estimate"
	MessagePickupUnavailable = "store/pickup-availability.pickup-unavailable"
)

// UIState is the projection of the page inputs and query phases that
// presentation renders. It carries everything a variant needs, so rendering
// never has to query again.
type UIState struct {
	Kind       StateKind                `json:"kind"`
	MessageID  string                   `json:"messageId,omitempty"`
	Candidates []entity.PickupCandidate `json:"candidates,omitempty"`
	Selected   *entity.PickupCandidate  `json:"selected,omitempty"`
	Estimate   *entity.ShippingEstimate `json:"estimate,omitempty"`
	// SelectedAddressID marks the favorite inside a ChooseStore list.
	SelectedAddressID string `json:"selectedAddressId,omitempty"`
}

func Nothing() UIState { return UIState{Kind: StateNothing} }

func SelectionIncomplete() UIState {
	return UIState{Kind: StateSelectionIncomplete, MessageID: MessageSelectSku}
}

func Loading() UIState { return UIState{Kind: StateLoading} }

func NoCandidates() UIState {
	return UIState{Kind: StateNoCandidates, MessageID: MessageEmptyList}
}

func ChooseStore(candidates []entity.PickupCandidate, selectedAddressID string) UIState {
	return UIState{
		Kind:              StateChooseStore,
		MessageID:         MessageAvailableHeader,
		Candidates:        candidates,
		SelectedAddressID: selectedAddressID,
	}
}

func StoreSelected(c entity.PickupCandidate) UIState {
	estimate := c.ShippingEstimate
	msg := MessagePickupEstimate
	if !estimate.Available {
		msg = MessagePickupUnavailable
	}
	return UIState{
		Kind:              StateStoreSelected,
		MessageID:         msg,
		Selected:          &c,
		Estimate:          &estimate,
		SelectedAddressID: c.Address.AddressID,
	}
}

// Equal reports whether two states render identically.
func (s UIState) Equal(o UIState) bool {
	return reflect.DeepEqual(s, o)
}

// StateView is what clients receive: the state plus, for ChooseStore, the
// inline/all split of its candidates.
type StateView struct {
	State    UIState   `json:"state"`
	Overflow *Overflow `json:"overflow,omitempty"`
}

// View attaches the overflow presentation to a ChooseStore state.
func View(s UIState, maxVisible int) StateView {
	v := StateView{State: s}
	if s.Kind == StateChooseStore {
		o := Present(s.Candidates, maxVisible)
		v.Overflow = &o
	}
	return v
}
