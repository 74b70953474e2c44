package pickup

import "github.com/mikios34/pickup-availability/entity"

// DefaultMaxVisible is how many stores the inline list shows before "see all".
const DefaultMaxVisible = 3

// Overflow splits a ranked candidate list into the inline prefix and the
// full list shown on demand.
type Overflow struct {
	Visible           []entity.PickupCandidate `json:"visible"`
	OverflowAvailable bool                     `json:"overflowAvailable"`
	All               []entity.PickupCandidate `json:"all"`
}

// Present keeps the upstream order. The full list is the fetched slice
// itself, so expanding it never needs another query.
func Present(candidates []entity.PickupCandidate, maxVisible int) Overflow {
	if maxVisible < 0 {
		maxVisible = 0
	}
	n := min(maxVisible, len(candidates))
	return Overflow{
		Visible:           candidates[:n:n],
		OverflowAvailable: len(candidates) > maxVisible,
		All:               candidates,
	}
}
