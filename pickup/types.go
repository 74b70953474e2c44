package pickup

import (
	"fmt"

	"github.com/google/uuid"
)

// Seller offers the selected item.
type Seller struct {
	SellerID          string `json:"sellerId"`
	AvailableQuantity int    `json:"availableQuantity"`
}

// SelectedItem is the SKU currently selected on the product page.
type SelectedItem struct {
	ItemID  string   `json:"itemId"`
	Sellers []Seller `json:"sellers"`
}

// SellerID returns the first seller's id, or "" when the item has no sellers.
func (i *SelectedItem) SellerID() string {
	if i == nil || len(i.Sellers) == 0 {
		return ""
	}
	return i.Sellers[0].SellerID
}

// SkuSelectorState mirrors the variant selector of the product page.
type SkuSelectorState struct {
	IsVisible                bool `json:"isVisible"`
	AreAllVariationsSelected bool `json:"areAllVariationsSelected"`
}

// Coordinates to query pickup points around. An empty field means null.
type Coordinates struct {
	Lat  string `json:"lat"`
	Long string `json:"long"`
}

// NoCoordinates is the absent sentinel returned by ResolveCoordinates.
var NoCoordinates = Coordinates{}

// Present reports whether both lat and long are set.
func (c Coordinates) Present() bool {
	return c.Lat != "" && c.Long != ""
}

// Inputs is everything the orchestrator reads for one render of the product page.
type Inputs struct {
	SessionID    uuid.UUID
	SelectedItem *SelectedItem
	SkuSelector  SkuSelectorState
	// Location is the shopper-provided location, used when no favorite pickup exists.
	Location Coordinates
	Country  string
}

// AvailabilityParams identifies one pickup availability request. PickupID is
// set only for the favorite-keyed lookup.
type AvailabilityParams struct {
	ItemID   string
	SellerID string
	Lat      string
	Long     string
	Country  string
	PickupID string
}

// Key is the cache and staleness key of the request. Any parameter change
// yields a different key.
func (p AvailabilityParams) Key() string {
	if p.PickupID != "" {
		return fmt.Sprintf("skuPickupSLA:%q:%q:%q:%q:%q:%q", p.ItemID, p.SellerID, p.Lat, p.Long, p.Country, p.PickupID)
	}
	return fmt.Sprintf("skuPickupSLAs:%q:%q:%q:%q:%q", p.ItemID, p.SellerID, p.Lat, p.Long, p.Country)
}

// FavoriteKey is the cache key of a session's favorite pickup lookup.
func FavoriteKey(sessionID uuid.UUID) string {
	return "favoritePickup:" + sessionID.String()
}
