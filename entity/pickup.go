package entity

import (
	"time"

	"github.com/google/uuid"
)

// Address describes a pickup point location. GeoCoordinates keeps the
// upstream layout of [long, lat].
type Address struct {
	AddressID      string    `json:"addressId" gorm:"type:text;index"`
	Street         string    `json:"street" gorm:"type:text"`
	Number         *string   `json:"number,omitempty" gorm:"type:text"`
	Complement     *string   `json:"complement,omitempty" gorm:"type:text"`
	Neighborhood   string    `json:"neighborhood,omitempty" gorm:"type:text"`
	City           string    `json:"city,omitempty" gorm:"type:text"`
	State          string    `json:"state,omitempty" gorm:"type:text"`
	Country        string    `json:"country,omitempty" gorm:"type:text"`
	PostalCode     string    `json:"postalCode,omitempty" gorm:"type:text"`
	GeoCoordinates []float64 `json:"geoCoordinates,omitempty" gorm:"type:jsonb;serializer:json"`
}

// Line renders "<street>, <number>", or only the street when the number is unknown.
func (a Address) Line() string {
	if a.Number == nil || *a.Number == "" {
		return a.Street
	}
	return a.Street + ", " + *a.Number
}

// LongLat unpacks GeoCoordinates. ok is false unless both components are present.
func (a Address) LongLat() (long, lat float64, ok bool) {
	if len(a.GeoCoordinates) < 2 {
		return 0, 0, false
	}
	return a.GeoCoordinates[0], a.GeoCoordinates[1], true
}

// ShippingEstimate is the server-computed time-to-availability of a pickup
// candidate. An estimate that was not provided is Available=false.
type ShippingEstimate struct {
	Value     string `json:"value,omitempty"`
	Available bool   `json:"available"`
}

// EstimateOf wraps a raw upstream estimate; an empty string means unavailable.
func EstimateOf(raw string) ShippingEstimate {
	if raw == "" {
		return ShippingEstimate{}
	}
	return ShippingEstimate{Value: raw, Available: true}
}

// PickupCandidate is a store eligible for in-store pickup of the selected SKU.
// Candidates arrive ranked by the upstream source and are never re-sorted.
type PickupCandidate struct {
	ID               string           `json:"id"`
	FriendlyName     string           `json:"friendlyName"`
	Address          Address          `json:"address"`
	ShippingEstimate ShippingEstimate `json:"shippingEstimate"`
}

// FavoritePickup is the pickup point a session chose. At most one per session.
type FavoritePickup struct {
	ID        uuid.UUID `json:"-" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	SessionID uuid.UUID `json:"-" gorm:"type:uuid;uniqueIndex;not null"`
	CacheID   string    `json:"cacheId" gorm:"type:text"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Address   Address   `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// FavoriteFromCandidate builds the favorite a shopper gets when picking a candidate.
func FavoriteFromCandidate(c PickupCandidate) *FavoritePickup {
	return &FavoritePickup{
		CacheID: c.ID,
		Name:    c.FriendlyName,
		Address: c.Address,
	}
}
