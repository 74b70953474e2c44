package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is an anonymous shopper session. FirebaseUID is set when the
// shopper was signed in when the session was created.
type Session struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	FirebaseUID *string        `json:"firebase_uid,omitempty" gorm:"type:text;uniqueIndex;default:null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	// Relation: FavoritePickup (one-to-one)
	FavoritePickup *FavoritePickup `json:"favorite_pickup,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
