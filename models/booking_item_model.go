package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ItemTypeTour     = "tour"
	ItemTypeTransfer = "transfer"
	ItemTypePackage  = "package"
)

// BookingItem is one purchased line of a booking. Exactly one of TourID,
// TransferRouteID and PackageID is set, matching ItemType.
type BookingItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID uuid.UUID `gorm:"not null;index" json:"booking_id"`
	ItemType  string    `gorm:"size:20;not null" json:"item_type"`

	TourID          *uuid.UUID `json:"tour_id,omitempty"`
	TransferRouteID *uuid.UUID `json:"transfer_route_id,omitempty"`
	PackageID       *uuid.UUID `json:"package_id,omitempty"`

	PickupLocation  *string    `gorm:"size:255" json:"pickup_location,omitempty"`
	DropoffLocation *string    `gorm:"size:255" json:"dropoff_location,omitempty"`
	TravelDate      time.Time  `gorm:"not null" json:"travel_date"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`

	Adults       int `gorm:"not null;default:1" json:"adults"`
	Children     int `gorm:"not null;default:0" json:"children"`
	Luggage      int `gorm:"not null;default:0" json:"luggage"`
	VehicleCount int `gorm:"not null;default:1" json:"vehicle_count"`

	Subtotal int64 `gorm:"not null" json:"subtotal"`

	// Free-form customer notes only; anything with meaning to the system
	// gets its own column.
	Notes datatypes.JSONMap `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *BookingItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Passengers is the headcount used for per-person pricing.
func (i *BookingItem) Passengers() int {
	return i.Adults + i.Children
}
