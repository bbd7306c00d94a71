package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gateway event kinds after normalization.
const (
	GatewayEventSuccess = "success"
	GatewayEventPending = "pending"
	GatewayEventFailure = "failure"
)

// PaymentEvent records an external gateway event that has already been
// applied. The unique index on EventID is what makes webhook processing
// idempotent: re-delivery of an applied event id fails the insert and the
// reconciler treats that as a no-op.
type PaymentEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EventID    string    `gorm:"size:255;not null;uniqueIndex" json:"event_id"`
	BookingID  uuid.UUID `gorm:"not null;index" json:"booking_id"`
	Kind       string    `gorm:"size:20;not null" json:"kind"`
	Amount     int64     `gorm:"not null;default:0" json:"amount"`
	GatewayRef string    `gorm:"size:255" json:"gateway_ref"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
