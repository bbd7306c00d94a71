package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger event types, one per kind of booking mutation or recorded fact.
const (
	EventBookingCreated    = "booking_created"
	EventBookingConfirmed  = "booking_confirmed"
	EventBookingCancelled  = "booking_cancelled"
	EventBookingCompleted  = "booking_completed"
	EventBookingReopened   = "booking_reopened"
	EventMarkedPaid        = "marked_paid"
	EventPaymentApplied    = "payment_applied"
	EventPaymentPending    = "payment_pending"
	EventPaymentFailed     = "payment_failed"
	EventSessionCreated    = "checkout_session_created"
	EventIntegrityWarning  = "integrity_warning"
	EventReviewRequested   = "review_requested"
	EventPaymentReminder   = "payment_reminder_sent"
)

// BookingEvent is one entry of the append-only per-booking ledger. Rows are
// never updated or deleted; there is deliberately no UpdatedAt.
type BookingEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	BookingID uuid.UUID      `gorm:"not null;index" json:"booking_id"`
	EventType string         `gorm:"size:40;not null" json:"event_type"`
	Payload   datatypes.JSON `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *BookingEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
