package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking statuses. Cancelled and completed are terminal, except that an
// admin may reopen a cancelled booking back to pending.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Payment statuses, derived from amount_paid vs total_amount.
const (
	PaymentUnpaid   = "unpaid"
	PaymentPartial  = "partial"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

type Booking struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Reference     string    `gorm:"size:10;not null;uniqueIndex" json:"reference"`
	TrackingToken string    `gorm:"size:64;not null;uniqueIndex" json:"-"`

	UserID        *uuid.UUID `json:"user_id,omitempty"`
	CustomerName  string     `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail string     `gorm:"size:255;not null" json:"customer_email"`
	CustomerPhone string     `gorm:"size:30" json:"customer_phone"`

	TravelDate time.Time `gorm:"not null" json:"travel_date"`

	// Amounts are whole currency units. amount_paid + remaining_amount
	// must equal total_amount at all times.
	TotalAmount     int64  `gorm:"not null" json:"total_amount"`
	AmountPaid      int64  `gorm:"not null;default:0" json:"amount_paid"`
	RemainingAmount int64  `gorm:"not null" json:"remaining_amount"`
	Currency        string `gorm:"size:3;not null;default:'KES'" json:"currency"`
	DepositPercent  int    `gorm:"not null;default:100" json:"deposit_percent"`

	BookingStatus string `gorm:"size:20;not null;default:'pending'" json:"booking_status"`
	PaymentStatus string `gorm:"size:20;not null;default:'unpaid'" json:"payment_status"`

	VoucherURL *string `gorm:"size:255" json:"voucher_url,omitempty"`

	Items []BookingItem `gorm:"foreignkey:BookingID" json:"items,omitempty"`
	User  *User         `gorm:"foreignkey:UserID" json:"-"`

	LastActionAt time.Time `json:"last_action_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.LastActionAt.IsZero() {
		b.LastActionAt = time.Now()
	}
	return nil
}

// DerivedPaymentStatus maps the paid amount onto a payment status. Refunded
// is only ever set explicitly, never derived.
func (b *Booking) DerivedPaymentStatus() string {
	switch {
	case b.AmountPaid <= 0:
		return PaymentUnpaid
	case b.AmountPaid < b.TotalAmount:
		return PaymentPartial
	default:
		return PaymentPaid
	}
}
