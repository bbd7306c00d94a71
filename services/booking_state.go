package services

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/notifications"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const casRetries = 3

var errStaleBooking = errors.New("booking state changed concurrently")

// EventSink receives every committed ledger entry (the admin live feed).
type EventSink interface {
	Publish(event models.BookingEvent)
}

// BookingService owns every guarded transition over a booking aggregate.
// Each transition commits the booking mutation and its ledger entry in one
// transaction; notifications, the live feed and voucher generation happen
// after commit and can never roll it back.
type BookingService struct {
	DB       *gorm.DB
	Notify   *notifications.Dispatcher
	Feed     EventSink
	Vouchers *VoucherService
}

// Confirm moves a pending booking to confirmed.
func (s *BookingService) Confirm(bookingID uuid.UUID, actor string) (*models.Booking, error) {
	b, err := s.transition(bookingID, func(b *models.Booking) (string, map[string]interface{}, error) {
		switch b.BookingStatus {
		case models.BookingCancelled:
			return "", nil, &ConflictError{Guard: "cancelled bookings cannot be confirmed"}
		case models.BookingCompleted:
			return "", nil, &ConflictError{Guard: "completed bookings cannot be confirmed"}
		case models.BookingConfirmed:
			return "", nil, &ConflictError{Guard: "booking is already confirmed"}
		}
		b.BookingStatus = models.BookingConfirmed
		return models.EventBookingConfirmed, map[string]interface{}{"actor": actor}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Notify.Enqueue(notifications.EventBookingConfirmed, *b, s.itemsOf(b))
	return b, nil
}

// Cancel is allowed from any state except cancelled and completed.
func (s *BookingService) Cancel(bookingID uuid.UUID, actor string) (*models.Booking, error) {
	b, err := s.transition(bookingID, func(b *models.Booking) (string, map[string]interface{}, error) {
		switch b.BookingStatus {
		case models.BookingCancelled:
			return "", nil, &ConflictError{Guard: "booking is already cancelled"}
		case models.BookingCompleted:
			return "", nil, &ConflictError{Guard: "completed bookings cannot be cancelled"}
		}
		b.BookingStatus = models.BookingCancelled
		return models.EventBookingCancelled, map[string]interface{}{"actor": actor}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Notify.Enqueue(notifications.EventBookingCancelled, *b, s.itemsOf(b))
	return b, nil
}

// Complete requires full payment and a live booking.
func (s *BookingService) Complete(bookingID uuid.UUID, actor string) (*models.Booking, error) {
	return s.transition(bookingID, func(b *models.Booking) (string, map[string]interface{}, error) {
		switch {
		case b.BookingStatus == models.BookingCancelled:
			return "", nil, &ConflictError{Guard: "cancelled bookings cannot be completed"}
		case b.BookingStatus == models.BookingCompleted:
			return "", nil, &ConflictError{Guard: "booking is already completed"}
		case b.PaymentStatus != models.PaymentPaid:
			return "", nil, &ConflictError{Guard: "booking is not fully paid"}
		}
		b.BookingStatus = models.BookingCompleted
		return models.EventBookingCompleted, map[string]interface{}{"actor": actor}, nil
	})
}

// Reopen is the single back-edge: an admin returns a cancelled booking to
// pending.
func (s *BookingService) Reopen(bookingID uuid.UUID, actor string) (*models.Booking, error) {
	return s.transition(bookingID, func(b *models.Booking) (string, map[string]interface{}, error) {
		if b.BookingStatus != models.BookingCancelled {
			return "", nil, &ConflictError{Guard: "only cancelled bookings can be reopened"}
		}
		b.BookingStatus = models.BookingPending
		return models.EventBookingReopened, map[string]interface{}{"actor": actor}, nil
	})
}

// MarkPaid settles the full balance manually (admin action).
func (s *BookingService) MarkPaid(bookingID uuid.UUID, actor string) (*models.Booking, error) {
	var wasPaid bool
	b, err := s.transition(bookingID, func(b *models.Booking) (string, map[string]interface{}, error) {
		switch b.BookingStatus {
		case models.BookingCancelled:
			return "", nil, &ConflictError{Guard: "cancelled bookings cannot be marked paid"}
		case models.BookingCompleted:
			return "", nil, &ConflictError{Guard: "completed bookings cannot be marked paid"}
		}
		wasPaid = b.PaymentStatus == models.PaymentPaid
		b.AmountPaid = b.TotalAmount
		b.RemainingAmount = 0
		b.PaymentStatus = models.PaymentPaid
		return models.EventMarkedPaid, map[string]interface{}{"actor": actor}, nil
	})
	if err != nil {
		return nil, err
	}

	s.Notify.Enqueue(notifications.EventPaymentReceived, *b, s.itemsOf(b))
	if !wasPaid {
		s.generateVoucher(*b)
	}
	return b, nil
}

// ApplyPayment increments amount_paid by the gateway-reported amount,
// clamped so paid never exceeds total. Excess is an IntegrityWarning:
// logged and recorded in the ledger payload, never a caller-visible error.
func (s *BookingService) ApplyPayment(bookingID uuid.UUID, amount int64, gatewayRef, actor string) (*models.Booking, error) {
	if amount <= 0 {
		return nil, &ValidationError{Message: "payment amount must be positive"}
	}

	var wasPaid bool
	b, err := s.transition(bookingID, paymentMutation(amount, gatewayRef, actor, &wasPaid))
	if err != nil {
		return nil, err
	}

	s.Notify.Enqueue(notifications.EventPaymentReceived, *b, s.itemsOf(b))
	if !wasPaid && b.PaymentStatus == models.PaymentPaid {
		s.generateVoucher(*b)
	}
	return b, nil
}

// paymentMutation builds the apply_payment guard-and-clamp step, shared by
// the admin path and the webhook reconciler.
func paymentMutation(amount int64, gatewayRef, actor string, wasPaid *bool) applyFunc {
	return func(b *models.Booking) (string, map[string]interface{}, error) {
		if b.BookingStatus == models.BookingCompleted {
			return "", nil, &ConflictError{Guard: "completed bookings cannot accept payments"}
		}
		*wasPaid = b.PaymentStatus == models.PaymentPaid

		applied := amount
		clamped := false
		if applied > b.RemainingAmount {
			clamped = true
			applied = b.RemainingAmount
			log.Printf("⚠️ IntegrityWarning: booking %s reported payment of %d exceeds remaining %d, clamping. Reconcile manually against %s.",
				b.Reference, amount, b.RemainingAmount, gatewayRef)
		}
		b.AmountPaid += applied
		b.RemainingAmount = b.TotalAmount - b.AmountPaid
		b.PaymentStatus = b.DerivedPaymentStatus()

		return models.EventPaymentApplied, map[string]interface{}{
			"actor":       actor,
			"amount":      amount,
			"applied":     applied,
			"clamped":     clamped,
			"gateway_ref": gatewayRef,
		}, nil
	}
}

// Track returns a booking, its items and its ledger timeline for the
// capability-token or owner read path. Unauthorized lookups are
// indistinguishable from missing bookings.
func (s *BookingService) Track(bookingID uuid.UUID, token string, userID *uuid.UUID) (*models.Booking, []models.BookingEvent, error) {
	var booking models.Booking
	if err := s.DB.Preload("Items").First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, nil, err
	}

	tokenOK := token != "" && subtle.ConstantTimeCompare([]byte(booking.TrackingToken), []byte(token)) == 1
	ownerOK := userID != nil && booking.UserID != nil && *booking.UserID == *userID
	if !tokenOK && !ownerOK {
		return nil, nil, gorm.ErrRecordNotFound
	}

	var events []models.BookingEvent
	if err := s.DB.Where("booking_id = ?", booking.ID).Order("created_at asc").Find(&events).Error; err != nil {
		return nil, nil, err
	}
	return &booking, events, nil
}

type applyFunc func(b *models.Booking) (string, map[string]interface{}, error)

// transition runs one guarded mutation as an optimistic compare-and-set:
// the UPDATE only lands if nobody changed (status, amount_paid) since our
// read, so a webhook and a concurrent admin action can never overwrite each
// other's effect. Lost races are retried from a fresh read.
func (s *BookingService) transition(bookingID uuid.UUID, apply applyFunc) (*models.Booking, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		var booking *models.Booking
		var event *models.BookingEvent

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			booking, event, err = s.transitionInTx(tx, bookingID, apply)
			return err
		})

		if err == nil {
			s.publish(*event)
			return booking, nil
		}
		if errors.Is(err, errStaleBooking) {
			continue
		}
		return nil, err
	}
	return nil, &TransientError{Op: "booking transition", Err: errStaleBooking}
}

// transitionInTx is the single CAS step inside a caller-owned transaction.
// Returns errStaleBooking when a concurrent writer won the race; the caller
// retries the whole transaction from a fresh read.
func (s *BookingService) transitionInTx(tx *gorm.DB, bookingID uuid.UUID, apply applyFunc) (*models.Booking, *models.BookingEvent, error) {
	var booking models.Booking
	if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, nil, err
	}
	prevBookingStatus := booking.BookingStatus
	prevPaymentStatus := booking.PaymentStatus
	prevPaid := booking.AmountPaid

	eventType, extra, err := apply(&booking)
	if err != nil {
		return nil, nil, err
	}
	booking.LastActionAt = time.Now()

	res := tx.Model(&models.Booking{}).
		Where("id = ? AND booking_status = ? AND payment_status = ? AND amount_paid = ?",
			booking.ID, prevBookingStatus, prevPaymentStatus, prevPaid).
		Updates(map[string]interface{}{
			"booking_status":   booking.BookingStatus,
			"payment_status":   booking.PaymentStatus,
			"amount_paid":      booking.AmountPaid,
			"remaining_amount": booking.RemainingAmount,
			"last_action_at":   booking.LastActionAt,
		})
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil, errStaleBooking
	}

	event, err := appendEvent(tx, &booking, eventType, extra)
	if err != nil {
		return nil, nil, err
	}
	return &booking, event, nil
}

func (s *BookingService) publish(event models.BookingEvent) {
	if s.Feed != nil {
		s.Feed.Publish(event)
	}
}

// appendEvent writes one ledger entry carrying the resulting status
// snapshot. The ledger is append-only; nothing in this codebase updates or
// deletes booking_events rows.
func appendEvent(tx *gorm.DB, b *models.Booking, eventType string, extra map[string]interface{}) (*models.BookingEvent, error) {
	payload := map[string]interface{}{
		"booking_status":   b.BookingStatus,
		"payment_status":   b.PaymentStatus,
		"total_amount":     b.TotalAmount,
		"amount_paid":      b.AmountPaid,
		"remaining_amount": b.RemainingAmount,
	}
	for k, v := range extra {
		payload[k] = v
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	event := models.BookingEvent{
		BookingID: b.ID,
		EventType: eventType,
		Payload:   datatypes.JSON(raw),
	}
	if err := tx.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *BookingService) itemsOf(b *models.Booking) []models.BookingItem {
	if len(b.Items) > 0 {
		return b.Items
	}
	var items []models.BookingItem
	s.DB.Where("booking_id = ?", b.ID).Find(&items)
	return items
}

func (s *BookingService) generateVoucher(b models.Booking) {
	if s.Vouchers == nil {
		return
	}
	go s.Vouchers.Generate(b)
}
