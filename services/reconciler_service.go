package services

import (
	"errors"
	"log"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/notifications"
	"github.com/anjiri1684/safari_travel/payments"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reconciler translates signature-verified gateway events into booking
// state changes. Delivery is at-least-once and possibly out-of-order, so
// every event id is inserted into payment_events inside the same
// transaction as its effect: a replayed id fails that unique insert and the
// whole delivery becomes a recorded no-op. Idempotency is keyed on the
// event id, not the booking, so two distinct real payments both apply.
type Reconciler struct {
	DB       *gorm.DB
	Bookings *BookingService
	Notify   *notifications.Dispatcher
}

// Result reports what a processed event did, for the webhook response.
type Result struct {
	Duplicate bool
	Ignored   bool
	Booking   *models.Booking
}

// Process applies one parsed webhook event. A nil error means the event is
// durably recorded and the gateway must be ACKed, regardless of what the
// notification layer does afterwards.
func (r *Reconciler) Process(event *payments.WebhookEvent) (*Result, error) {
	kind := event.Kind()
	if kind == "" {
		log.Printf("Ignoring unhandled gateway event type %q (id %s)", event.Event, event.ID)
		return &Result{Ignored: true}, nil
	}

	bookingID, err := uuid.Parse(event.Data.Metadata.BookingID)
	if err != nil {
		return nil, &ValidationError{Message: "webhook metadata has no valid booking id"}
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		result, ledger, err := r.processOnce(event, kind, bookingID)
		if err == nil {
			for _, ev := range ledger {
				r.Bookings.publish(ev)
			}
			if !result.Duplicate {
				r.notify(kind, result)
			}
			return result, nil
		}
		if errors.Is(err, errStaleBooking) {
			continue
		}
		return nil, err
	}
	return nil, &TransientError{Op: "reconcile payment event", Err: errStaleBooking}
}

func (r *Reconciler) processOnce(event *payments.WebhookEvent, kind string, bookingID uuid.UUID) (*Result, []models.BookingEvent, error) {
	result := &Result{}
	var ledger []models.BookingEvent
	var becamePaid bool

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		record := models.PaymentEvent{
			EventID:    event.ID,
			BookingID:  bookingID,
			Kind:       kind,
			Amount:     event.AmountUnits(),
			GatewayRef: event.Data.Reference,
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				log.Printf("Webhook event %s already applied, acknowledging as no-op", event.ID)
				result.Duplicate = true
				return errAlreadyApplied
			}
			return err
		}

		switch kind {
		case models.GatewayEventSuccess:
			// Gateway amounts are untrusted in both directions: the clamp
			// covers excess, this covers negative and sub-unit amounts that
			// would otherwise drive amount_paid below zero or mint a no-op
			// ledger entry. The dedupe row is kept so replays stay no-ops.
			if event.AmountUnits() <= 0 {
				return r.recordIntegrityWarning(tx, bookingID, event,
					&ConflictError{Guard: "gateway reported a non-positive amount"}, &ledger)
			}
			var wasPaid bool
			booking, ev, err := r.Bookings.transitionInTx(tx, bookingID, paymentMutation(event.AmountUnits(), event.Data.Reference, "gateway", &wasPaid))
			if err != nil {
				var conflict *ConflictError
				if errors.As(err, &conflict) {
					// Completed bookings are never altered by webhook
					// events; keep the dedupe row and leave a durable
					// warning for manual reconciliation.
					return r.recordIntegrityWarning(tx, bookingID, event, conflict, &ledger)
				}
				return err
			}
			becamePaid = !wasPaid && booking.PaymentStatus == models.PaymentPaid
			result.Booking = booking
			ledger = append(ledger, *ev)

		case models.GatewayEventPending:
			return r.recordNonMonetary(tx, bookingID, models.EventPaymentPending, event, result, &ledger)

		case models.GatewayEventFailure:
			return r.recordNonMonetary(tx, bookingID, models.EventPaymentFailed, event, result, &ledger)
		}
		return nil
	})

	if errors.Is(err, errAlreadyApplied) {
		return result, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if becamePaid && result.Booking != nil {
		r.Bookings.generateVoucher(*result.Booking)
	}
	return result, ledger, nil
}

var errAlreadyApplied = errors.New("payment event already applied")

// recordNonMonetary appends a ledger entry for pending/failed gateway
// events. No amount or status field changes.
func (r *Reconciler) recordNonMonetary(tx *gorm.DB, bookingID uuid.UUID, eventType string, event *payments.WebhookEvent, result *Result, ledger *[]models.BookingEvent) error {
	var booking models.Booking
	if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
		return err
	}

	ev, err := appendEvent(tx, &booking, eventType, map[string]interface{}{
		"event_id":    event.ID,
		"amount":      event.AmountUnits(),
		"gateway_ref": event.Data.Reference,
	})
	if err != nil {
		return err
	}
	result.Booking = &booking
	*ledger = append(*ledger, *ev)
	return nil
}

func (r *Reconciler) recordIntegrityWarning(tx *gorm.DB, bookingID uuid.UUID, event *payments.WebhookEvent, conflict *ConflictError, ledger *[]models.BookingEvent) error {
	log.Printf("⚠️ IntegrityWarning: gateway event %s for booking %s rejected by guard: %s. Recorded for manual reconciliation.",
		event.ID, bookingID, conflict.Guard)

	var booking models.Booking
	if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
		return err
	}
	ev, err := appendEvent(tx, &booking, models.EventIntegrityWarning, map[string]interface{}{
		"event_id":    event.ID,
		"amount":      event.AmountUnits(),
		"gateway_ref": event.Data.Reference,
		"guard":       conflict.Guard,
	})
	if err != nil {
		return err
	}
	*ledger = append(*ledger, *ev)
	return nil
}

func (r *Reconciler) notify(kind string, result *Result) {
	if result.Booking == nil {
		return
	}
	b := *result.Booking
	items := r.Bookings.itemsOf(result.Booking)

	switch kind {
	case models.GatewayEventSuccess:
		r.Notify.Enqueue(notifications.EventPaymentReceived, b, items)
	case models.GatewayEventPending:
		r.Notify.Enqueue(notifications.EventPaymentPending, b, items)
	case models.GatewayEventFailure:
		r.Notify.Enqueue(notifications.EventPaymentFailed, b, items)
	}
}
