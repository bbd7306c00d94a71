package services

import (
	"crypto/subtle"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/notifications"
	"github.com/anjiri1684/safari_travel/payments"
	"github.com/anjiri1684/safari_travel/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckoutItem is one cart line after DTO parsing. Subtotal, when set, is
// the client's own math and is only ever used as a cross-check; the server
// recomputes every price from the catalog.
type CheckoutItem struct {
	ItemType        string
	TourID          *uuid.UUID
	TransferRouteID *uuid.UUID
	PackageID       *uuid.UUID
	PickupLocation  *string
	DropoffLocation *string
	TravelDate      time.Time
	ReturnDate      *time.Time
	Adults          int
	Children        int
	Luggage         int
	VehicleCount    int
	Subtotal        *int64
	Notes           map[string]interface{}
}

type CheckoutInput struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	UserID        *uuid.UUID
	TravelDate    time.Time
	ClientTotal   *int64
	Items         []CheckoutItem
}

// CheckoutService creates pending bookings and requests payment sessions.
type CheckoutService struct {
	DB       *gorm.DB
	Gateway  *payments.Client
	Notify   *notifications.Dispatcher
	Bookings *BookingService
}

// DepositAmounts splits a total by deposit percentage, rounding the amount
// due now half-up on whole currency units.
func DepositAmounts(total int64, depositPercent int) (dueNow, remainingAfter int64) {
	dueNow = (total*int64(depositPercent) + 50) / 100
	return dueNow, total - dueNow
}

// CreateBooking persists a pending/unpaid booking and its items atomically.
// A pricing or validation failure leaves nothing behind.
func (s *CheckoutService) CreateBooking(input CheckoutInput) (*models.Booking, error) {
	if len(input.Items) == 0 {
		return nil, &ValidationError{Message: "booking must contain at least one item"}
	}
	if input.TravelDate.Before(time.Now().Truncate(24 * time.Hour)) {
		return nil, &ValidationError{Message: "travel date cannot be in the past"}
	}

	token, err := utils.GenerateTrackingToken()
	if err != nil {
		return nil, &TransientError{Op: "generate tracking token", Err: err}
	}

	var booking models.Booking
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		items := make([]models.BookingItem, 0, len(input.Items))
		var total int64
		for i, in := range input.Items {
			item, err := s.priceItem(tx, in)
			if err != nil {
				return err
			}
			if in.Subtotal != nil && *in.Subtotal != item.Subtotal {
				return &ValidationError{Message: fmt.Sprintf("item %d subtotal mismatch: client sent %d, server computed %d", i+1, *in.Subtotal, item.Subtotal)}
			}
			total += item.Subtotal
			items = append(items, *item)
		}

		if input.ClientTotal != nil && *input.ClientTotal != total {
			return &ValidationError{Message: fmt.Sprintf("total mismatch: client sent %d, server computed %d", *input.ClientTotal, total)}
		}

		reference, err := utils.GenerateUniqueReference(tx)
		if err != nil {
			return &TransientError{Op: "generate booking reference", Err: err}
		}

		booking = models.Booking{
			Reference:       reference,
			TrackingToken:   token,
			UserID:          input.UserID,
			CustomerName:    input.CustomerName,
			CustomerEmail:   input.CustomerEmail,
			CustomerPhone:   input.CustomerPhone,
			TravelDate:      input.TravelDate,
			TotalAmount:     total,
			AmountPaid:      0,
			RemainingAmount: total,
			BookingStatus:   models.BookingPending,
			PaymentStatus:   models.PaymentUnpaid,
			Items:           items,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		_, err = appendEvent(tx, &booking, models.EventBookingCreated, map[string]interface{}{
			"items": len(items),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Notify.Enqueue(notifications.EventBookingReceived, booking, booking.Items)
	return &booking, nil
}

// CreateDepositSession requests a hosted-checkout session for the deposit
// share of a fresh booking. Gateway failure leaves the pending booking
// intact; the caller may simply request a new session later.
func (s *CheckoutService) CreateDepositSession(bookingID uuid.UUID, token string, depositPercent int) (*payments.CheckoutSession, error) {
	if depositPercent != 25 && depositPercent != 50 && depositPercent != 100 {
		return nil, &ValidationError{Message: "deposit choice must be 25, 50 or 100"}
	}

	booking, err := s.authorizedBooking(bookingID, token)
	if err != nil {
		return nil, err
	}
	switch {
	case booking.BookingStatus == models.BookingCancelled:
		return nil, &ConflictError{Guard: "cancelled bookings cannot be paid"}
	case booking.BookingStatus == models.BookingCompleted:
		return nil, &ConflictError{Guard: "completed bookings cannot be paid"}
	case booking.PaymentStatus != models.PaymentUnpaid:
		return nil, &ConflictError{Guard: "booking already has payments, use the remaining-balance session"}
	}

	dueNow, _ := DepositAmounts(booking.TotalAmount, depositPercent)

	if err := s.DB.Model(booking).Update("deposit_percent", depositPercent).Error; err != nil {
		return nil, err
	}
	booking.DepositPercent = depositPercent

	return s.requestSession(booking, dueNow)
}

// CreateRemainingSession requests a session for the outstanding balance.
func (s *CheckoutService) CreateRemainingSession(bookingID uuid.UUID, token string) (*payments.CheckoutSession, error) {
	booking, err := s.authorizedBooking(bookingID, token)
	if err != nil {
		return nil, err
	}
	switch {
	case booking.BookingStatus == models.BookingCancelled:
		return nil, &ConflictError{Guard: "cancelled bookings cannot be paid"}
	case booking.RemainingAmount <= 0:
		return nil, &ConflictError{Guard: "booking has no remaining balance"}
	}

	return s.requestSession(booking, booking.RemainingAmount)
}

func (s *CheckoutService) requestSession(booking *models.Booking, amount int64) (*payments.CheckoutSession, error) {
	// Unique per attempt so a retried session never collides at the gateway.
	sessionRef := fmt.Sprintf("%s-%d", booking.Reference, time.Now().UnixNano())

	session, err := s.Gateway.InitiateCheckoutSession(amount, booking.Currency, booking.CustomerEmail, sessionRef, payments.SessionMetadata{
		BookingID:     booking.ID.String(),
		TrackingToken: booking.TrackingToken,
	})
	if err != nil {
		log.Printf("🔥 Checkout session creation failed for booking %s: %v", booking.Reference, err)
		return nil, &TransientError{Op: "create checkout session", Err: err}
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		_, err := appendEvent(tx, booking, models.EventSessionCreated, map[string]interface{}{
			"amount":          amount,
			"session_ref":     sessionRef,
			"deposit_percent": booking.DepositPercent,
		})
		return err
	})
	if err != nil {
		log.Printf("🔥 Failed to record checkout session for booking %s: %v", booking.Reference, err)
	}

	return session, nil
}

func (s *CheckoutService) authorizedBooking(bookingID uuid.UUID, token string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(booking.TrackingToken), []byte(token)) != 1 {
		return nil, gorm.ErrRecordNotFound
	}
	return &booking, nil
}

// priceItem recomputes one item's subtotal from the authoritative catalog
// price and validates the variant's typed fields.
func (s *CheckoutService) priceItem(tx *gorm.DB, in CheckoutItem) (*models.BookingItem, error) {
	if in.Adults < 1 {
		return nil, &ValidationError{Message: "item requires at least one adult"}
	}

	item := models.BookingItem{
		ItemType:        in.ItemType,
		PickupLocation:  in.PickupLocation,
		DropoffLocation: in.DropoffLocation,
		TravelDate:      in.TravelDate,
		ReturnDate:      in.ReturnDate,
		Adults:          in.Adults,
		Children:        in.Children,
		Luggage:         in.Luggage,
		VehicleCount:    in.VehicleCount,
		Notes:           in.Notes,
	}

	switch in.ItemType {
	case models.ItemTypeTour:
		if in.TourID == nil {
			return nil, &ValidationError{Message: "tour item requires tour_id"}
		}
		var tour models.Tour
		if err := tx.First(&tour, "id = ? AND is_active = ?", in.TourID, true).Error; err != nil {
			return nil, &ValidationError{Message: "tour not found or unavailable"}
		}
		item.TourID = in.TourID
		item.Subtotal = tour.PricePerAdult*int64(in.Adults) + tour.PricePerChild*int64(in.Children)

	case models.ItemTypeTransfer:
		if in.TransferRouteID == nil {
			return nil, &ValidationError{Message: "transfer item requires transfer_route_id"}
		}
		if in.VehicleCount < 1 {
			return nil, &ValidationError{Message: "transfer item requires at least one vehicle"}
		}
		var route models.TransferRoute
		if err := tx.First(&route, "id = ? AND is_active = ?", in.TransferRouteID, true).Error; err != nil {
			return nil, &ValidationError{Message: "transfer route not found or unavailable"}
		}
		if in.Adults+in.Children > route.MaxPassengers*in.VehicleCount {
			return nil, &ValidationError{Message: "passenger count exceeds vehicle capacity"}
		}
		if in.Luggage > route.MaxLuggage*in.VehicleCount {
			return nil, &ValidationError{Message: "luggage count exceeds vehicle capacity"}
		}
		item.TransferRouteID = in.TransferRouteID
		item.Subtotal = route.PricePerVehicle * int64(in.VehicleCount)

	case models.ItemTypePackage:
		if in.PackageID == nil {
			return nil, &ValidationError{Message: "package item requires package_id"}
		}
		var pkg models.TourPackage
		if err := tx.First(&pkg, "id = ? AND is_active = ?", in.PackageID, true).Error; err != nil {
			return nil, &ValidationError{Message: "package not found or unavailable"}
		}
		item.PackageID = in.PackageID
		item.Subtotal = pkg.PricePerPerson * int64(in.Adults+in.Children)

	default:
		return nil, &ValidationError{Message: fmt.Sprintf("unknown item type %q", in.ItemType)}
	}

	return &item, nil
}
