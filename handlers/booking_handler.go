package handlers

import (
	"time"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BookingHandler struct {
	Checkout *services.CheckoutService
	Bookings *services.BookingService
}

type BookingItemRequest struct {
	ItemType        string                 `json:"item_type" validate:"required,oneof=tour transfer package"`
	TourID          *string                `json:"tour_id,omitempty" validate:"omitempty,uuid"`
	TransferRouteID *string                `json:"transfer_route_id,omitempty" validate:"omitempty,uuid"`
	PackageID       *string                `json:"package_id,omitempty" validate:"omitempty,uuid"`
	PickupLocation  *string                `json:"pickup_location,omitempty"`
	DropoffLocation *string                `json:"dropoff_location,omitempty"`
	TravelDate      string                 `json:"travel_date" validate:"required,datetime=2006-01-02"`
	ReturnDate      *string                `json:"return_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Adults          int                    `json:"adults" validate:"required,min=1"`
	Children        int                    `json:"children" validate:"min=0"`
	Luggage         int                    `json:"luggage" validate:"min=0"`
	VehicleCount    int                    `json:"vehicle_count" validate:"min=0"`
	Subtotal        *int64                 `json:"subtotal,omitempty"`
	Notes           map[string]interface{} `json:"notes,omitempty"`
}

type CreateBookingRequest struct {
	CustomerName  string               `json:"customer_name" validate:"required,min=3"`
	CustomerEmail string               `json:"customer_email" validate:"required,email"`
	CustomerPhone string               `json:"customer_phone,omitempty"`
	TravelDate    string               `json:"travel_date" validate:"required,datetime=2006-01-02"`
	Total         *int64               `json:"total,omitempty"`
	Items         []BookingItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	travelDate, _ := time.Parse("2006-01-02", req.TravelDate)

	input := services.CheckoutInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		UserID:        currentUserID(c),
		TravelDate:    travelDate,
		ClientTotal:   req.Total,
	}

	for _, item := range req.Items {
		parsed, err := parseItemRequest(item)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		input.Items = append(input.Items, *parsed)
	}

	booking, err := h.Checkout.CreateBooking(input)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking":        booking,
		"tracking_token": booking.TrackingToken,
	})
}

type CheckoutSessionRequest struct {
	BookingID      string `json:"booking_id" validate:"required,uuid"`
	TrackingToken  string `json:"tracking_token" validate:"required"`
	DepositPercent int    `json:"deposit_percent" validate:"required,oneof=25 50 100"`
}

func (h *BookingHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	var req CheckoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	session, err := h.Checkout.CreateDepositSession(bookingID, req.TrackingToken, req.DepositPercent)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"session_url": session.AuthorizationURL,
		"reference":   session.Reference,
	})
}

type RemainingSessionRequest struct {
	BookingID     string `json:"booking_id" validate:"required,uuid"`
	TrackingToken string `json:"tracking_token" validate:"required"`
}

func (h *BookingHandler) CreateRemainingSession(c *fiber.Ctx) error {
	var req RemainingSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	bookingID, _ := uuid.Parse(req.BookingID)

	session, err := h.Checkout.CreateRemainingSession(bookingID, req.TrackingToken)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"session_url": session.AuthorizationURL,
		"reference":   session.Reference,
	})
}

// TrackBooking serves the customer timeline, authorized by capability token
// or by the authenticated owner.
func (h *BookingHandler) TrackBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Query("booking_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}
	token := c.Query("token")

	booking, events, err := h.Bookings.Track(bookingID, token, currentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"booking":  booking,
		"timeline": events,
	})
}

func parseItemRequest(req BookingItemRequest) (*services.CheckoutItem, error) {
	travelDate, err := time.Parse("2006-01-02", req.TravelDate)
	if err != nil {
		return nil, err
	}

	item := services.CheckoutItem{
		ItemType:        req.ItemType,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		TravelDate:      travelDate,
		Adults:          req.Adults,
		Children:        req.Children,
		Luggage:         req.Luggage,
		VehicleCount:    req.VehicleCount,
		Subtotal:        req.Subtotal,
		Notes:           req.Notes,
	}
	if item.VehicleCount == 0 && req.ItemType == models.ItemTypeTransfer {
		item.VehicleCount = 1
	}

	if req.ReturnDate != nil {
		returnDate, err := time.Parse("2006-01-02", *req.ReturnDate)
		if err != nil {
			return nil, err
		}
		item.ReturnDate = &returnDate
	}

	if req.TourID != nil {
		id, err := uuid.Parse(*req.TourID)
		if err != nil {
			return nil, err
		}
		item.TourID = &id
	}
	if req.TransferRouteID != nil {
		id, err := uuid.Parse(*req.TransferRouteID)
		if err != nil {
			return nil, err
		}
		item.TransferRouteID = &id
	}
	if req.PackageID != nil {
		id, err := uuid.Parse(*req.PackageID)
		if err != nil {
			return nil, err
		}
		item.PackageID = &id
	}

	return &item, nil
}
