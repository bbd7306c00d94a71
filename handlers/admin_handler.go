package handlers

import (
	"github.com/anjiri1684/safari_travel/models"
	"github.com/anjiri1684/safari_travel/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminHandler struct {
	DB       *gorm.DB
	Bookings *services.BookingService
}

func (h *AdminHandler) ConfirmBooking(c *fiber.Ctx) error {
	return h.runTransition(c, h.Bookings.Confirm)
}

func (h *AdminHandler) CancelBooking(c *fiber.Ctx) error {
	return h.runTransition(c, h.Bookings.Cancel)
}

func (h *AdminHandler) CompleteBooking(c *fiber.Ctx) error {
	return h.runTransition(c, h.Bookings.Complete)
}

func (h *AdminHandler) MarkBookingPaid(c *fiber.Ctx) error {
	return h.runTransition(c, h.Bookings.MarkPaid)
}

func (h *AdminHandler) ReopenBooking(c *fiber.Ctx) error {
	return h.runTransition(c, h.Bookings.Reopen)
}

func (h *AdminHandler) runTransition(c *fiber.Ctx, transition func(uuid.UUID, string) (*models.Booking, error)) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	booking, err := transition(bookingID, currentActor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func (h *AdminHandler) ListBookings(c *fiber.Ctx) error {
	query := h.DB.Order("created_at desc").Limit(200)

	if status := c.Query("status"); status != "" {
		query = query.Where("booking_status = ?", status)
	}
	if payment := c.Query("payment_status"); payment != "" {
		query = query.Where("payment_status = ?", payment)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(bookings)
}

func (h *AdminHandler) GetBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking ID format"})
	}

	var booking models.Booking
	if err := h.DB.Preload("Items").First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	var events []models.BookingEvent
	h.DB.Where("booking_id = ?", booking.ID).Order("created_at asc").Find(&events)

	var paymentEvents []models.PaymentEvent
	h.DB.Where("booking_id = ?", booking.ID).Order("created_at asc").Find(&paymentEvents)

	return c.JSON(fiber.Map{
		"booking":        booking,
		"timeline":       events,
		"payment_events": paymentEvents,
	})
}
